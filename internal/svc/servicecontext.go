package svc

import (
	"context"
	"fmt"

	"github.com/zeromicro/go-zero/core/logx"

	"cryptodash/internal/config"
	"cryptodash/internal/stream"
	marketpkg "cryptodash/pkg/market"
	_ "cryptodash/pkg/market/exchanges/coingecko"
	"cryptodash/pkg/poller"
	"cryptodash/pkg/selection"
)

type ServiceContext struct {
	Config config.Config

	MarketConfig    *marketpkg.Config
	MarketProviders map[string]marketpkg.Provider
	DefaultMarket   marketpkg.Provider

	Poller    *poller.Poller
	Selection *selection.ViewModel
	Stream    *stream.Hub
}

// NewServiceContext wires the service and exits the process on bad config.
func NewServiceContext(c config.Config) *ServiceContext {
	svc, err := New(c)
	logx.Must(err)
	return svc
}

// New builds providers from the market section and wires the poller, the
// view model and the change stream together. Nothing is started.
func New(c config.Config) (*ServiceContext, error) {
	marketCfg := c.Market.Value
	if marketCfg == nil {
		return nil, fmt.Errorf("svc: market config is required")
	}
	providers, err := marketCfg.BuildProviders()
	if err != nil {
		return nil, fmt.Errorf("svc: build market providers: %w", err)
	}
	def, err := marketCfg.SelectDefault(providers)
	if err != nil {
		return nil, fmt.Errorf("svc: %w", err)
	}

	svc := NewWithProvider(c, def)
	svc.MarketConfig = marketCfg
	svc.MarketProviders = providers
	return svc, nil
}

// NewWithProvider wires the components around an existing provider.
func NewWithProvider(c config.Config, provider marketpkg.Provider, opts ...poller.Option) *ServiceContext {
	vm := selection.New(provider, c.SelectionOptions()...)
	hub := stream.NewHub(stream.Config{
		SendBuffer:   c.Stream.SendBuffer,
		WriteTimeout: c.Stream.WriteTimeout,
		PingInterval: c.Stream.PingInterval,
	}, vm)

	pollerOpts := append([]poller.Option{
		poller.WithHandler(vm),
		poller.WithObserver(observe),
	}, opts...)

	return &ServiceContext{
		Config:        c,
		DefaultMarket: provider,
		Poller:        poller.New(c.PollerConfig(), provider, pollerOpts...),
		Selection:     vm,
		Stream:        hub,
	}
}

// Start begins polling.
func (s *ServiceContext) Start(ctx context.Context) error {
	return s.Poller.Start(ctx)
}

// Stop halts polling, then releases the view model and stream clients.
func (s *ServiceContext) Stop(ctx context.Context) error {
	err := s.Poller.Stop(ctx)
	s.Stream.Close()
	s.Selection.Close()
	return err
}

func observe(r poller.Result) {
	if r.Applied {
		logx.Infow("market snapshot applied",
			logx.Field("seq", r.Seq),
			logx.Field("assets", r.Assets),
			logx.Field("duration", r.Duration.String()),
		)
	}
}
