package coingecko

import (
	"context"
	"net/http"
	"time"

	"cryptodash/pkg/market"
)

const defaultProviderTimeout = 8 * time.Second

// Provider adapts Client to the market.Provider contract.
type Provider struct {
	client     *Client
	timeout    time.Duration
	providerID string
}

type providerConfig struct {
	timeout      time.Duration
	clientConfig []Option
}

// ProviderOption customises the CoinGecko provider.
type ProviderOption func(*providerConfig)

// WithTimeout overrides the default per-call timeout.
func WithTimeout(timeout time.Duration) ProviderOption {
	return func(cfg *providerConfig) {
		if timeout > 0 {
			cfg.timeout = timeout
		}
	}
}

// WithClientOptions passes options to the underlying client.
func WithClientOptions(options ...Option) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.clientConfig = append(cfg.clientConfig, options...)
	}
}

// NewProvider constructs a CoinGecko market provider.
func NewProvider(opts ...ProviderOption) *Provider {
	cfg := &providerConfig{timeout: defaultProviderTimeout}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Provider{
		client:  NewClient(cfg.clientConfig...),
		timeout: cfg.timeout,
	}
}

func init() {
	market.RegisterProvider("coingecko", func(name string, cfg *market.ProviderConfig) (market.Provider, error) {
		opts := []ProviderOption{}
		clientOptions := []Option{}
		if cfg.Timeout > 0 {
			opts = append(opts, WithTimeout(cfg.Timeout))
		}
		if cfg.HTTPTimeout > 0 {
			clientOptions = append(clientOptions, WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}))
		}
		if cfg.BaseURL != "" {
			clientOptions = append(clientOptions, WithBaseURL(cfg.BaseURL))
		}
		if cfg.UserAgent != "" {
			clientOptions = append(clientOptions, WithUserAgent(cfg.UserAgent))
		}
		if cfg.MaxRetries > 0 {
			clientOptions = append(clientOptions, WithMaxRetries(cfg.MaxRetries))
		}
		if len(clientOptions) > 0 {
			opts = append(opts, WithClientOptions(clientOptions...))
		}
		provider := NewProvider(opts...)
		provider.providerID = name
		return provider, nil
	})
}

// TopMovers implements market.Provider.
func (p *Provider) TopMovers(ctx context.Context, query market.MoversQuery) ([]market.Asset, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.client.GetMarkets(ctx, query)
}

// Tickers implements market.Provider.
func (p *Provider) Tickers(ctx context.Context, coinID string, limit int) ([]market.ExchangeTicker, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.client.GetTickers(ctx, coinID, limit)
}

// Name returns the configured provider id.
func (p *Provider) Name() string {
	if p.providerID != "" {
		return p.providerID
	}
	return "coingecko"
}

func (p *Provider) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, p.timeout)
}
