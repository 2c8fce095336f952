package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/rest"

	"cryptodash/pkg/confkit"
	marketpkg "cryptodash/pkg/market"
	"cryptodash/pkg/poller"
	"cryptodash/pkg/selection"
)

type PollerConf struct {
	Interval time.Duration `json:",default=60s"`
	Timeout  time.Duration `json:",default=10s"`
	// TopN is the number of assets requested per poll.
	TopN     int    `json:",default=11"`
	Currency string `json:",default=usd"`
	Order    string `json:",default=price_change_percentage_24h_desc"`
}

type FocusConf struct {
	Default       string        `json:",default=btc"`
	ExchangeLimit int           `json:",default=10"`
	FetchTimeout  time.Duration `json:",default=10s"`
}

type StreamConf struct {
	// SendBuffer is the per-client queue; clients that fall behind are dropped.
	SendBuffer   int           `json:",default=16"`
	WriteTimeout time.Duration `json:",default=5s"`
	PingInterval time.Duration `json:",default=30s"`
}

type Config struct {
	rest.RestConf
	// Env indicates the running environment: test | dev | prod
	Env    string     `json:",default=test"`
	Poller PollerConf `json:",optional"`
	Focus  FocusConf  `json:",optional"`
	Stream StreamConf `json:",optional"`

	Market confkit.Section[marketpkg.Config] `json:",optional"`

	mainPath string
	baseDir  string
}

func (c *Config) IsTestEnv() bool {
	return c.Env == "test" || c.Env == ""
}

func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func Load(path string) (*Config, error) {
	confkit.LoadDotenvOnce()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path %s: %w", path, err)
	}

	var cfg Config
	if err := conf.Load(absPath, &cfg, conf.UseEnv()); err != nil {
		return nil, fmt.Errorf("load config %s: %w", absPath, err)
	}

	cfg.mainPath = absPath
	cfg.baseDir = filepath.Dir(absPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.hydrateSections(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "", "test", "dev", "prod":
		if strings.TrimSpace(c.Env) == "" {
			c.Env = "test"
		}
	default:
		return errors.New("config: env must be one of test|dev|prod")
	}
	c.applyDefaults()
	if err := c.validatePoller(); err != nil {
		return err
	}
	if err := c.validateFocus(); err != nil {
		return err
	}
	if c.Stream.SendBuffer <= 0 {
		return errors.New("config: stream.sendBuffer must be positive")
	}
	return nil
}

// applyDefaults fills blocks that were omitted from the file.
func (c *Config) applyDefaults() {
	def := poller.DefaultConfig()
	if c.Poller.Interval == 0 {
		c.Poller.Interval = def.Interval
	}
	if c.Poller.Timeout == 0 {
		c.Poller.Timeout = def.Timeout
	}
	if c.Poller.TopN == 0 {
		c.Poller.TopN = def.Query.PerPage
	}
	if strings.TrimSpace(c.Poller.Currency) == "" {
		c.Poller.Currency = def.Query.Currency
	}
	if strings.TrimSpace(c.Poller.Order) == "" {
		c.Poller.Order = def.Query.Order
	}
	if strings.TrimSpace(c.Focus.Default) == "" {
		c.Focus.Default = selection.DefaultFocus
	}
	if c.Focus.ExchangeLimit == 0 {
		c.Focus.ExchangeLimit = selection.DefaultExchangeLimit
	}
	if c.Stream.SendBuffer == 0 {
		c.Stream.SendBuffer = 16
	}
}

func (c *Config) validatePoller() error {
	if c.Poller.Interval <= 0 {
		return errors.New("config: poller.interval must be positive")
	}
	if c.Poller.Timeout <= 0 {
		return errors.New("config: poller.timeout must be positive")
	}
	if c.Poller.Timeout > c.Poller.Interval {
		return errors.New("config: poller.timeout must not exceed poller.interval")
	}
	if c.Poller.TopN <= 0 || c.Poller.TopN > 250 {
		return errors.New("config: poller.topN must be within 1..250")
	}
	return nil
}

func (c *Config) validateFocus() error {
	if c.Focus.ExchangeLimit <= 0 {
		return errors.New("config: focus.exchangeLimit must be positive")
	}
	return nil
}

func (c *Config) hydrateSections() error {
	if err := c.Market.Hydrate(c.baseDir, marketpkg.LoadConfig); err != nil {
		return fmt.Errorf("load market config: %w", err)
	}
	return nil
}

// PollerConfig converts the poller block into poller.Config.
func (c *Config) PollerConfig() poller.Config {
	return poller.Config{
		Interval: c.Poller.Interval,
		Timeout:  c.Poller.Timeout,
		Query: marketpkg.MoversQuery{
			Currency:  c.Poller.Currency,
			Order:     c.Poller.Order,
			PerPage:   c.Poller.TopN,
			Page:      1,
			Sparkline: true,
		},
	}
}

// SelectionOptions converts the focus block into view model options.
func (c *Config) SelectionOptions() []selection.Option {
	return []selection.Option{
		selection.WithDefaultFocus(c.Focus.Default),
		selection.WithExchangeLimit(c.Focus.ExchangeLimit),
		selection.WithFetchTimeout(c.Focus.FetchTimeout),
	}
}

func (c *Config) MainPath() string {
	return c.mainPath
}

func (c *Config) BaseDir() string {
	return c.baseDir
}
