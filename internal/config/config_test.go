package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "cryptodash/internal/config"
	_ "cryptodash/pkg/market/exchanges/coingecko"
)

const marketYAML = `
default: gecko
providers:
  gecko:
    type: coingecko
    base_url: ${CG_BASE_URL}
    timeout: 3s
    max_retries: 1
`

func writeConfig(t *testing.T, mainYAML string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "market.yaml"), []byte(marketYAML), 0o600))
	mainPath := filepath.Join(dir, "cryptodash.yaml")
	require.NoError(t, os.WriteFile(mainPath, []byte(mainYAML), 0o600))
	return mainPath
}

func TestLoadFullConfig(t *testing.T) {
	t.Setenv("CG_BASE_URL", "https://gecko.example/api/v3")
	path := writeConfig(t, `
Name: test
Host: 127.0.0.1
Port: 0
Env: dev
Poller:
  Interval: 30s
  Timeout: 5s
  TopN: 20
  Currency: eur
  Order: market_cap_desc
Focus:
  Default: ETH
  ExchangeLimit: 5
  FetchTimeout: 2s
Stream:
  SendBuffer: 8
  WriteTimeout: 1s
  PingInterval: 10s
Market:
  File: market.yaml
`)

	cfg, err := appconfig.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.False(t, cfg.IsTestEnv())
	assert.Equal(t, filepath.Dir(path), cfg.BaseDir())
	assert.Equal(t, path, cfg.MainPath())

	pc := cfg.PollerConfig()
	assert.Equal(t, 30*time.Second, pc.Interval)
	assert.Equal(t, 5*time.Second, pc.Timeout)
	assert.Equal(t, 20, pc.Query.PerPage)
	assert.Equal(t, "eur", pc.Query.Currency)
	assert.Equal(t, "market_cap_desc", pc.Query.Order)
	assert.True(t, pc.Query.Sparkline)

	assert.Equal(t, "ETH", cfg.Focus.Default)
	assert.Len(t, cfg.SelectionOptions(), 3)
	assert.Equal(t, 8, cfg.Stream.SendBuffer)

	require.NotNil(t, cfg.Market.Value)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "market.yaml"), cfg.Market.File)
	gecko := cfg.Market.Value.Providers["gecko"]
	require.NotNil(t, gecko)
	assert.Equal(t, "https://gecko.example/api/v3", gecko.BaseURL)
	assert.Equal(t, 3*time.Second, gecko.Timeout)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
Name: test
Host: 127.0.0.1
Port: 0
Market:
  File: market.yaml
`)

	cfg, err := appconfig.Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsTestEnv())
	assert.Equal(t, 60*time.Second, cfg.Poller.Interval)
	assert.Equal(t, 10*time.Second, cfg.Poller.Timeout)
	assert.Equal(t, 11, cfg.Poller.TopN)
	assert.Equal(t, "usd", cfg.Poller.Currency)
	assert.Equal(t, "price_change_percentage_24h_desc", cfg.Poller.Order)
	assert.Equal(t, "btc", cfg.Focus.Default)
	assert.Equal(t, 10, cfg.Focus.ExchangeLimit)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *appconfig.Config)
	}{
		{name: "unknown env", mutate: func(c *appconfig.Config) { c.Env = "staging" }},
		{name: "negative interval", mutate: func(c *appconfig.Config) { c.Poller.Interval = -time.Second }},
		{name: "timeout beyond interval", mutate: func(c *appconfig.Config) { c.Poller.Timeout = 2 * time.Minute }},
		{name: "too many assets", mutate: func(c *appconfig.Config) { c.Poller.TopN = 500 }},
		{name: "negative exchange limit", mutate: func(c *appconfig.Config) { c.Focus.ExchangeLimit = -1 }},
		{name: "negative send buffer", mutate: func(c *appconfig.Config) { c.Stream.SendBuffer = -4 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &appconfig.Config{Env: "test"}
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	ok := &appconfig.Config{}
	require.NoError(t, ok.Validate())
	assert.Equal(t, "test", ok.Env)
}

func TestLoadRejectsBrokenMarketSection(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "market.yaml"), []byte("providers:\n  x:\n    type: nope\n"), 0o600))
	mainPath := filepath.Join(dir, "cryptodash.yaml")
	require.NoError(t, os.WriteFile(mainPath, []byte("Name: t\nHost: 127.0.0.1\nPort: 0\nMarket:\n  File: market.yaml\n"), 0o600))

	_, err := appconfig.Load(mainPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load market config")
}
