package market_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	market "cryptodash/pkg/market"
	_ "cryptodash/pkg/market/exchanges/coingecko"
)

func TestLoadMarketConfig(t *testing.T) {
	dir := t.TempDir()
	configYAML := `
default: coingecko
providers:
  coingecko:
    type: coingecko
    base_url: https://api.coingecko.com/api/v3
    timeout: 6s
    http_timeout: 12s
    max_retries: 4
`
	path := filepath.Join(dir, "market.yaml")
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := market.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Default != "coingecko" {
		t.Fatalf("unexpected default: %s", cfg.Default)
	}
	p := cfg.Providers["coingecko"]
	if p.MaxRetries != 4 {
		t.Fatalf("max_retries = %d, want 4", p.MaxRetries)
	}

	providers, err := cfg.BuildProviders()
	if err != nil {
		t.Fatalf("BuildProviders error: %v", err)
	}
	if len(providers) != 1 {
		t.Fatalf("expected 1 provider, got %d", len(providers))
	}
	if _, ok := providers["coingecko"]; !ok {
		t.Fatalf("provider map missing coingecko")
	}
}

// Ensures env placeholders are expanded and durations parsed.
func TestMarketConfig_EnvExpansionAndDurations(t *testing.T) {
	t.Setenv("CG_BASE_URL", "https://api.coingecko.test/api/v3")
	t.Setenv("TOUT", "9s")
	t.Setenv("HTTP_TOUT", "13s")

	cfg, err := market.LoadConfigFromReader(strings.NewReader(`
default: cg
providers:
  cg:
    type: coingecko
    base_url: ${CG_BASE_URL}
    timeout: ${TOUT}
    http_timeout: ${HTTP_TOUT}
`))
	if err != nil {
		t.Fatalf("LoadConfigFromReader: %v", err)
	}
	p := cfg.Providers["cg"]
	if p == nil {
		t.Fatalf("provider cg missing")
	}
	if p.BaseURL != "https://api.coingecko.test/api/v3" {
		t.Fatalf("BaseURL not expanded, got %q", p.BaseURL)
	}
	if p.Timeout.String() != "9s" || p.HTTPTimeout.String() != "13s" {
		t.Fatalf("durations not parsed, timeout=%s http_timeout=%s", p.Timeout, p.HTTPTimeout)
	}
}

func TestMarketConfigInvalidType(t *testing.T) {
	_, err := market.LoadConfigFromReader(strings.NewReader(`
providers:
  demo:
    type: foobar
`))
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Fatalf("expected unsupported type error, got %v", err)
	}
}

func TestMarketConfigRejectsBadDurations(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unparseable timeout",
			yaml: "providers:\n  cg:\n    type: coingecko\n    timeout: soon\n",
			want: "invalid timeout",
		},
		{
			name: "negative http timeout",
			yaml: "providers:\n  cg:\n    type: coingecko\n    http_timeout: -1s\n",
			want: "http_timeout must be positive",
		},
		{
			name: "unknown default",
			yaml: "default: other\nproviders:\n  cg:\n    type: coingecko\n",
			want: "not defined",
		},
		{
			name: "no providers",
			yaml: "default: \"\"\n",
			want: "providers cannot be empty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := market.LoadConfigFromReader(strings.NewReader(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestDefaultProviderSingleEntry(t *testing.T) {
	cfg, err := market.LoadConfigFromReader(strings.NewReader(`
providers:
  only:
    type: coingecko
`))
	if err != nil {
		t.Fatalf("LoadConfigFromReader: %v", err)
	}
	provider, err := cfg.DefaultProvider()
	if err != nil {
		t.Fatalf("DefaultProvider: %v", err)
	}
	if provider == nil {
		t.Fatalf("expected provider")
	}
}
