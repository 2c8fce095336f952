package config

import (
	"cryptodash/pkg/market"
)

// MustLoadMarket loads etc/market.yaml from the project root and panics on error.
// It lets tools that only need the market providers skip the main config.
func MustLoadMarket() *market.Config {
	return market.MustLoad()
}
