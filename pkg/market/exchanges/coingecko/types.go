package coingecko

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"cryptodash/pkg/market"
)

// marketRow mirrors one element of the /coins/markets payload.
type marketRow struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Image  string `json:"image"`

	CurrentPrice             decimal.NullDecimal `json:"current_price"`
	MarketCap                decimal.NullDecimal `json:"market_cap"`
	MarketCapRank            *int                `json:"market_cap_rank"`
	TotalVolume              decimal.NullDecimal `json:"total_volume"`
	High24h                  decimal.NullDecimal `json:"high_24h"`
	Low24h                   decimal.NullDecimal `json:"low_24h"`
	PriceChangePercentage24h *float64            `json:"price_change_percentage_24h"`
	CirculatingSupply        decimal.NullDecimal `json:"circulating_supply"`
	TotalSupply              decimal.NullDecimal `json:"total_supply"`

	SparklineIn7d *struct {
		Price []float64 `json:"price"`
	} `json:"sparkline_in_7d"`
}

// toAsset converts the wire row, rejecting rows without a price.
func (r marketRow) toAsset() (market.Asset, error) {
	if !r.CurrentPrice.Valid {
		return market.Asset{}, fmt.Errorf("%w: %q has no current_price", market.ErrMalformedResponse, r.ID)
	}
	asset := market.Asset{
		ID:                r.ID,
		Symbol:            strings.ToLower(strings.TrimSpace(r.Symbol)),
		Name:              r.Name,
		Image:             r.Image,
		CurrentPrice:      r.CurrentPrice.Decimal,
		MarketCap:         orZero(r.MarketCap),
		TotalVolume:       orZero(r.TotalVolume),
		High24h:           orZero(r.High24h),
		Low24h:            orZero(r.Low24h),
		CirculatingSupply: orZero(r.CirculatingSupply),
		TotalSupply:       r.TotalSupply,
	}
	if r.MarketCapRank != nil {
		asset.MarketCapRank = *r.MarketCapRank
	}
	if r.PriceChangePercentage24h != nil {
		asset.PriceChangePercentage24h = *r.PriceChangePercentage24h
	}
	if r.SparklineIn7d != nil {
		asset.Sparkline = append([]float64(nil), r.SparklineIn7d.Price...)
	}
	return asset, nil
}

func orZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}
