package display

import (
	"fmt"
	"math"
	"strings"

	"cryptodash/pkg/market"
	"cryptodash/pkg/market/indicators"
)

// CardView is the summary card of one asset.
type CardView struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Symbol string      `json:"symbol"`
	Name   string      `json:"name"`
	Image  string      `json:"image"`
	Price  string      `json:"price"`
	Change ChangeBadge `json:"change"`
}

// MetadataItem is one labelled row of the detail panel.
type MetadataItem struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ExchangeRow is one venue in the detail panel.
type ExchangeRow struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	URL    string `json:"url,omitempty"`
	Image  string `json:"image,omitempty"`
	Volume string `json:"volume"`
	Trust  string `json:"trust"`
}

// DetailView is the full detail panel of the focused asset.
type DetailView struct {
	CardView
	Metadata  []MetadataItem `json:"metadata"`
	Rank      string         `json:"rank"`
	Dominance string         `json:"dominance"`
	Chart     []ChartPoint   `json:"chart"`
	ChartMin  float64        `json:"chartMin"`
	ChartMax  float64        `json:"chartMax"`
	Trend     []MetadataItem `json:"trend,omitempty"`
	Exchanges []ExchangeRow  `json:"exchanges"`
}

// Card builds the summary card for a.
func Card(a market.Asset) CardView {
	return CardView{
		ID:     a.ID,
		Key:    a.Key(),
		Symbol: strings.ToUpper(a.Symbol),
		Name:   a.Name,
		Image:  a.Image,
		Price:  Money(a.CurrentPrice),
		Change: Change(a.PriceChangePercentage24h),
	}
}

// Cards builds cards in input order.
func Cards(assets []market.Asset) []CardView {
	out := make([]CardView, 0, len(assets))
	for _, a := range assets {
		out = append(out, Card(a))
	}
	return out
}

// Detail builds the detail panel for a within snapshot s.
func Detail(a market.Asset, s market.Snapshot, exchanges []market.ExchangeTicker) DetailView {
	lo, hi, _ := Domain(a.Sparkline)
	view := DetailView{
		CardView: Card(a),
		Metadata: []MetadataItem{
			{Label: "Market Cap", Value: Money(a.MarketCap)},
			{Label: "24h Volume", Value: Money(a.TotalVolume)},
			{Label: "24h High", Value: Money(a.High24h)},
			{Label: "24h Low", Value: Money(a.Low24h)},
			{Label: "Circulating Supply", Value: Supply(a)},
			{Label: "Total Supply", Value: TotalSupply(a)},
		},
		Rank:      Rank(a),
		Dominance: Dominance(a, s),
		Chart:     SparklineSeries(a.Sparkline),
		ChartMin:  lo,
		ChartMax:  hi,
		Trend:     Trend(a.Sparkline),
		Exchanges: make([]ExchangeRow, 0, len(exchanges)),
	}
	for _, t := range exchanges {
		view.Exchanges = append(view.Exchanges, ExchangeRow{
			ID:     t.ExchangeID,
			Name:   t.Name,
			URL:    t.TradeURL,
			Image:  t.Image,
			Volume: MoneyFloat(t.VolumeUSD),
			Trust:  Trust(t),
		})
	}
	return view
}

// Trend formats the sparkline indicators. Nil when the sparkline is too short.
func Trend(prices []float64) []MetadataItem {
	t, ok := indicators.Summarize(prices)
	if !ok {
		return nil
	}
	return []MetadataItem{
		{Label: "7d Change", Value: fmt.Sprintf("%+.2f%%", t.Change)},
		{Label: fmt.Sprintf("EMA (%dh)", indicators.EMAPeriod), Value: orDash(t.EMA, MoneyFloat)},
		{Label: fmt.Sprintf("RSI (%dh)", indicators.RSIPeriod), Value: orDash(t.RSI, func(v float64) string {
			return fmt.Sprintf("%.1f", v)
		})},
		{Label: "Volatility", Value: fmt.Sprintf("%.2f%%", t.Volatility)},
	}
}

func orDash(v float64, format func(float64) string) string {
	if math.IsNaN(v) {
		return "-"
	}
	return format(v)
}
