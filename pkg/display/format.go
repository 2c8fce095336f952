package display

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"cryptodash/pkg/market"
)

const (
	fractionDigits = 3
	unlimited      = "Unlimited"
)

// ChangeBadge is the 24h change indicator shown next to a price.
type ChangeBadge struct {
	Up      bool    `json:"up"`
	Text    string  `json:"text"`    // Absolute value, e.g. "2.35%"
	Percent float64 `json:"percent"` // Signed raw value
}

// Amount groups thousands and keeps at most three fraction digits.
func Amount(d decimal.Decimal) string {
	r := d.Round(fractionDigits)
	sign := ""
	if r.IsNegative() {
		sign = "-"
		r = r.Abs()
	}
	whole := r.Truncate(0)
	out := sign + humanize.BigComma(whole.BigInt())
	if frac := r.Sub(whole); !frac.IsZero() {
		out += strings.TrimPrefix(frac.String(), "0")
	}
	return out
}

// AmountFloat is Amount for values the upstream reports as floats.
func AmountFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "0"
	}
	return Amount(decimal.NewFromFloat(f))
}

// Money renders a USD value, e.g. "$67,123.45".
func Money(d decimal.Decimal) string {
	s := Amount(d)
	if strings.HasPrefix(s, "-") {
		return "-$" + s[1:]
	}
	return "$" + s
}

// MoneyFloat is Money for float values.
func MoneyFloat(f float64) string {
	s := AmountFloat(f)
	if strings.HasPrefix(s, "-") {
		return "-$" + s[1:]
	}
	return "$" + s
}

// Change builds the badge for a signed 24h percentage.
func Change(pct float64) ChangeBadge {
	return ChangeBadge{
		Up:      pct > 0,
		Text:    fmt.Sprintf("%.2f%%", math.Abs(pct)),
		Percent: pct,
	}
}

// Supply renders the circulating supply with the upper-case ticker.
func Supply(a market.Asset) string {
	return Amount(a.CirculatingSupply) + " " + strings.ToUpper(a.Symbol)
}

// TotalSupply renders the total supply, or "Unlimited" when the asset has none.
func TotalSupply(a market.Asset) string {
	if !a.TotalSupply.Valid || a.TotalSupply.Decimal.IsZero() {
		return unlimited
	}
	return Amount(a.TotalSupply.Decimal) + " " + strings.ToUpper(a.Symbol)
}

// Dominance is the asset's share of the snapshot's total market cap.
func Dominance(a market.Asset, s market.Snapshot) string {
	total := s.TotalMarketCap()
	if total.IsZero() {
		return "0.00%"
	}
	return a.MarketCap.Div(total).Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}

// Rank renders the market cap rank, "-" when unknown.
func Rank(a market.Asset) string {
	if a.MarketCapRank <= 0 {
		return "-"
	}
	return fmt.Sprintf("#%d", a.MarketCapRank)
}

// Trust renders an exchange trust score out of ten.
func Trust(t market.ExchangeTicker) string {
	return fmt.Sprintf("%s/10", humanize.Ftoa(t.TrustScore))
}
