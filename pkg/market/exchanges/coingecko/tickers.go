package coingecko

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"cryptodash/pkg/market"
)

const exchangeImageURL = "https://www.coingecko.com/exchanges/%s.png"

// parseTickers reduces a /coins/{id}/tickers payload to the fields the
// dashboard shows. Only the first limit tickers are kept (limit <= 0 keeps all).
func parseTickers(body []byte, limit int) ([]market.ExchangeTicker, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: tickers payload is not valid json", market.ErrMalformedResponse)
	}
	tickers := gjson.GetBytes(body, "tickers")
	if !tickers.IsArray() {
		return nil, fmt.Errorf("%w: tickers payload has no tickers array", market.ErrMalformedResponse)
	}

	capacity := int(tickers.Get("#").Int())
	if limit > 0 && limit < capacity {
		capacity = limit
	}
	out := make([]market.ExchangeTicker, 0, capacity)
	tickers.ForEach(func(_, t gjson.Result) bool {
		if limit > 0 && len(out) >= limit {
			return false
		}
		id := t.Get("market.identifier").String()
		score, label := trustScore(t.Get("trust_score"))
		out = append(out, market.ExchangeTicker{
			ExchangeID: id,
			Name:       t.Get("market.name").String(),
			TradeURL:   t.Get("trade_url").String(),
			Image:      exchangeImage(id),
			TrustScore: score,
			TrustLabel: label,
			VolumeUSD:  t.Get("converted_volume.usd").Float(),
		})
		return true
	})
	return out, nil
}

// trustScore returns the numeric score, or 0 with the raw label when the
// upstream reports a colour grade or nothing at all.
func trustScore(r gjson.Result) (float64, string) {
	switch r.Type {
	case gjson.Number:
		return r.Float(), ""
	case gjson.String:
		if f, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64); err == nil {
			return f, ""
		}
		return 0, r.Str
	default:
		return 0, ""
	}
}

func exchangeImage(id string) string {
	if id == "" {
		return ""
	}
	return fmt.Sprintf(exchangeImageURL, id)
}
