package market

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrMalformedResponse marks upstream payloads that decode but violate the asset invariants.
	ErrMalformedResponse = errors.New("market: malformed response")
	// ErrAssetNotFound indicates the requested asset is not part of the snapshot.
	ErrAssetNotFound = errors.New("market: asset not found")
)

// Provider exposes the remote market-data source.
type Provider interface {
	// TopMovers returns assets ordered as requested by the query.
	TopMovers(ctx context.Context, query MoversQuery) ([]Asset, error)
	// Tickers returns at most limit exchange tickers for the coin id.
	Tickers(ctx context.Context, coinID string, limit int) ([]ExchangeTicker, error)
}

// MoversQuery carries the ranking parameters of a markets request.
type MoversQuery struct {
	Currency  string
	Order     string
	PerPage   int
	Page      int
	Sparkline bool
}

const (
	DefaultCurrency = "usd"
	DefaultOrder    = "price_change_percentage_24h_desc"
	DefaultPerPage  = 11
)

// DefaultMoversQuery returns the top gainers query used by the dashboard.
func DefaultMoversQuery() MoversQuery {
	return MoversQuery{
		Currency:  DefaultCurrency,
		Order:     DefaultOrder,
		PerPage:   DefaultPerPage,
		Page:      1,
		Sparkline: true,
	}
}

// Normalized fills zero fields with the defaults.
func (q MoversQuery) Normalized() MoversQuery {
	def := DefaultMoversQuery()
	if strings.TrimSpace(q.Currency) == "" {
		q.Currency = def.Currency
	}
	if strings.TrimSpace(q.Order) == "" {
		q.Order = def.Order
	}
	if q.PerPage <= 0 {
		q.PerPage = def.PerPage
	}
	if q.Page <= 0 {
		q.Page = def.Page
	}
	return q
}

// Asset is one tracked coin at a point in time.
type Asset struct {
	ID     string `json:"id"`     // CoinGecko coin id, e.g. "bitcoin"
	Symbol string `json:"symbol"` // Lower-case ticker, the focus key
	Name   string `json:"name"`
	Image  string `json:"image"`

	CurrentPrice             decimal.Decimal `json:"currentPrice"`
	PriceChangePercentage24h float64         `json:"priceChangePercentage24h"`

	MarketCap         decimal.Decimal     `json:"marketCap"`
	MarketCapRank     int                 `json:"marketCapRank"`
	TotalVolume       decimal.Decimal     `json:"totalVolume"`
	High24h           decimal.Decimal     `json:"high24h"`
	Low24h            decimal.Decimal     `json:"low24h"`
	CirculatingSupply decimal.Decimal     `json:"circulatingSupply"`
	TotalSupply       decimal.NullDecimal `json:"totalSupply"`

	Sparkline []float64 `json:"sparkline"` // Ordered oldest -> newest, 7 day window
}

// Key returns the identifier used for focus and uniqueness.
func (a Asset) Key() string {
	return NormalizeKey(a.Symbol)
}

// NormalizeKey canonicalises a user supplied identifier.
func NormalizeKey(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// ExchangeTicker describes one venue an asset trades on.
type ExchangeTicker struct {
	ExchangeID string  `json:"exchangeId"`
	Name       string  `json:"name"`
	TradeURL   string  `json:"tradeUrl"`
	Image      string  `json:"image"`
	TrustScore float64 `json:"trustScore"`           // 0 when upstream has no numeric score
	TrustLabel string  `json:"trustLabel,omitempty"` // Raw upstream label, e.g. "green"
	VolumeUSD  float64 `json:"volumeUsd"`
}

// Snapshot is the complete ordered asset list of one successful fetch.
// Installed snapshots share Assets and each Sparkline with every reader, so
// callers must treat them as read-only; use Clone for a private copy.
type Snapshot struct {
	Assets    []Asset   `json:"assets"`
	Seq       uint64    `json:"seq"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// NewSnapshot deep-copies assets into a new snapshot, so later changes to
// the input do not reach it.
func NewSnapshot(seq uint64, fetchedAt time.Time, assets []Asset) Snapshot {
	return Snapshot{Assets: cloneAssets(assets), Seq: seq, FetchedAt: fetchedAt}
}

// Clone returns a copy that shares no slices with s.
func (s Snapshot) Clone() Snapshot {
	s.Assets = cloneAssets(s.Assets)
	return s
}

func cloneAssets(assets []Asset) []Asset {
	out := make([]Asset, len(assets))
	for i, a := range assets {
		if a.Sparkline != nil {
			a.Sparkline = append([]float64(nil), a.Sparkline...)
		}
		out[i] = a
	}
	return out
}

// Empty reports whether no snapshot has been installed yet.
func (s Snapshot) Empty() bool {
	return len(s.Assets) == 0
}

// Find returns the asset with the given identifier.
func (s Snapshot) Find(key string) (Asset, bool) {
	key = NormalizeKey(key)
	if key == "" {
		return Asset{}, false
	}
	for _, asset := range s.Assets {
		if asset.Key() == key {
			return asset, true
		}
	}
	return Asset{}, false
}

// Without returns the snapshot assets minus the given identifier, preserving order.
func (s Snapshot) Without(key string) []Asset {
	key = NormalizeKey(key)
	out := make([]Asset, 0, len(s.Assets))
	for _, asset := range s.Assets {
		if key != "" && asset.Key() == key {
			continue
		}
		out = append(out, asset)
	}
	return out
}

// Keys lists identifiers in snapshot order.
func (s Snapshot) Keys() []string {
	keys := make([]string, len(s.Assets))
	for i, asset := range s.Assets {
		keys[i] = asset.Key()
	}
	return keys
}

// TotalMarketCap sums market capitalisation across the snapshot.
func (s Snapshot) TotalMarketCap() decimal.Decimal {
	total := decimal.Zero
	for _, asset := range s.Assets {
		total = total.Add(asset.MarketCap)
	}
	return total
}
