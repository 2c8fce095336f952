// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package types

import (
	"time"

	"cryptodash/pkg/display"
	"cryptodash/pkg/market"
	"cryptodash/pkg/poller"
)

type SnapshotResponse struct {
	Seq       uint64         `json:"seq"`
	FetchedAt time.Time      `json:"fetchedAt"`
	Assets    []market.Asset `json:"assets"`
	Status    poller.Status  `json:"status"`
}

type FocusRequest struct {
	Id string `json:"id"`
}

type FocusResponse struct {
	Focus     string        `json:"focus"`
	IsDefault bool          `json:"isDefault"`
	Found     bool          `json:"found"`
	Asset     *market.Asset `json:"asset,omitempty"`
}

type OthersResponse struct {
	Seq    uint64         `json:"seq"`
	Focus  string         `json:"focus"`
	Assets []market.Asset `json:"assets"`
}

type ExchangesResponse struct {
	Focus     string                  `json:"focus"`
	Loading   bool                    `json:"loading"`
	Exchanges []market.ExchangeTicker `json:"exchanges"`
}

type CardsResponse struct {
	Seq     uint64             `json:"seq"`
	Focused *display.CardView  `json:"focused,omitempty"`
	Cards   []display.CardView `json:"cards"`
}

type DetailResponse struct {
	Focus  string             `json:"focus"`
	Detail display.DetailView `json:"detail"`
}

type StatusResponse struct {
	Poller  poller.Status `json:"poller"`
	Seq     uint64        `json:"seq"`
	Focus   string        `json:"focus"`
	Clients int           `json:"clients"`
}

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
