package logic

import (
	"context"
	"errors"

	"github.com/zeromicro/go-zero/core/logx"

	"cryptodash/internal/svc"
	"cryptodash/internal/types"
	"cryptodash/pkg/display"
	"cryptodash/pkg/market"
	"cryptodash/pkg/selection"
)

var (
	// ErrFocusAbsent means the focused asset is not in the current snapshot.
	ErrFocusAbsent = errors.New("focused asset is not in the current snapshot")
	// ErrEmptyID rejects focus requests without an identifier.
	ErrEmptyID = errors.New("id is required")
)

type FocusLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewFocusLogic(ctx context.Context, svcCtx *svc.ServiceContext) *FocusLogic {
	return &FocusLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *FocusLogic) Focus() (*types.FocusResponse, error) {
	return focusResponse(l.svcCtx.Selection.View()), nil
}

func (l *FocusLogic) Select(req *types.FocusRequest) (*types.FocusResponse, error) {
	id := market.NormalizeKey(req.Id)
	if id == "" {
		return nil, ErrEmptyID
	}
	l.svcCtx.Selection.Select(id)
	l.Infof("focus set to %s", id)
	return l.Focus()
}

func (l *FocusLogic) Reset() (*types.FocusResponse, error) {
	l.svcCtx.Selection.Reset()
	return l.Focus()
}

func (l *FocusLogic) Others() (*types.OthersResponse, error) {
	v := l.svcCtx.Selection.View()
	return &types.OthersResponse{
		Seq:    v.Snapshot.Seq,
		Focus:  v.Focus,
		Assets: nonNil(v.Others),
	}, nil
}

func (l *FocusLogic) Exchanges() (*types.ExchangesResponse, error) {
	v := l.svcCtx.Selection.View()
	exchanges := v.Exchanges
	if exchanges == nil {
		exchanges = []market.ExchangeTicker{}
	}
	return &types.ExchangesResponse{
		Focus:     v.Focus,
		Loading:   v.Loading,
		Exchanges: exchanges,
	}, nil
}

func (l *FocusLogic) Detail() (*types.DetailResponse, error) {
	v := l.svcCtx.Selection.View()
	if !v.Found {
		return nil, ErrFocusAbsent
	}
	return &types.DetailResponse{
		Focus:  v.Focused.Key(),
		Detail: display.Detail(v.Focused, v.Snapshot, v.Exchanges),
	}, nil
}

func (l *FocusLogic) Cards() (*types.CardsResponse, error) {
	v := l.svcCtx.Selection.View()
	resp := &types.CardsResponse{
		Seq:   v.Snapshot.Seq,
		Cards: display.Cards(v.Others),
	}
	if v.Found {
		card := display.Card(v.Focused)
		resp.Focused = &card
	}
	return resp, nil
}

func focusResponse(v selection.View) *types.FocusResponse {
	resp := &types.FocusResponse{
		Focus:     v.Focus,
		IsDefault: v.IsDefault,
		Found:     v.Found,
	}
	if v.Found {
		asset := v.Focused
		resp.Asset = &asset
	}
	return resp
}

func nonNil(assets []market.Asset) []market.Asset {
	if assets == nil {
		return []market.Asset{}
	}
	return assets
}
