package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"cryptodash/internal/svc"
	"cryptodash/internal/types"
)

type SnapshotLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewSnapshotLogic(ctx context.Context, svcCtx *svc.ServiceContext) *SnapshotLogic {
	return &SnapshotLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *SnapshotLogic) Snapshot() (*types.SnapshotResponse, error) {
	s := l.svcCtx.Selection.View().Snapshot
	return &types.SnapshotResponse{
		Seq:       s.Seq,
		FetchedAt: s.FetchedAt,
		Assets:    nonNil(s.Assets),
		Status:    l.svcCtx.Poller.Status(),
	}, nil
}

func (l *SnapshotLogic) Status() (*types.StatusResponse, error) {
	v := l.svcCtx.Selection.View()
	return &types.StatusResponse{
		Poller:  l.svcCtx.Poller.Status(),
		Seq:     v.Snapshot.Seq,
		Focus:   v.Focus,
		Clients: l.svcCtx.Stream.Clients(),
	}, nil
}

// Refresh runs an out-of-band poll and reports the resulting status.
func (l *SnapshotLogic) Refresh() (*types.StatusResponse, error) {
	if err := l.svcCtx.Poller.Refresh(l.ctx); err != nil {
		l.Errorf("manual refresh failed: %v", err)
		return nil, err
	}
	return l.Status()
}
