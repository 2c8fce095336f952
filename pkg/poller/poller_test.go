package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cryptodash/pkg/market"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) TopMovers(ctx context.Context, q market.MoversQuery) ([]market.Asset, error) {
	args := m.Called(ctx, q)
	assets, _ := args.Get(0).([]market.Asset)
	return assets, args.Error(1)
}

func (m *mockProvider) Tickers(ctx context.Context, coinID string, limit int) ([]market.ExchangeTicker, error) {
	args := m.Called(ctx, coinID, limit)
	tickers, _ := args.Get(0).([]market.ExchangeTicker)
	return tickers, args.Error(1)
}

func assets(symbols ...string) []market.Asset {
	out := make([]market.Asset, 0, len(symbols))
	for i, sym := range symbols {
		out = append(out, market.Asset{
			ID:           sym + "-coin",
			Symbol:       sym,
			Name:         sym,
			CurrentPrice: decimal.NewFromInt(int64(100 + i)),
		})
	}
	return out
}

const testInterval = time.Minute

type harness struct {
	poller   *Poller
	provider *mockProvider
	clock    *clock.Mock
	results  chan Result

	mu      sync.Mutex
	applied []market.Snapshot
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		provider: &mockProvider{},
		clock:    clock.NewMock(),
		results:  make(chan Result, 32),
	}
	h.poller = New(Config{Interval: testInterval, Timeout: 5 * time.Second}, h.provider,
		WithClock(h.clock),
		WithObserver(func(r Result) { h.results <- r }),
		WithHandler(SnapshotHandlerFunc(func(s market.Snapshot) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.applied = append(h.applied, s)
		})),
	)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = h.poller.Stop(ctx)
	})
	return h
}

func (h *harness) next(t *testing.T) Result {
	t.Helper()
	select {
	case r := <-h.results:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for poll result")
		return Result{}
	}
}

func (h *harness) handled() []market.Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]market.Snapshot(nil), h.applied...)
}

func TestPoller_NoFetchBeforeStart(t *testing.T) {
	h := newHarness(t)
	h.clock.Add(3 * testInterval)

	assert.True(t, h.poller.Current().Empty())
	h.provider.AssertNotCalled(t, "TopMovers", mock.Anything, mock.Anything)
}

func TestPoller_FetchesImmediatelyWithDefaultQuery(t *testing.T) {
	h := newHarness(t)
	h.provider.On("TopMovers", mock.Anything, market.DefaultMoversQuery()).Return(assets("btc"), nil).Once()

	require.NoError(t, h.poller.Start(context.Background()))
	r := h.next(t)

	assert.True(t, r.Applied)
	assert.Equal(t, uint64(1), r.Seq)
	assert.Equal(t, []string{"btc"}, h.poller.Current().Keys())
	assert.True(t, h.poller.Status().Running)
	h.provider.AssertExpectations(t)
}

func TestPoller_ReplacesSnapshotWholesale(t *testing.T) {
	h := newHarness(t)
	h.provider.On("TopMovers", mock.Anything, mock.Anything).Return(assets("btc", "eth"), nil).Once()
	h.provider.On("TopMovers", mock.Anything, mock.Anything).Return(assets("eth", "sol"), nil).Once()

	require.NoError(t, h.poller.Start(context.Background()))
	h.next(t)
	assert.Equal(t, []string{"btc", "eth"}, h.poller.Current().Keys())

	h.clock.Add(testInterval)
	r := h.next(t)
	require.True(t, r.Applied)

	current := h.poller.Current()
	assert.Equal(t, []string{"eth", "sol"}, current.Keys())
	_, ok := current.Find("btc")
	assert.False(t, ok, "btc must not survive the replacement")
	assert.Equal(t, uint64(2), current.Seq)
}

func TestPoller_FailureKeepsSnapshotAndSchedule(t *testing.T) {
	h := newHarness(t)
	boom := errors.New("network unreachable")
	h.provider.On("TopMovers", mock.Anything, mock.Anything).Return(assets("btc"), nil).Once()
	h.provider.On("TopMovers", mock.Anything, mock.Anything).Return(nil, boom).Once()
	h.provider.On("TopMovers", mock.Anything, mock.Anything).Return(assets("eth"), nil).Once()

	require.NoError(t, h.poller.Start(context.Background()))
	h.next(t)
	before := h.poller.Current()

	h.clock.Add(testInterval)
	r := h.next(t)
	require.ErrorIs(t, r.Err, boom)
	assert.False(t, r.Applied)
	assert.Equal(t, before, h.poller.Current())

	status := h.poller.Status()
	assert.Equal(t, 1, status.ConsecutiveFailures)
	assert.Contains(t, status.LastError, "network unreachable")
	assert.Equal(t, uint64(1), status.AppliedSeq)

	h.clock.Add(testInterval)
	r = h.next(t)
	require.True(t, r.Applied)
	assert.Equal(t, []string{"eth"}, h.poller.Current().Keys())
	assert.Zero(t, h.poller.Status().ConsecutiveFailures)
}

func TestPoller_RejectsDuplicateIdentifiers(t *testing.T) {
	h := newHarness(t)
	dup := append(assets("btc", "eth"), market.Asset{ID: "bitcoin-wrapped", Symbol: "BTC", CurrentPrice: decimal.NewFromInt(1)})
	h.provider.On("TopMovers", mock.Anything, mock.Anything).Return(assets("btc"), nil).Once()
	h.provider.On("TopMovers", mock.Anything, mock.Anything).Return(dup, nil).Once()

	require.NoError(t, h.poller.Start(context.Background()))
	h.next(t)

	h.clock.Add(testInterval)
	r := h.next(t)
	require.ErrorIs(t, r.Err, market.ErrMalformedResponse)
	assert.Equal(t, []string{"btc"}, h.poller.Current().Keys())
	assert.Len(t, h.handled(), 1)
}

func TestPoller_StopHaltsFurtherFetches(t *testing.T) {
	h := newHarness(t)
	h.provider.On("TopMovers", mock.Anything, mock.Anything).Return(assets("btc"), nil)

	require.NoError(t, h.poller.Start(context.Background()))
	h.next(t)
	before := h.poller.Current()

	require.NoError(t, h.poller.Stop(context.Background()))
	h.clock.Add(3 * testInterval)

	assert.Equal(t, before, h.poller.Current())
	h.provider.AssertNumberOfCalls(t, "TopMovers", 1)
	assert.False(t, h.poller.Status().Running)

	// Idempotent.
	require.NoError(t, h.poller.Stop(context.Background()))
}

func TestPoller_StopDiscardsInFlightFetch(t *testing.T) {
	h := newHarness(t)
	started := make(chan struct{})
	h.provider.On("TopMovers", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			close(started)
			<-args.Get(0).(context.Context).Done()
		}).
		Return(assets("btc"), nil).Once()

	require.NoError(t, h.poller.Start(context.Background()))
	<-started
	require.NoError(t, h.poller.Stop(context.Background()))

	r := h.next(t)
	assert.True(t, r.Discarded)
	assert.True(t, h.poller.Current().Empty())
	assert.Empty(t, h.handled())
}

func TestPoller_StaleRefreshIsDiscarded(t *testing.T) {
	h := newHarness(t)
	slowStarted := make(chan struct{})
	releaseSlow := make(chan struct{})
	h.provider.On("TopMovers", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(slowStarted)
			<-releaseSlow
		}).
		Return(assets("btc"), nil).Once()
	h.provider.On("TopMovers", mock.Anything, mock.Anything).Return(assets("eth", "sol"), nil).Once()

	slowErr := make(chan error, 1)
	go func() { slowErr <- h.poller.Refresh(context.Background()) }()
	<-slowStarted

	require.NoError(t, h.poller.Refresh(context.Background()))
	fast := h.next(t)
	require.True(t, fast.Applied)
	assert.Equal(t, uint64(2), fast.Seq)

	close(releaseSlow)
	require.NoError(t, <-slowErr)
	slow := h.next(t)
	assert.Equal(t, uint64(1), slow.Seq)
	assert.True(t, slow.Discarded)

	assert.Equal(t, []string{"eth", "sol"}, h.poller.Current().Keys())
	assert.Len(t, h.handled(), 1)
}

func TestPoller_HandlerSeesEachSnapshotOnce(t *testing.T) {
	h := newHarness(t)
	h.provider.On("TopMovers", mock.Anything, mock.Anything).Return(assets("btc"), nil).Once()
	h.provider.On("TopMovers", mock.Anything, mock.Anything).Return(assets("eth"), nil).Once()
	h.provider.On("TopMovers", mock.Anything, mock.Anything).Return(assets("sol"), nil).Once()

	require.NoError(t, h.poller.Start(context.Background()))
	h.next(t)
	for i := 0; i < 2; i++ {
		h.clock.Add(testInterval)
		h.next(t)
	}

	handled := h.handled()
	require.Len(t, handled, 3)
	for i, s := range handled {
		assert.Equal(t, uint64(i+1), s.Seq)
	}
	assert.Equal(t, []string{"sol"}, handled[2].Keys())
}

func TestPoller_Lifecycle(t *testing.T) {
	h := newHarness(t)
	h.provider.On("TopMovers", mock.Anything, mock.Anything).Return(assets("btc"), nil)

	require.NoError(t, h.poller.Start(context.Background()))
	assert.ErrorIs(t, h.poller.Start(context.Background()), ErrAlreadyRunning)
	h.next(t)

	require.NoError(t, h.poller.Stop(context.Background()))
	assert.ErrorIs(t, h.poller.Start(context.Background()), ErrStopped)
	assert.ErrorIs(t, h.poller.Refresh(context.Background()), ErrStopped)
	assert.True(t, h.poller.Status().Stopped)
}

func TestPoller_CancelledStartContextLeavesIdle(t *testing.T) {
	h := newHarness(t)
	h.provider.On("TopMovers", mock.Anything, mock.Anything).Return(assets("btc"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, h.poller.Start(ctx))
	h.next(t)
	assert.True(t, h.poller.Status().Running)

	cancel()
	require.Eventually(t, func() bool { return !h.poller.Status().Running }, 2*time.Second, 5*time.Millisecond)
	assert.False(t, h.poller.Status().Stopped)

	require.NoError(t, h.poller.Start(context.Background()))
	assert.Equal(t, uint64(2), h.next(t).Seq)
	assert.True(t, h.poller.Status().Running)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.normalized()
	assert.Equal(t, 60*time.Second, cfg.Interval)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, market.DefaultMoversQuery().PerPage, cfg.Query.PerPage)
	assert.Equal(t, "usd", cfg.Query.Currency)
	assert.True(t, cfg.Query.Sparkline)

	custom := Config{Query: market.MoversQuery{PerPage: 25}}.normalized()
	assert.Equal(t, 25, custom.Query.PerPage)
	assert.Equal(t, market.DefaultOrder, custom.Query.Order)
}
