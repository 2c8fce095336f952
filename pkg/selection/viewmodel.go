package selection

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"cryptodash/pkg/market"
)

const (
	// DefaultFocus is the asset shown in detail until the user picks another.
	DefaultFocus = "btc"
	// DefaultExchangeLimit caps the focused asset's exchange list.
	DefaultExchangeLimit = 10

	defaultFetchTimeout = 10 * time.Second
)

// ExchangeSource lists the venues a coin trades on. market.Provider satisfies it.
type ExchangeSource interface {
	Tickers(ctx context.Context, coinID string, limit int) ([]market.ExchangeTicker, error)
}

// Option customises a ViewModel.
type Option func(*ViewModel)

// WithDefaultFocus overrides DefaultFocus.
func WithDefaultFocus(id string) Option {
	return func(vm *ViewModel) {
		if key := market.NormalizeKey(id); key != "" {
			vm.defaultFocus = key
		}
	}
}

// WithExchangeLimit overrides DefaultExchangeLimit.
func WithExchangeLimit(n int) Option {
	return func(vm *ViewModel) {
		if n > 0 {
			vm.limit = n
		}
	}
}

// WithFetchTimeout bounds each exchange list fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(vm *ViewModel) {
		if d > 0 {
			vm.timeout = d
		}
	}
}

// ViewModel tracks the focused asset and derives the focused/others split
// from the current snapshot. Derived views are computed on every call.
type ViewModel struct {
	exchanges    ExchangeSource
	defaultFocus string
	limit        int
	timeout      time.Duration

	snapshot atomic.Pointer[market.Snapshot]
	events   *dispatcher

	life context.Context
	kill context.CancelFunc
	wg   sync.WaitGroup

	mu           sync.RWMutex
	focus        string
	closed       bool
	exchangeCoin string // coin id the list below belongs to, "" when focus is absent
	exchangeList []market.ExchangeTicker
	loading      bool
	fetchSeq     uint64
	fetchCancel  context.CancelFunc
}

// New creates a view model focused on the default asset with an empty snapshot.
func New(exchanges ExchangeSource, opts ...Option) *ViewModel {
	vm := &ViewModel{
		exchanges:    exchanges,
		defaultFocus: DefaultFocus,
		limit:        DefaultExchangeLimit,
		timeout:      defaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(vm)
	}
	vm.focus = vm.defaultFocus
	vm.life, vm.kill = context.WithCancel(context.Background())
	vm.events = newDispatcher()
	empty := market.Snapshot{}
	vm.snapshot.Store(&empty)
	return vm
}

// Select focuses the given identifier. Unknown identifiers are accepted;
// Focused then reports no asset until one with that identifier appears.
func (vm *ViewModel) Select(id string) {
	vm.setFocus(market.NormalizeKey(id))
}

// Reset returns the focus to the default asset.
func (vm *ViewModel) Reset() {
	vm.setFocus(vm.defaultFocus)
}

func (vm *ViewModel) setFocus(key string) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.closed || key == vm.focus {
		return
	}
	vm.focus = key
	vm.publishLocked(EventFocus)
	vm.syncExchangesLocked()
}

// Focus returns the focused identifier.
func (vm *ViewModel) Focus() string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.focus
}

// IsDefault reports whether the focus is the default asset.
func (vm *ViewModel) IsDefault() bool {
	return vm.Focus() == vm.defaultFocus
}

// DefaultFocus returns the identifier Reset returns to.
func (vm *ViewModel) DefaultFocus() string {
	return vm.defaultFocus
}

// CurrentSnapshot returns the most recent snapshot.
func (vm *ViewModel) CurrentSnapshot() market.Snapshot {
	return *vm.snapshot.Load()
}

// View is one consistent reading of the view model. Focused and Others are
// derived from the same Snapshot and Focus.
type View struct {
	Snapshot  market.Snapshot
	Focus     string
	IsDefault bool
	Focused   market.Asset
	Found     bool
	Others    []market.Asset
	Exchanges []market.ExchangeTicker
	Loading   bool
}

// View reads the snapshot, focus, derived split and exchange list under a
// single lock so no change can land between them.
func (vm *ViewModel) View() View {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	s := *vm.snapshot.Load()
	v := View{
		Snapshot:  s,
		Focus:     vm.focus,
		IsDefault: vm.focus == vm.defaultFocus,
		Others:    s.Without(vm.focus),
		Exchanges: append([]market.ExchangeTicker(nil), vm.exchangeList...),
		Loading:   vm.loading,
	}
	v.Focused, v.Found = s.Find(vm.focus)
	return v
}

// Focused returns the focused asset if the current snapshot contains it.
func (vm *ViewModel) Focused() (market.Asset, bool) {
	v := vm.View()
	return v.Focused, v.Found
}

// Others returns the current snapshot without the focused asset, in
// snapshot order. When the focus is absent the full snapshot is returned.
func (vm *ViewModel) Others() []market.Asset {
	return vm.View().Others
}

// Exchanges returns a copy of the focused asset's exchange list.
func (vm *ViewModel) Exchanges() []market.ExchangeTicker {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return append([]market.ExchangeTicker(nil), vm.exchangeList...)
}

// ExchangesLoading reports whether an exchange fetch is in flight.
func (vm *ViewModel) ExchangesLoading() bool {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.loading
}

// HandleSnapshot installs a new snapshot. Snapshots older than the current
// one are ignored.
func (vm *ViewModel) HandleSnapshot(s market.Snapshot) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.closed {
		return
	}
	if cur := vm.snapshot.Load(); s.Seq != 0 && s.Seq <= cur.Seq {
		return
	}
	vm.snapshot.Store(&s)
	vm.publishLocked(EventSnapshot)
	vm.syncExchangesLocked()
}

// Subscribe registers fn for change notifications. Events are delivered
// from a single goroutine in the order the changes happened.
func (vm *ViewModel) Subscribe(fn func(Event)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	return vm.events.subscribe(fn)
}

// Close cancels in-flight exchange fetches and stops notifications once
// already queued events are delivered. Must not be called from a subscriber.
func (vm *ViewModel) Close() {
	vm.mu.Lock()
	if vm.closed {
		vm.mu.Unlock()
		return
	}
	vm.closed = true
	if vm.fetchCancel != nil {
		vm.fetchCancel()
	}
	vm.kill()
	vm.mu.Unlock()

	vm.wg.Wait()
	vm.events.close()
}

func (vm *ViewModel) publishLocked(t EventType) {
	vm.events.publish(Event{Type: t, Seq: vm.snapshot.Load().Seq, Focus: vm.focus})
}

// syncExchangesLocked starts a fetch when the focused asset's coin id
// changed since the last fetch. Polls that keep the same coin do nothing.
func (vm *ViewModel) syncExchangesLocked() {
	coin := ""
	if asset, ok := vm.snapshot.Load().Find(vm.focus); ok {
		coin = asset.ID
	}
	if coin == vm.exchangeCoin {
		return
	}

	vm.exchangeCoin = coin
	vm.fetchSeq++
	if vm.fetchCancel != nil {
		vm.fetchCancel()
		vm.fetchCancel = nil
	}
	hadList := len(vm.exchangeList) > 0
	vm.exchangeList = nil
	vm.loading = false
	if hadList {
		vm.publishLocked(EventExchanges)
	}
	if coin == "" || vm.exchanges == nil {
		return
	}

	ctx, cancel := context.WithTimeout(vm.life, vm.timeout)
	vm.fetchCancel = cancel
	vm.loading = true
	vm.wg.Add(1)
	go vm.fetchExchanges(ctx, cancel, vm.fetchSeq, coin)
}

func (vm *ViewModel) fetchExchanges(ctx context.Context, cancel context.CancelFunc, seq uint64, coin string) {
	defer vm.wg.Done()
	defer cancel()

	tickers, err := vm.exchanges.Tickers(ctx, coin, vm.limit)
	if err != nil {
		logx.WithContext(ctx).Errorf("selection: exchanges for %s failed: %v", coin, err)
		tickers = nil
	}
	if len(tickers) > vm.limit {
		tickers = tickers[:vm.limit]
	}

	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.closed || seq != vm.fetchSeq {
		logx.WithContext(ctx).Debugf("selection: discarded exchanges for %s (seq=%d current=%d)", coin, seq, vm.fetchSeq)
		return
	}
	vm.exchangeList = append([]market.ExchangeTicker(nil), tickers...)
	vm.loading = false
	vm.fetchCancel = nil
	vm.publishLocked(EventExchanges)
}
