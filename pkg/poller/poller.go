package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/zeromicro/go-zero/core/logx"

	"cryptodash/pkg/market"
)

var (
	// ErrAlreadyRunning is returned by Start on a running poller.
	ErrAlreadyRunning = errors.New("poller: already running")
	// ErrStopped is returned once Stop has been called.
	ErrStopped = errors.New("poller: stopped")
)

// SnapshotHandler receives every applied snapshot, in sequence order.
type SnapshotHandler interface {
	HandleSnapshot(snapshot market.Snapshot)
}

// SnapshotHandlerFunc is a function adapter for SnapshotHandler.
type SnapshotHandlerFunc func(market.Snapshot)

func (f SnapshotHandlerFunc) HandleSnapshot(s market.Snapshot) {
	f(s)
}

// Config holds poller configuration.
type Config struct {
	Interval time.Duration // Poll interval (default: 60s)
	Timeout  time.Duration // Per-fetch timeout (default: 10s)
	Query    market.MoversQuery
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval: 60 * time.Second,
		Timeout:  10 * time.Second,
		Query:    market.DefaultMoversQuery(),
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.Interval <= 0 {
		c.Interval = def.Interval
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.Query == (market.MoversQuery{}) {
		c.Query = def.Query
	}
	c.Query = c.Query.Normalized()
	return c
}

// Result describes the outcome of one fetch.
type Result struct {
	Seq       uint64
	Err       error
	Applied   bool
	Discarded bool // Fetch succeeded but a newer snapshot was already applied, or the poller stopped.
	Assets    int
	Duration  time.Duration
}

// Status is the indicator hook exposed to the UI layer.
type Status struct {
	Running             bool      `json:"running"`
	Stopped             bool      `json:"stopped"`
	Cycles              uint64    `json:"cycles"`
	AppliedSeq          uint64    `json:"appliedSeq"`
	LastSuccess         time.Time `json:"lastSuccess"`
	LastError           string    `json:"lastError,omitempty"`
	LastErrorAt         time.Time `json:"lastErrorAt"`
	ConsecutiveFailures int       `json:"consecutiveFailures"`
}

// Option customises a Poller.
type Option func(*Poller)

// WithClock swaps the time source, mainly for simulated time in tests.
func WithClock(c clock.Clock) Option {
	return func(p *Poller) {
		if c != nil {
			p.clock = c
		}
	}
}

// WithHandler registers the snapshot consumer.
func WithHandler(h SnapshotHandler) Option {
	return func(p *Poller) {
		p.handler = h
	}
}

// WithObserver registers a callback invoked after every fetch.
func WithObserver(fn func(Result)) Option {
	return func(p *Poller) {
		p.observer = fn
	}
}

// Poller periodically replaces the in-memory market snapshot.
type Poller struct {
	cfg      Config
	provider market.Provider
	clock    clock.Clock
	handler  SnapshotHandler
	observer func(Result)

	// life is cancelled by Stop and bounds every fetch.
	life context.Context
	kill context.CancelFunc

	mu      sync.Mutex
	running bool
	stopped bool
	cancel  context.CancelFunc
	status  Status
	wg      sync.WaitGroup

	seq     atomic.Uint64
	current atomic.Pointer[market.Snapshot]
}

// New creates a Poller. No request is made until Start or Refresh.
func New(cfg Config, provider market.Provider, opts ...Option) *Poller {
	p := &Poller{
		cfg:      cfg.normalized(),
		provider: provider,
		clock:    clock.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.life, p.kill = context.WithCancel(context.Background())
	empty := market.Snapshot{}
	p.current.Store(&empty)
	return p
}

// Start fetches once immediately and then on every interval.
func (p *Poller) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return ErrStopped
	}
	if p.running {
		return ErrAlreadyRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true
	p.status.Running = true

	// Created here so simulated time advanced right after Start is observed.
	ticker := p.clock.Ticker(p.cfg.Interval)

	p.wg.Add(1)
	go p.run(loopCtx, ticker)

	logx.Infof("market poller started interval=%s timeout=%s per_page=%d order=%s",
		p.cfg.Interval, p.cfg.Timeout, p.cfg.Query.PerPage, p.cfg.Query.Order)
	return nil
}

// Stop cancels the schedule and any in-flight fetch. Results that arrive
// afterwards are discarded. Safe to call more than once.
func (p *Poller) Stop(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	p.mu.Lock()
	wasRunning := p.running
	p.stopped = true
	p.running = false
	p.status.Running = false
	p.status.Stopped = true
	if p.cancel != nil {
		p.cancel()
	}
	p.kill()
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if wasRunning {
			logx.Info("market poller stopped")
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Refresh performs an out-of-band fetch. It may overlap a scheduled fetch;
// whichever was issued later wins.
func (p *Poller) Refresh(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if p.isStopped() {
		return ErrStopped
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	release := context.AfterFunc(p.life, cancel)
	defer release()

	return p.poll(ctx).Err
}

// Current returns the last applied snapshot.
func (p *Poller) Current() market.Snapshot {
	return *p.current.Load()
}

// Status returns a copy of the poller status.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Poller) run(ctx context.Context, ticker *clock.Ticker) {
	defer p.wg.Done()
	defer ticker.Stop()
	defer p.markIdle()

	// Poll immediately on start.
	p.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.life.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// poll issues one sequence-stamped fetch and applies or discards its result.
func (p *Poller) poll(ctx context.Context) Result {
	seq := p.seq.Add(1)
	start := p.clock.Now()

	assets, err := p.fetch(ctx)
	res := Result{Seq: seq, Duration: p.clock.Since(start)}
	if err != nil {
		res.Err = err
		p.recordFailure(ctx, res)
	} else {
		res.Assets = len(assets)
		res.Applied = p.apply(seq, assets)
		res.Discarded = !res.Applied
		if res.Discarded {
			logx.WithContext(ctx).Infof("market poller discarded seq=%d (stale or stopped)", seq)
		}
	}

	if p.observer != nil {
		p.observer(res)
	}
	return res
}

func (p *Poller) fetch(ctx context.Context) ([]market.Asset, error) {
	if p.provider == nil {
		return nil, errors.New("poller: no market provider configured")
	}
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	assets, err := p.provider.TopMovers(ctx, p.cfg.Query)
	if err != nil {
		return nil, fmt.Errorf("fetch top movers: %w", err)
	}
	if err := market.ValidateAssets(assets); err != nil {
		return nil, err
	}
	return assets, nil
}

// apply installs the snapshot when seq is the newest seen and the poller is
// still live. The handler runs under the lock so it observes seq order.
func (p *Poller) apply(seq uint64, assets []market.Asset) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.Cycles++
	if p.stopped || seq <= p.status.AppliedSeq {
		return false
	}

	now := p.clock.Now()
	snapshot := market.NewSnapshot(seq, now, assets)
	p.current.Store(&snapshot)
	p.status.AppliedSeq = seq
	p.status.LastSuccess = now
	p.status.ConsecutiveFailures = 0

	if p.handler != nil {
		p.handler.HandleSnapshot(snapshot)
	}
	return true
}

func (p *Poller) recordFailure(ctx context.Context, res Result) {
	p.mu.Lock()
	p.status.Cycles++
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.status.LastError = res.Err.Error()
	p.status.LastErrorAt = p.clock.Now()
	p.status.ConsecutiveFailures++
	failures := p.status.ConsecutiveFailures
	p.mu.Unlock()

	logx.WithContext(ctx).Errorf("market poller seq=%d failed (consecutive=%d): %v", res.Seq, failures, res.Err)
}

// markIdle records that the loop exited, e.g. because the Start context
// was cancelled. A poller that was not stopped may be started again.
func (p *Poller) markIdle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
	p.status.Running = false
}

func (p *Poller) isStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}
