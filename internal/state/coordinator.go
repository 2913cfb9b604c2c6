package state

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/five82/statdeck/internal/cache"
	"github.com/five82/statdeck/internal/logging"
	"github.com/five82/statdeck/internal/metrics"
	"github.com/five82/statdeck/internal/sched"
	"github.com/five82/statdeck/internal/scope"
	"github.com/five82/statdeck/internal/statsapi"
)

// DefaultInterval is how often a watched scope is resynced.
const DefaultInterval = 60 * time.Second

// Discard reasons reported to metrics.
const (
	discardStaleSeq   = "stale_seq"
	discardSuperseded = "superseded"
	discardCanceled   = "canceled"
)

// Options tune a single Request.
type Options struct {
	// Force skips the cache and asks the backend to skip its own.
	Force bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithScheduler replaces the ticker-backed scheduler.
func WithScheduler(s sched.Scheduler) Option {
	return func(c *Coordinator) {
		if s != nil {
			c.sched = s
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithInterval sets the resync interval of watched scopes.
func WithInterval(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithContext sets the parent of every fetch and timer. Cancelling it
// stops the coordinator.
func WithContext(ctx context.Context) Option {
	return func(c *Coordinator) {
		if ctx != nil {
			c.parent = ctx
		}
	}
}

// Coordinator owns the sync state of every scope and is the only writer
// of the cache.
type Coordinator struct {
	fetcher  statsapi.Fetcher
	store    *cache.Store
	sched    sched.Scheduler
	now      func() time.Time
	interval time.Duration
	parent   context.Context

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	scopes  map[string]*scopeState
	subs    map[int]func(View)
	nextSub int
}

type flight struct {
	seq        uint64
	background bool
	force      bool
	done       chan struct{}
}

// New builds a Coordinator over fetcher and store.
func New(fetcher statsapi.Fetcher, store *cache.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		fetcher:  fetcher,
		store:    store,
		now:      time.Now,
		interval: DefaultInterval,
		parent:   context.Background(),
		scopes:   make(map[string]*scopeState),
		subs:     make(map[int]func(View)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ctx, c.cancel = context.WithCancel(c.parent)
	if c.sched == nil {
		c.sched = sched.NewTicker(c.ctx)
	}
	if c.store == nil {
		c.store = cache.New(nil, nil)
	}
	return c
}

// Close stops every timer, cancels outstanding fetches and waits for them
// to return.
func (c *Coordinator) Close() {
	c.mu.Lock()
	for _, st := range c.scopes {
		if st.stopTimer != nil {
			st.stopTimer()
			st.stopTimer = nil
		}
	}
	c.mu.Unlock()
	c.cancel()
	c.wg.Wait()
}

// Subscribe registers fn to receive every emitted View. fn runs on the
// goroutine that caused the change and must not block.
func (c *Coordinator) Subscribe(fn func(View)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Coordinator) emit(views ...View) {
	c.mu.Lock()
	subs := make([]func(View), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()
	for _, v := range views {
		for _, fn := range subs {
			fn(v)
		}
	}
}

// View returns the current state of key without triggering anything.
func (c *Coordinator) View(key scope.Key) View {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.scopes[key.String()]; ok {
		return st.view()
	}
	return View{Key: key}
}

func (c *Coordinator) scopeLocked(key scope.Key) *scopeState {
	st, ok := c.scopes[key.String()]
	if !ok {
		st = &scopeState{key: key}
		c.scopes[key.String()] = st
	}
	return st
}

// Request brings key up to date and returns its state right away.
//
// A fresh cache entry makes the scope ready without a fetch. A stale entry
// of a kind that revalidates is served as ready while a background fetch
// replaces it. Anything else starts a foreground fetch. Non-forced requests
// join a fetch already in flight; a forced one runs after it.
func (c *Coordinator) Request(key scope.Key, opts Options) View {
	c.mu.Lock()
	st := c.scopeLocked(key)

	if st.inflight != nil {
		if opts.Force {
			st.queued = true
			st.phase = PhaseLoading
		}
		v := st.view()
		c.mu.Unlock()
		return v
	}

	now := c.now()
	if !opts.Force {
		if entry, ok := c.store.Get(key); ok {
			fresh := c.store.IsFresh(entry, now)
			if fresh || key.Policy().Revalidate {
				st.phase = PhaseReady
				st.data = entry.Snapshot
				st.updatedAt = entry.StoredAt
				st.fromCache = true
				st.stale = !fresh
				st.err = nil
			}
			if fresh {
				metrics.RecordCacheLookup(string(key.Kind), metrics.CacheHit)
				v := st.view()
				c.mu.Unlock()
				c.emit(v)
				return v
			}
			metrics.RecordCacheLookup(string(key.Kind), metrics.CacheStale)
			if key.Policy().Revalidate {
				c.startLocked(st, true, false)
				v := st.view()
				c.mu.Unlock()
				c.emit(v)
				return v
			}
		}
	}

	c.startLocked(st, false, opts.Force)
	v := st.view()
	c.mu.Unlock()
	c.emit(v)
	return v
}

func (c *Coordinator) startLocked(st *scopeState, background, force bool) {
	if st.ctx == nil {
		st.ctx, st.cancel = context.WithCancel(c.ctx)
	}
	st.seq++
	f := &flight{seq: st.seq, background: background, force: force, done: make(chan struct{})}
	st.inflight = f
	st.lastAttempt = c.now()
	if !background {
		st.phase = PhaseLoading
	}

	ctx, cancel := context.WithCancel(st.ctx)
	key := st.key
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		snap, err := c.fetcher.Fetch(ctx, key, statsapi.Params{Force: force})
		c.complete(st, f, ctx, snap, err)
	}()
}

func (c *Coordinator) complete(st *scopeState, f *flight, ctx context.Context, snap statsapi.Snapshot, err error) {
	c.mu.Lock()

	var reason string
	switch {
	case f.seq <= st.applied:
		reason = discardStaleSeq
	case ctx.Err() != nil:
		reason = discardCanceled
	case st.inflight != f, f.seq <= st.cleared:
		reason = discardSuperseded
	}
	if reason != "" {
		var rerun bool
		if st.inflight == f {
			st.inflight = nil
			// A fetch cleared out from under its callers is replaced
			// rather than dropped: the queued forced fetch runs, or a
			// watched scope fetches again.
			if reason == discardSuperseded && (st.queued || st.watchers > 0) {
				force := st.queued || f.force
				st.queued = false
				c.startLocked(st, false, force)
				rerun = true
			} else {
				st.queued = false
				if st.phase == PhaseLoading {
					st.phase = idleOrReady(st)
				}
			}
		}
		v := st.view()
		c.mu.Unlock()
		close(f.done)
		metrics.RecordDiscard(string(st.key.Kind), reason)
		logging.Debug().
			Str("key", st.key.String()).
			Uint64("seq", f.seq).
			Str("reason", reason).
			Msg("discarded fetch result")
		if rerun {
			c.emit(v)
		}
		return
	}

	st.inflight = nil
	st.applied = f.seq
	now := c.now()

	switch {
	case err == nil:
		if perr := c.store.Put(st.key, snap, now); perr != nil {
			logging.Warn().Err(perr).Str("key", st.key.String()).Msg("cache write failed")
		}
		st.phase = PhaseReady
		st.data = snap
		st.updatedAt = now
		st.fromCache = false
		st.stale = false
		st.err = nil
		st.failures = 0
	case f.background:
		logging.Debug().Err(err).Str("key", st.key.String()).Msg("background revalidation failed")
	default:
		st.phase = PhaseFailed
		st.err = err
		st.failures++
		logging.Warn().
			Err(err).
			Str("key", st.key.String()).
			Int("failures", st.failures).
			Bool("has_data", !st.data.IsZero()).
			Msg("fetch failed")
	}

	if st.queued {
		st.queued = false
		c.startLocked(st, false, true)
	}
	v := st.view()
	c.mu.Unlock()
	close(f.done)
	c.emit(v)
}

func idleOrReady(st *scopeState) Phase {
	if st.data.IsZero() {
		return PhaseIdle
	}
	if st.err != nil {
		return PhaseFailed
	}
	return PhaseReady
}

// Wait blocks until key has no fetch in flight or queued, then returns its
// state.
func (c *Coordinator) Wait(ctx context.Context, key scope.Key) (View, error) {
	for {
		c.mu.Lock()
		st, ok := c.scopes[key.String()]
		if !ok || st.inflight == nil {
			var v View
			if ok {
				v = st.view()
			} else {
				v = View{Key: key}
			}
			c.mu.Unlock()
			return v, nil
		}
		done := st.inflight.done
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return c.View(key), ctx.Err()
		case <-done:
		}
	}
}

// Sync is Request followed by Wait.
func (c *Coordinator) Sync(ctx context.Context, key scope.Key, opts Options) (View, error) {
	c.Request(key, opts)
	return c.Wait(ctx, key)
}

// Watch marks key as displayed. The first watcher starts the periodic
// resync; every call issues a non-forced request.
func (c *Coordinator) Watch(key scope.Key) View {
	c.mu.Lock()
	st := c.scopeLocked(key)
	st.watchers++
	if st.watchers == 1 {
		st.stopTimer = c.sched.Schedule(key.String(), c.interval, func() {
			c.Request(key, Options{})
		})
	}
	c.mu.Unlock()
	return c.Request(key, Options{})
}

// Release undoes one Watch. When the last watcher leaves, the resync timer
// stops and any fetch in flight for key is cancelled; its result will not
// reach the cache or the view.
func (c *Coordinator) Release(key scope.Key) {
	c.mu.Lock()
	st, ok := c.scopes[key.String()]
	if !ok || st.watchers == 0 {
		c.mu.Unlock()
		return
	}
	st.watchers--
	if st.watchers > 0 {
		c.mu.Unlock()
		return
	}
	if st.stopTimer != nil {
		st.stopTimer()
		st.stopTimer = nil
	}
	if st.cancel != nil {
		st.cancel()
		st.ctx, st.cancel = nil, nil
	}
	changed := st.inflight != nil
	if changed {
		st.inflight = nil
		st.queued = false
		if st.phase == PhaseLoading {
			st.phase = idleOrReady(st)
		}
	}
	v := st.view()
	c.mu.Unlock()
	if changed {
		c.emit(v)
	}
}

// Refresh invalidates the backend cache for key's kind, drops the local
// entries and last good data under key, then forces a fetch. A failed
// invalidation is logged and does not stop the fetch.
func (c *Coordinator) Refresh(ctx context.Context, key scope.Key) View {
	if err := c.fetcher.Invalidate(ctx, key.Kind); err != nil {
		if !statsapi.IsCanceled(err) && !errors.Is(err, context.Canceled) {
			metrics.InvalidationFailures.WithLabelValues(string(key.Kind)).Inc()
			logging.Warn().Err(err).Str("key", key.String()).Msg("backend cache invalidation failed")
		}
	}
	if err := c.Clear(key.String()); err != nil {
		logging.Warn().Err(err).Str("key", key.String()).Msg("local cache clear failed")
	}
	return c.Request(key, Options{Force: true})
}

// Clear drops cache entries and last good data of every scope under
// prefix without fetching. The empty prefix clears everything. A fetch
// already in flight for a cleared scope is discarded when it returns.
func (c *Coordinator) Clear(prefix string) error {
	_, err := c.store.Clear(prefix)

	c.mu.Lock()
	var views []View
	for k, st := range c.scopes {
		if !scope.Matches(k, prefix) {
			continue
		}
		st.clearData()
		views = append(views, st.view())
	}
	c.mu.Unlock()
	c.emit(views...)
	return err
}
