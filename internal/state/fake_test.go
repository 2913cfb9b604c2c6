package state

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/five82/statdeck/internal/cache"
	"github.com/five82/statdeck/internal/sched"
	"github.com/five82/statdeck/internal/scope"
	"github.com/five82/statdeck/internal/statsapi"
)

type fetchResult struct {
	body string
	err  error
}

type fetchCall struct {
	ctx    context.Context
	key    scope.Key
	params statsapi.Params
	reply  chan fetchResult
}

func (c *fetchCall) resolve(body string) { c.reply <- fetchResult{body: body} }
func (c *fetchCall) fail(err error)      { c.reply <- fetchResult{err: err} }

// fakeFetcher hands every Fetch to the test, which answers it explicitly.
type fakeFetcher struct {
	calls chan *fetchCall
	// ignoreCancel makes Fetch wait for an answer even after its context
	// is cancelled, like a backend that resolves late.
	ignoreCancel bool

	mu            sync.Mutex
	count         int
	invalidated   []scope.Kind
	invalidateErr error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{calls: make(chan *fetchCall, 16)}
}

func (f *fakeFetcher) Fetch(ctx context.Context, key scope.Key, params statsapi.Params) (statsapi.Snapshot, error) {
	call := &fetchCall{ctx: ctx, key: key, params: params, reply: make(chan fetchResult, 1)}
	f.mu.Lock()
	f.count++
	f.mu.Unlock()
	f.calls <- call

	var res fetchResult
	if f.ignoreCancel {
		res = <-call.reply
	} else {
		select {
		case res = <-call.reply:
		case <-ctx.Done():
			return statsapi.Snapshot{}, &statsapi.Error{Kind: statsapi.KindCanceled, Op: "GET " + key.String(), Err: ctx.Err()}
		}
	}
	if res.err != nil {
		return statsapi.Snapshot{}, res.err
	}
	return statsapi.Snapshot{Key: key.String(), Body: []byte(res.body)}, nil
}

func (f *fakeFetcher) Invalidate(_ context.Context, kind scope.Kind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, kind)
	return f.invalidateErr
}

func (f *fakeFetcher) fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

func (f *fakeFetcher) next(t *testing.T) *fetchCall {
	t.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("expected a fetch, none started")
		return nil
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type harness struct {
	coord   *Coordinator
	fetcher *fakeFetcher
	store   *cache.Store
	sched   *sched.Manual
	clock   *fakeClock
}

var t0 = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		fetcher: newFakeFetcher(),
		store:   cache.New(cache.NewMemoryStore(), cache.NewMemoryStore()),
		sched:   sched.NewManual(),
		clock:   &fakeClock{now: t0},
	}
	h.coord = New(h.fetcher, h.store,
		WithScheduler(h.sched),
		WithClock(h.clock.Now),
	)
	t.Cleanup(h.coord.Close)
	return h
}

func (h *harness) wait(t *testing.T, key scope.Key) View {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	v, err := h.coord.Wait(ctx, key)
	if err != nil {
		t.Fatalf("Wait(%s): %v", key, err)
	}
	return v
}

// recorder collects emitted views.
type recorder struct {
	mu    sync.Mutex
	views []View
}

func (r *recorder) add(v View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, v)
}

func (r *recorder) all() []View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]View(nil), r.views...)
}
