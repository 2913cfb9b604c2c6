// Package sched runs keyed periodic callbacks.
//
// The sync coordinator uses a Scheduler to resync displayed scopes. Keys
// are exclusive: scheduling a key that already has a timer stops the old
// one first, so a key never has more than one timer running.
package sched

import (
	"context"
	"sync"
	"time"
)

// Scheduler schedules fn to run every interval under key until the
// returned cancel func is called or the key is rescheduled.
type Scheduler interface {
	Schedule(key string, every time.Duration, fn func()) (cancel func())
}

// Ticker is a Scheduler backed by one goroutine and time.Ticker per key.
type Ticker struct {
	ctx context.Context

	mu     sync.Mutex
	timers map[string]*timer
}

type timer struct {
	cancel context.CancelFunc
}

var _ Scheduler = (*Ticker)(nil)

// NewTicker returns a Ticker whose timers all stop when ctx is done.
func NewTicker(ctx context.Context) *Ticker {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Ticker{ctx: ctx, timers: make(map[string]*timer)}
}

// Schedule starts a timer for key. The first call of fn happens one
// interval from now.
func (t *Ticker) Schedule(key string, every time.Duration, fn func()) func() {
	if every <= 0 {
		return func() {}
	}
	ctx, cancel := context.WithCancel(t.ctx)
	tm := &timer{cancel: cancel}

	t.mu.Lock()
	if prev, ok := t.timers[key]; ok {
		prev.cancel()
	}
	t.timers[key] = tm
	t.mu.Unlock()

	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	return func() { t.stop(key, tm) }
}

func (t *Ticker) stop(key string, tm *timer) {
	tm.cancel()
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timers[key] == tm {
		delete(t.timers, key)
	}
}

// Active reports how many keys have a running timer.
func (t *Ticker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timers)
}

// Manual is a Scheduler driven by hand, for tests.
type Manual struct {
	mu      sync.Mutex
	entries map[string]*manualEntry
	next    int
}

type manualEntry struct {
	id    int
	every time.Duration
	fn    func()
}

var _ Scheduler = (*Manual)(nil)

// NewManual returns an empty Manual scheduler.
func NewManual() *Manual {
	return &Manual{entries: make(map[string]*manualEntry)}
}

func (m *Manual) Schedule(key string, every time.Duration, fn func()) func() {
	m.mu.Lock()
	m.next++
	e := &manualEntry{id: m.next, every: every, fn: fn}
	m.entries[key] = e
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if cur, ok := m.entries[key]; ok && cur.id == e.id {
			delete(m.entries, key)
		}
	}
}

// Fire runs the callback scheduled under key once, synchronously. It
// reports false when key has no timer.
func (m *Manual) Fire(key string) bool {
	m.mu.Lock()
	e, ok := m.entries[key]
	m.mu.Unlock()
	if !ok {
		return false
	}
	e.fn()
	return true
}

// Active reports whether key has a timer.
func (m *Manual) Active(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}

// Interval returns the interval key was scheduled with, or 0.
func (m *Manual) Interval(key string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[key]; ok {
		return e.every
	}
	return 0
}

// Len reports how many keys have a timer.
func (m *Manual) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
