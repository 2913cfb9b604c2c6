package sched

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestTicker_FiresAndCancels(t *testing.T) {
	tk := NewTicker(context.Background())
	var calls atomic.Int32

	cancel := tk.Schedule("dashboard", 5*time.Millisecond, func() { calls.Add(1) })
	waitFor(t, func() bool { return calls.Load() >= 2 })

	cancel()
	if tk.Active() != 0 {
		t.Fatalf("Active = %d after cancel, want 0", tk.Active())
	}
	time.Sleep(20 * time.Millisecond)
	settled := calls.Load()
	time.Sleep(30 * time.Millisecond)
	if calls.Load() != settled {
		t.Fatalf("callback kept firing after cancel: %d -> %d", settled, calls.Load())
	}
}

func TestTicker_RescheduleReplacesTimer(t *testing.T) {
	tk := NewTicker(context.Background())
	var first, second atomic.Int32

	cancelFirst := tk.Schedule("recordings:vinn1", 5*time.Millisecond, func() { first.Add(1) })
	tk.Schedule("recordings:vinn1", 5*time.Millisecond, func() { second.Add(1) })
	if tk.Active() != 1 {
		t.Fatalf("Active = %d, want 1", tk.Active())
	}

	waitFor(t, func() bool { return second.Load() >= 2 })
	stale := first.Load()
	time.Sleep(30 * time.Millisecond)
	if first.Load() != stale {
		t.Fatal("replaced timer kept firing")
	}

	// Cancelling the replaced timer must not stop its successor.
	cancelFirst()
	if tk.Active() != 1 {
		t.Fatalf("Active = %d after stale cancel, want 1", tk.Active())
	}
}

func TestTicker_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	tk := NewTicker(ctx)
	var calls atomic.Int32
	tk.Schedule("status", 5*time.Millisecond, func() { calls.Add(1) })
	waitFor(t, func() bool { return calls.Load() >= 1 })

	cancel()
	time.Sleep(20 * time.Millisecond)
	settled := calls.Load()
	time.Sleep(30 * time.Millisecond)
	if calls.Load() != settled {
		t.Fatal("timer outlived its context")
	}
}

func TestManual(t *testing.T) {
	m := NewManual()
	var a, b int

	cancelA := m.Schedule("k", time.Minute, func() { a++ })
	if !m.Active("k") || m.Interval("k") != time.Minute {
		t.Fatal("scheduled key not active")
	}
	m.Schedule("k", 2*time.Minute, func() { b++ })
	if m.Len() != 1 {
		t.Fatalf("Len = %d, want 1", m.Len())
	}

	m.Fire("k")
	if a != 0 || b != 1 {
		t.Fatalf("a, b = %d, %d; want 0, 1", a, b)
	}

	cancelA()
	if !m.Active("k") {
		t.Fatal("stale cancel removed the current timer")
	}
	if m.Fire("missing") {
		t.Fatal("Fire on unknown key reported true")
	}
}
