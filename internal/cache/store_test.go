package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/five82/statdeck/internal/metrics"
	"github.com/five82/statdeck/internal/scope"
	"github.com/five82/statdeck/internal/statsapi"
)

var base = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func snap(key scope.Key, body string) statsapi.Snapshot {
	return statsapi.Snapshot{Key: key.String(), FetchedAt: base, Body: []byte(body)}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	durable, err := OpenBadgerInMemory()
	if err != nil {
		t.Fatalf("OpenBadgerInMemory: %v", err)
	}
	s := New(durable, NewMemoryStore())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_PutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	key := scope.New(scope.Dashboard, "")

	if _, ok := s.Get(key); ok {
		t.Fatal("Get on empty store returned an entry")
	}
	if err := s.Put(key, snap(key, `{"дата":"02.03.2026"}`), base); err != nil {
		t.Fatalf("Put: %v", err)
	}
	entry, ok := s.Get(key)
	if !ok {
		t.Fatal("Get after Put reported a miss")
	}
	if !entry.StoredAt.Equal(base) || string(entry.Snapshot.Body) != `{"дата":"02.03.2026"}` {
		t.Fatalf("entry = %#v", entry)
	}
	if entry.Key != key {
		t.Fatalf("entry key = %v, want %v", entry.Key, key)
	}
}

func TestStore_EnvelopeFormat(t *testing.T) {
	durable := NewMemoryStore()
	s := New(durable, NewMemoryStore())
	key := scope.New(scope.Weekly, "")
	if err := s.Put(key, snap(key, `{}`), base); err != nil {
		t.Fatalf("Put: %v", err)
	}
	raw, ok, err := durable.Get("statdeck:weekly")
	if err != nil || !ok {
		t.Fatalf("durable Get = %v, %v", ok, err)
	}
	var env envelope
	if err := (statsapi.Snapshot{Body: raw}).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Timestamp != base.UnixMilli() {
		t.Fatalf("timestamp = %d, want %d", env.Timestamp, base.UnixMilli())
	}
}

func TestStore_RoutesByMedium(t *testing.T) {
	durable, ephemeral := NewMemoryStore(), NewMemoryStore()
	s := New(durable, ephemeral)

	dash := scope.New(scope.Dashboard, "")
	rec := scope.New(scope.Recordings, "vinn1")
	status := scope.New(scope.Status, "")
	for _, k := range []scope.Key{dash, rec, status} {
		if err := s.Put(k, snap(k, `{}`), base); err != nil {
			t.Fatalf("Put(%s): %v", k, err)
		}
	}

	if keys, _ := durable.Keys(KeyPrefix); len(keys) != 1 || keys[0] != "statdeck:dashboard" {
		t.Fatalf("durable keys = %v", keys)
	}
	if keys, _ := ephemeral.Keys(KeyPrefix); len(keys) != 1 || keys[0] != "statdeck:recordings:vinn1" {
		t.Fatalf("ephemeral keys = %v", keys)
	}
	if _, ok := s.Get(status); ok {
		t.Fatal("uncached kind was stored")
	}
}

func TestIsFresh_Boundary(t *testing.T) {
	dash := Entry{Key: scope.New(scope.Dashboard, ""), StoredAt: base}
	rec := Entry{Key: scope.New(scope.Recordings, "vinn1"), StoredAt: base}
	status := Entry{Key: scope.New(scope.Status, ""), StoredAt: base}

	tests := []struct {
		name  string
		entry Entry
		now   time.Time
		want  bool
	}{
		{"dashboard just stored", dash, base, true},
		{"dashboard one ms before ttl", dash, base.Add(scope.DashboardTTL - time.Millisecond), true},
		{"dashboard exactly at ttl", dash, base.Add(scope.DashboardTTL), false},
		{"dashboard past ttl", dash, base.Add(scope.DashboardTTL + time.Second), false},
		{"recordings at 119s", rec, base.Add(119 * time.Second), true},
		{"recordings at 120s", rec, base.Add(120 * time.Second), false},
		{"uncached kind", status, base, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFresh(tt.entry, tt.now); got != tt.want {
				t.Fatalf("IsFresh = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStore_CorruptEntryIsMiss(t *testing.T) {
	durable := NewMemoryStore()
	s := New(durable, nil)
	key := scope.New(scope.Dashboard, "")
	_ = durable.Put(KeyPrefix+key.String(), []byte(`{"timestamp": oops`))

	before := testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("dashboard", metrics.CacheCorrupt))
	if _, ok := s.Get(key); ok {
		t.Fatal("corrupt entry returned as hit")
	}
	after := testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("dashboard", metrics.CacheCorrupt))
	if after != before+1 {
		t.Fatalf("corrupt lookups = %v, want %v", after, before+1)
	}
	if _, ok, _ := durable.Get(KeyPrefix + key.String()); ok {
		t.Fatal("corrupt entry was not removed")
	}
}

func TestDecodeEntry_RejectsIncompleteEnvelope(t *testing.T) {
	key := scope.New(scope.Dashboard, "")
	for _, raw := range []string{`not json`, `{"timestamp":0,"snapshot":{"body":{}}}`, `{"timestamp":5}`} {
		if _, err := decodeEntry(key, []byte(raw)); !errors.Is(err, ErrCorrupt) {
			t.Errorf("decodeEntry(%s) error = %v, want ErrCorrupt", raw, err)
		}
	}
}

func TestStore_ClearIsSegmentAware(t *testing.T) {
	s := newTestStore(t)
	keys := []scope.Key{
		scope.New(scope.Dashboard, ""),
		scope.New(scope.Dashboard, "01.03.2026"),
		scope.New(scope.Recordings, "vinn1"),
		scope.New(scope.Recordings, "vinn12"),
		scope.New(scope.Recordings, "tokio"),
	}
	for _, k := range keys {
		if err := s.Put(k, snap(k, `{}`), base); err != nil {
			t.Fatalf("Put(%s): %v", k, err)
		}
	}

	n, err := s.Clear("recordings:vinn1")
	if err != nil || n != 1 {
		t.Fatalf("Clear(recordings:vinn1) = %d, %v; want 1, nil", n, err)
	}
	for _, k := range keys {
		_, ok := s.Get(k)
		want := k.String() != "recordings:vinn1"
		if ok != want {
			t.Fatalf("after clearing vinn1, %s present = %v, want %v", k, ok, want)
		}
	}

	n, err = s.Clear("recordings")
	if err != nil || n != 2 {
		t.Fatalf("Clear(recordings) = %d, %v; want 2, nil", n, err)
	}
	if _, ok := s.Get(scope.New(scope.Dashboard, "01.03.2026")); !ok {
		t.Fatal("Clear(recordings) removed a dashboard entry")
	}

	n, err = s.Clear("")
	if err != nil || n != 2 {
		t.Fatalf("Clear(\"\") = %d, %v; want 2, nil", n, err)
	}
}
