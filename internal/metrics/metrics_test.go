package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordFetch(t *testing.T) {
	beforeErr := testutil.ToFloat64(FetchErrors.WithLabelValues("weekly", "timeout"))

	RecordFetch("weekly", 20*time.Millisecond, "")
	RecordFetch("weekly", 15*time.Second, "timeout")

	if got := testutil.ToFloat64(FetchErrors.WithLabelValues("weekly", "timeout")); got != beforeErr+1 {
		t.Fatalf("timeout errors = %v, want %v", got, beforeErr+1)
	}
	if n := testutil.CollectAndCount(FetchDuration); n < 2 {
		t.Fatalf("fetch duration series = %d, want >= 2", n)
	}
}

func TestRecordCacheLookupAndDiscard(t *testing.T) {
	tests := []struct {
		name   string
		record func()
		read   func() float64
	}{
		{
			name:   "cache hit",
			record: func() { RecordCacheLookup("dashboard", CacheHit) },
			read:   func() float64 { return testutil.ToFloat64(CacheLookups.WithLabelValues("dashboard", CacheHit)) },
		},
		{
			name:   "cache corrupt",
			record: func() { RecordCacheLookup("recordings", CacheCorrupt) },
			read:   func() float64 { return testutil.ToFloat64(CacheLookups.WithLabelValues("recordings", CacheCorrupt)) },
		},
		{
			name:   "stale sequence discard",
			record: func() { RecordDiscard("recordings", "stale_seq") },
			read:   func() float64 { return testutil.ToFloat64(SyncDiscarded.WithLabelValues("recordings", "stale_seq")) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.read()
			tt.record()
			if got := tt.read(); got != before+1 {
				t.Fatalf("counter = %v, want %v", got, before+1)
			}
		})
	}
}
