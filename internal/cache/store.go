// Package cache keeps the last fetched snapshot of each scope so the
// dashboard can render instantly on start and between fetches.
//
// Entries are routed by the scope's policy: durable kinds go to a
// persistent KeyValueStore (BadgerDB in production), ephemeral kinds to
// process memory, and uncached kinds are never stored. Every value is a
// JSON envelope {"timestamp": <epoch millis>, "snapshot": {...}} kept
// under "statdeck:" + scope key.
package cache

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/five82/statdeck/internal/logging"
	"github.com/five82/statdeck/internal/metrics"
	"github.com/five82/statdeck/internal/scope"
	"github.com/five82/statdeck/internal/statsapi"
)

// KeyPrefix namespaces statdeck entries inside a shared medium.
const KeyPrefix = "statdeck:"

// ErrCorrupt reports a persisted entry that could not be decoded.
var ErrCorrupt = errors.New("cache entry corrupt")

// Entry is one cached snapshot.
type Entry struct {
	Key      scope.Key
	Snapshot statsapi.Snapshot
	StoredAt time.Time
}

// Age returns how long ago the entry was stored.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.StoredAt)
}

type envelope struct {
	Timestamp int64             `json:"timestamp"`
	Snapshot  statsapi.Snapshot `json:"snapshot"`
}

// Store is the policy-aware cache used by the sync coordinator.
type Store struct {
	durable   KeyValueStore
	ephemeral KeyValueStore
}

// New builds a Store. A nil durable medium falls back to memory, which
// keeps durable kinds cached for the session only.
func New(durable, ephemeral KeyValueStore) *Store {
	if ephemeral == nil {
		ephemeral = NewMemoryStore()
	}
	if durable == nil {
		durable = NewMemoryStore()
	}
	return &Store{durable: durable, ephemeral: ephemeral}
}

func (s *Store) medium(key scope.Key) KeyValueStore {
	switch key.Policy().Medium {
	case scope.MediumDurable:
		return s.durable
	case scope.MediumEphemeral:
		return s.ephemeral
	default:
		return nil
	}
}

// Get returns the entry for key. Storage errors and corrupt entries are
// logged and reported as a miss.
func (s *Store) Get(key scope.Key) (Entry, bool) {
	kv := s.medium(key)
	if kv == nil {
		return Entry{}, false
	}
	raw, ok, err := kv.Get(KeyPrefix + key.String())
	if err != nil {
		logging.Warn().Err(err).Str("key", key.String()).Msg("cache read failed")
		metrics.RecordCacheLookup(string(key.Kind), metrics.CacheMiss)
		return Entry{}, false
	}
	if !ok {
		metrics.RecordCacheLookup(string(key.Kind), metrics.CacheMiss)
		return Entry{}, false
	}
	entry, err := decodeEntry(key, raw)
	if err != nil {
		logging.Warn().Err(err).Str("key", key.String()).Msg("discarding corrupt cache entry")
		metrics.RecordCacheLookup(string(key.Kind), metrics.CacheCorrupt)
		if derr := kv.Delete(KeyPrefix + key.String()); derr != nil {
			logging.Debug().Err(derr).Str("key", key.String()).Msg("delete corrupt entry")
		}
		return Entry{}, false
	}
	return entry, true
}

func decodeEntry(key scope.Key, raw []byte) (Entry, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if env.Timestamp <= 0 || env.Snapshot.IsZero() {
		return Entry{}, fmt.Errorf("%w: missing timestamp or snapshot", ErrCorrupt)
	}
	return Entry{Key: key, Snapshot: env.Snapshot, StoredAt: time.UnixMilli(env.Timestamp)}, nil
}

// Put stores snap under key, stamped with now. Kinds without a cache
// medium are ignored.
func (s *Store) Put(key scope.Key, snap statsapi.Snapshot, now time.Time) error {
	kv := s.medium(key)
	if kv == nil || key.Policy().TTL <= 0 {
		return nil
	}
	raw, err := json.Marshal(envelope{Timestamp: now.UnixMilli(), Snapshot: snap})
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	if err := kv.Put(KeyPrefix+key.String(), raw); err != nil {
		return fmt.Errorf("store cache entry %s: %w", key, err)
	}
	return nil
}

// IsFresh reports whether e is younger than its kind's TTL. An entry whose
// age equals the TTL is stale.
func (s *Store) IsFresh(e Entry, now time.Time) bool {
	return IsFresh(e, now)
}

// IsFresh is the package-level form of Store.IsFresh.
func IsFresh(e Entry, now time.Time) bool {
	ttl := e.Key.Policy().TTL
	if ttl <= 0 {
		return false
	}
	return e.Age(now) < ttl
}

// Clear removes every entry whose scope key matches prefix segment-wise
// ("recordings" clears every room, "recordings:vinn1" one room, "" all)
// and returns how many were removed.
func (s *Store) Clear(prefix string) (int, error) {
	mediums := []KeyValueStore{s.durable}
	if s.ephemeral != s.durable {
		mediums = append(mediums, s.ephemeral)
	}

	removed := 0
	var errs []error
	for _, kv := range mediums {
		keys, err := kv.Keys(KeyPrefix)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, k := range keys {
			if !scope.Matches(strings.TrimPrefix(k, KeyPrefix), prefix) {
				continue
			}
			if err := kv.Delete(k); err != nil {
				errs = append(errs, err)
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		logging.Debug().Str("prefix", prefix).Int("removed", removed).Msg("cache cleared")
	}
	return removed, errors.Join(errs...)
}

// Close closes both mediums.
func (s *Store) Close() error {
	errs := []error{s.durable.Close()}
	if s.ephemeral != s.durable {
		errs = append(errs, s.ephemeral.Close())
	}
	return errors.Join(errs...)
}
