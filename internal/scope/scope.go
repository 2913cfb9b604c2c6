// Package scope names the units statdeck synchronizes and the policy that
// governs each of them.
//
// A scope key pairs a Kind with an optional ID: "dashboard" is the live
// dashboard, "dashboard:01.02.2026" a historical one, "recordings:vinn1" the
// recordings availability of one room. Cache entries, sync state and the
// periodic resync timer are all tracked per key.
package scope

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies the backend resource behind a scope key.
type Kind string

const (
	Dashboard  Kind = "dashboard"
	Weekly     Kind = "weekly"
	Personal   Kind = "personal"
	Recordings Kind = "recordings"
	Status     Kind = "status"
	Settings   Kind = "settings"
	CacheStats Kind = "cache-stats"
)

// Medium selects where a kind's cache entries live.
type Medium int

const (
	// MediumNone disables caching for the kind.
	MediumNone Medium = iota
	// MediumDurable survives a restart.
	MediumDurable
	// MediumEphemeral lives only as long as the process.
	MediumEphemeral
)

func (m Medium) String() string {
	switch m {
	case MediumDurable:
		return "durable"
	case MediumEphemeral:
		return "ephemeral"
	default:
		return "none"
	}
}

// Policy describes how a kind is fetched and cached.
type Policy struct {
	Medium Medium
	TTL    time.Duration
	// Timeout bounds a single fetch.
	Timeout time.Duration
	// Revalidate serves a stale entry immediately and refreshes it in the
	// background instead of blocking on a fetch.
	Revalidate bool
	// RequiresID marks kinds that are meaningless without an ID.
	RequiresID bool
}

const (
	DashboardTTL  = 5 * time.Minute
	RecordingsTTL = 2 * time.Minute
)

var policies = map[Kind]Policy{
	Dashboard:  {Medium: MediumDurable, TTL: DashboardTTL, Timeout: 15 * time.Second},
	Weekly:     {Medium: MediumDurable, TTL: DashboardTTL, Timeout: 15 * time.Second},
	Personal:   {Medium: MediumDurable, TTL: DashboardTTL, Timeout: 30 * time.Second, RequiresID: true},
	Recordings: {Medium: MediumEphemeral, TTL: RecordingsTTL, Timeout: 30 * time.Second, Revalidate: true, RequiresID: true},
	Status:     {Timeout: 10 * time.Second},
	Settings:   {Timeout: 10 * time.Second},
	CacheStats: {Timeout: 10 * time.Second},
}

// PolicyFor returns the policy of kind. Unknown kinds get an uncached policy
// with the shortest timeout.
func PolicyFor(kind Kind) Policy {
	if p, ok := policies[kind]; ok {
		return p
	}
	return Policy{Timeout: 10 * time.Second}
}

// Kinds lists every known kind in display order.
func Kinds() []Kind {
	return []Kind{Dashboard, Weekly, Personal, Recordings, Status, Settings, CacheStats}
}

// Key identifies one synchronized scope.
type Key struct {
	Kind Kind
	ID   string
}

// New builds a key with a trimmed ID.
func New(kind Kind, id string) Key {
	return Key{Kind: kind, ID: strings.TrimSpace(id)}
}

// String renders the key as "kind" or "kind:id".
func (k Key) String() string {
	if k.ID == "" {
		return string(k.Kind)
	}
	return string(k.Kind) + ":" + k.ID
}

// Policy is shorthand for PolicyFor(k.Kind).
func (k Key) Policy() Policy {
	return PolicyFor(k.Kind)
}

// Parse is the inverse of Key.String.
func Parse(raw string) (Key, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Key{}, fmt.Errorf("scope key is empty")
	}
	kindPart, id, _ := strings.Cut(raw, ":")
	kind := Kind(strings.ToLower(strings.TrimSpace(kindPart)))
	if _, ok := policies[kind]; !ok {
		return Key{}, fmt.Errorf("unknown scope kind %q", kindPart)
	}
	key := New(kind, id)
	if key.Policy().RequiresID && key.ID == "" {
		return Key{}, fmt.Errorf("scope %q requires an id", kind)
	}
	return key, nil
}

// Matches reports whether key falls under prefix. Matching is segment aware:
// "recordings" matches every room, "recordings:vinn1" matches only that room
// and not "recordings:vinn12". The empty prefix matches everything.
func Matches(key, prefix string) bool {
	if prefix == "" || key == prefix {
		return true
	}
	return strings.HasPrefix(key, prefix+":")
}
