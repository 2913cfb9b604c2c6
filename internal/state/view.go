package state

import (
	"context"
	"fmt"
	"time"

	"github.com/five82/statdeck/internal/scope"
	"github.com/five82/statdeck/internal/statsapi"
)

// Phase is the sync state of one scope.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	default:
		return "idle"
	}
}

// View is a copy of one scope's sync state, safe to hold across updates.
type View struct {
	Key   scope.Key
	Phase Phase
	// Data is the last good snapshot. It survives failed fetches.
	Data statsapi.Snapshot
	// Loading is true while a foreground fetch is in flight.
	Loading bool
	// Revalidating is true while a stale entry is refreshed in the background.
	Revalidating bool
	Err          error
	// Stale marks Data as older than the kind's TTL.
	Stale bool
	// FromCache marks Data as read from the cache rather than fetched this session.
	FromCache           bool
	UpdatedAt           time.Time
	LastAttempt         time.Time
	ConsecutiveFailures int
}

// HasData reports whether a snapshot has ever been loaded for the scope.
func (v View) HasData() bool {
	return !v.Data.IsZero()
}

// IsOffline returns true when the backend has failed repeatedly.
func (v View) IsOffline() bool {
	return v.ConsecutiveFailures >= 2
}

// HardError reports a failure with nothing to show.
func (v View) HardError() bool {
	return v.Phase == PhaseFailed && !v.HasData()
}

// SoftError reports a failure shown alongside retained data.
func (v View) SoftError() bool {
	return v.Phase == PhaseFailed && v.HasData()
}

func (v View) String() string {
	return fmt.Sprintf("%s[%s data=%t err=%v]", v.Key, v.Phase, v.HasData(), v.Err)
}

// scopeState is the coordinator's private record for one key.
type scopeState struct {
	key   scope.Key
	phase Phase

	data      statsapi.Snapshot
	updatedAt time.Time
	fromCache bool
	stale     bool

	err         error
	lastAttempt time.Time
	failures    int

	seq      uint64
	applied  uint64
	// cleared is the newest seq started before the last clear. Results of
	// fetches at or below it never reach the cache or the view.
	cleared  uint64
	inflight *flight
	queued   bool

	watchers  int
	stopTimer func()
	// ctx is the abort scope of the key's fetches; Release cancels it.
	ctx    context.Context
	cancel context.CancelFunc
}

func (s *scopeState) view() View {
	v := View{
		Key:                 s.key,
		Phase:               s.phase,
		Data:                s.data,
		Stale:               s.stale,
		FromCache:           s.fromCache,
		UpdatedAt:           s.updatedAt,
		LastAttempt:         s.lastAttempt,
		ConsecutiveFailures: s.failures,
	}
	if s.err != nil {
		v.Err = fmt.Errorf("%w", s.err)
	}
	if s.inflight != nil {
		v.Loading = !s.inflight.background || s.queued
		v.Revalidating = s.inflight.background
	}
	return v
}

func (s *scopeState) clearData() {
	s.data = statsapi.Snapshot{}
	s.updatedAt = time.Time{}
	s.fromCache = false
	s.stale = false
	s.err = nil
	s.cleared = s.seq
	if s.inflight == nil || s.inflight.background {
		s.phase = PhaseIdle
	}
}
