package statsapi

import (
	"time"

	"github.com/goccy/go-json"
)

// Snapshot is one successful fetch result. It is never mutated after the
// client builds it; a later fetch produces a new Snapshot.
type Snapshot struct {
	Key       string          `json:"key"`
	FetchedAt time.Time       `json:"fetched_at"`
	Body      json.RawMessage `json:"body"`
}

// IsZero reports whether s carries no document.
func (s Snapshot) IsZero() bool {
	return len(s.Body) == 0
}

// Decode unmarshals the snapshot document into v.
func (s Snapshot) Decode(v any) error {
	return json.Unmarshal(s.Body, v)
}

// DecodeAs is a typed helper around Snapshot.Decode.
//
//	dash, err := statsapi.DecodeAs[statsapi.Dashboard](snap)
func DecodeAs[T any](s Snapshot) (T, error) {
	var v T
	err := s.Decode(&v)
	return v, err
}
