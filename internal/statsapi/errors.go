package statsapi

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed backend call.
type ErrorKind string

const (
	// KindTimeout means no response arrived within the kind's deadline.
	KindTimeout ErrorKind = "timeout"
	// KindNetwork covers transport failures and an open circuit breaker.
	KindNetwork ErrorKind = "network"
	// KindHTTP is a non-2xx response; Error.Status carries the code.
	KindHTTP ErrorKind = "http"
	// KindDecode is a 2xx response whose body is not valid JSON.
	KindDecode ErrorKind = "decode"
	// KindCanceled means the caller abandoned the request.
	KindCanceled ErrorKind = "canceled"
)

// ErrBackendUnavailable is wrapped by KindNetwork errors raised while the
// circuit breaker is open.
var ErrBackendUnavailable = errors.New("backend unavailable")

// Error is the single error type returned by Client.
type Error struct {
	Kind   ErrorKind
	Status int
	Op     string
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTP:
		return fmt.Sprintf("%s: HTTP %d", e.Op, e.Status)
	case KindTimeout:
		return fmt.Sprintf("%s: timed out", e.Op)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) ErrorKind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// IsCanceled reports whether err stems from the caller cancelling.
func IsCanceled(err error) bool {
	return KindOf(err) == KindCanceled
}

// Message renders err for people: what went wrong, without the plumbing.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return err.Error()
	}
	switch apiErr.Kind {
	case KindTimeout:
		return "backend did not respond in time"
	case KindHTTP:
		return fmt.Sprintf("backend returned HTTP %d", apiErr.Status)
	case KindDecode:
		return "backend sent a malformed response"
	case KindCanceled:
		return "request canceled"
	default:
		if errors.Is(apiErr, ErrBackendUnavailable) {
			return "backend unavailable, retrying later"
		}
		return "backend unreachable"
	}
}
