// Package transport carries admitted messages out of the process. The
// engine only sees the Transport interface; the adapters in this package
// cover the usual chat backends (websocket, AMQP broker, HTTP webhook).
package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Transport is the single exit point for message text. Implementations
// must be safe for calls from the engine's drain loop and from raw sends
// happening on caller goroutines.
type Transport interface {
	Dispatch(ctx context.Context, text string) error
	Close() error
}

// Error classifies transport failures as transient/permanent.
type Error struct {
	StatusCode int
	Message    string
	Transient  bool
	Cause      error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 4)
	parts = append(parts, "transport error")

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsTransient reports whether a dispatch failure is worth retrying by
// whoever owns retries; the engine itself never retries.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var transportErr *Error
	if errors.As(err, &transportErr) {
		return transportErr.Transient
	}

	return false
}
