// Package quota tracks how many messages have been sent in the current
// rate-limit window. The counter only ever moves up, until the reset loop
// zeroes it at the window boundary.
package quota

import (
	"context"
	"sync/atomic"
)

// Counter is the shared send counter the drain and reset loops coordinate
// through. Implementations must make Add and Reset individually atomic;
// no locking across calls is expected from callers.
type Counter interface {
	// Add increments the counter by one and returns the new value.
	Add(ctx context.Context) (int64, error)

	// Value returns the current counter value.
	Value(ctx context.Context) (int64, error)

	// Reset sets the counter back to zero.
	Reset(ctx context.Context) error
}

var _ Counter = (*Window)(nil)

// Window is the in-process counter used by a single engine instance.
type Window struct {
	sent atomic.Int64
}

func NewWindow() *Window {
	return &Window{}
}

func (w *Window) Add(_ context.Context) (int64, error) {
	return w.sent.Add(1), nil
}

func (w *Window) Value(_ context.Context) (int64, error) {
	return w.sent.Load(), nil
}

func (w *Window) Reset(_ context.Context) error {
	w.sent.Store(0)
	return nil
}
