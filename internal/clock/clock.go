// Package clock provides cancellable delayed callbacks over a real or fake
// time source.
package clock

import "time"

// Clock provides time operations and delayed callbacks that can be faked
// for testing.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration

	// Schedule arranges for fn to run once, no earlier than delay from now.
	// fn never runs inside Schedule itself.
	Schedule(delay time.Duration, fn func()) *Handle

	// Cancel stops h from firing. Cancelling a fired, cancelled or nil
	// handle is a no-op.
	Cancel(h *Handle)
}

type handleState uint8

const (
	statePending handleState = iota
	stateFired
	stateCancelled
)

// Handle is an opaque reference to one scheduled callback.
type Handle struct {
	at    time.Time
	seq   uint64
	fn    func()
	index int
	state handleState
}

// inert returns a handle that is already cancelled and will never fire.
func inert() *Handle {
	return &Handle{index: -1, state: stateCancelled}
}

// Deadline returns the time the callback is due.
func (h *Handle) Deadline() time.Time {
	if h == nil {
		return time.Time{}
	}
	return h.at
}
