package sequence

import (
	"sync"
	"time"

	"tribute/internal/clock"
	"tribute/internal/display"
)

// gate stamps every event with its offset from sequence start and stops
// all traffic once closed. Events are forwarded under the lock, so when
// close returns nothing can still be on its way to the sink.
type gate struct {
	next  display.Sink
	clock clock.Clock

	mu        sync.Mutex
	startedAt time.Time
	closed    bool
	forwarded int
}

func newGate(next display.Sink, c clock.Clock) *gate {
	if next == nil {
		next = display.Discard
	}
	return &gate{next: next, clock: c}
}

func (g *gate) open(startedAt time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.startedAt = startedAt
}

func (g *gate) Apply(e display.Event) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	e.At = g.clock.Since(g.startedAt)
	g.forwarded++
	g.next.Apply(e)
}

func (g *gate) close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
}

func (g *gate) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.forwarded
}
