// Package collector records the display events of a run and summarises
// them.
package collector

import (
	"sync"
	"sync/atomic"

	"tribute/internal/display"
)

// Collector is a display.Sink that records every event on its own
// goroutine so the sequence never waits on it.
type Collector struct {
	events  []display.Event
	ch      chan display.Event
	done    chan struct{}
	mu      sync.Mutex
	closed  sync.Once
	dropped atomic.Int64
}

// NewCollector creates a Collector and starts its collection goroutine.
func NewCollector() *Collector {
	c := &Collector{
		events: make([]display.Event, 0),
		ch:     make(chan display.Event, 1000),
		done:   make(chan struct{}),
	}
	go c.collect()
	return c
}

func (c *Collector) collect() {
	for e := range c.ch {
		c.mu.Lock()
		c.events = append(c.events, e)
		c.mu.Unlock()
	}
	close(c.done)
}

// Apply records e. It never blocks: when the buffer is full the event is
// counted as dropped.
func (c *Collector) Apply(e display.Event) {
	select {
	case c.ch <- e:
	default:
		c.dropped.Add(1)
	}
}

// Close stops accepting events and waits for buffered ones to be recorded.
// No Apply may run concurrently with or after Close.
func (c *Collector) Close() {
	c.closed.Do(func() {
		close(c.ch)
	})
	<-c.done
}

// Events returns a copy of the recorded events.
func (c *Collector) Events() []display.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]display.Event, len(c.events))
	copy(out, c.events)
	return out
}

// DroppedEvents returns how many events did not fit in the buffer.
func (c *Collector) DroppedEvents() int64 { return c.dropped.Load() }

// Compute summarises everything recorded so far.
func (c *Collector) Compute() *Summary {
	return ComputeSummary(c.Events())
}
