package clock

import (
	"sync"
	"time"
)

// Fake is a test clock that only moves when advanced. Callbacks run on the
// goroutine that advances it.
type Fake struct {
	mu      sync.Mutex
	current time.Time
	pending queue
}

func NewFake(start time.Time) *Fake {
	return &Fake{current: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *Fake) Since(t time.Time) time.Duration { return f.Now().Sub(t) }

func (f *Fake) Schedule(delay time.Duration, fn func()) *Handle {
	if delay < 0 {
		delay = 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending.add(f.current.Add(delay), fn)
}

func (f *Fake) Cancel(h *Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending.remove(h)
}

// Pending returns the number of callbacks waiting to fire.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending.Len()
}

// Advance moves time forward by d, running every callback that falls due,
// including ones scheduled by callbacks inside the window.
func (f *Fake) Advance(d time.Duration) {
	f.AdvanceTo(f.Now().Add(d))
}

// AdvanceTo moves time forward to t. Moving backwards is ignored.
func (f *Fake) AdvanceTo(t time.Time) {
	for {
		f.mu.Lock()
		h := f.pending.popDue(t)
		if h == nil {
			if t.After(f.current) {
				f.current = t
			}
			f.mu.Unlock()
			return
		}
		if h.at.After(f.current) {
			f.current = h.at
		}
		f.mu.Unlock()
		h.fn()
	}
}

// Flush runs every callback that is pending at call time, moving time to
// each deadline. Callbacks scheduled while flushing are left pending.
// It returns how many callbacks ran.
func (f *Fake) Flush() int {
	f.mu.Lock()
	limit := f.pending.seq
	f.mu.Unlock()

	ran := 0
	for {
		f.mu.Lock()
		h := f.nextUpTo(limit)
		if h == nil {
			f.mu.Unlock()
			return ran
		}
		if h.at.After(f.current) {
			f.current = h.at
		}
		f.mu.Unlock()
		h.fn()
		ran++
	}
}

func (f *Fake) nextUpTo(limit uint64) *Handle {
	var best *Handle
	for _, h := range f.pending.items {
		if h.seq > limit {
			continue
		}
		if best == nil || h.at.Before(best.at) || (h.at.Equal(best.at) && h.seq < best.seq) {
			best = h
		}
	}
	if best == nil {
		return nil
	}
	f.pending.remove(best)
	best.state = stateFired
	return best
}
