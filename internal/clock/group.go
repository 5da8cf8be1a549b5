package clock

import (
	"sync"
	"time"
)

// Group is a Clock that remembers every handle scheduled through it until
// the handle fires or is cancelled, so all outstanding work can be
// cancelled at once.
type Group struct {
	base Clock

	mu     sync.Mutex
	live   map[*Handle]struct{}
	closed bool
}

func NewGroup(base Clock) *Group {
	return &Group{
		base: base,
		live: make(map[*Handle]struct{}),
	}
}

func (g *Group) Now() time.Time                  { return g.base.Now() }
func (g *Group) Since(t time.Time) time.Duration { return g.base.Since(t) }

// Schedule registers fn with the underlying clock. Once the group is
// closed it returns an inert handle and fn is dropped.
func (g *Group) Schedule(delay time.Duration, fn func()) *Handle {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return inert()
	}

	var h *Handle
	h = g.base.Schedule(delay, func() {
		g.mu.Lock()
		_, ok := g.live[h]
		delete(g.live, h)
		g.mu.Unlock()
		if ok {
			fn()
		}
	})
	g.live[h] = struct{}{}
	return h
}

func (g *Group) Cancel(h *Handle) {
	if h == nil {
		return
	}
	g.mu.Lock()
	delete(g.live, h)
	g.mu.Unlock()
	g.base.Cancel(h)
}

// Len returns the number of outstanding handles.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.live)
}

// Handles returns the outstanding handles in no particular order.
func (g *Group) Handles() []*Handle {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Handle, 0, len(g.live))
	for h := range g.live {
		out = append(out, h)
	}
	return out
}

// Closed reports whether CancelAll has been called.
func (g *Group) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

// CancelAll cancels every outstanding handle and closes the group. It
// returns how many handles were cancelled; repeated calls return 0.
func (g *Group) CancelAll() int {
	g.mu.Lock()
	handles := make([]*Handle, 0, len(g.live))
	for h := range g.live {
		handles = append(handles, h)
	}
	g.live = make(map[*Handle]struct{})
	g.closed = true
	g.mu.Unlock()

	for _, h := range handles {
		g.base.Cancel(h)
	}
	return len(handles)
}
