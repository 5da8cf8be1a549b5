package audio

import (
	"fmt"
	"sync"
	"time"
)

// Element is an in-memory audio handle with the semantics of a page audio
// element: it starts paused, and Play can be refused by an autoplay policy.
type Element struct {
	mu       sync.Mutex
	src      string
	paused   bool
	muted    bool
	position time.Duration
	blocked  error
	plays    int
	pauses   int

	subs subscribers
}

func NewElement(src string) *Element {
	return &Element{src: src, paused: true}
}

func (e *Element) Source() string { return e.src }

// BlockAutoplay makes every Play fail with reason until called with nil.
func (e *Element) BlockAutoplay(reason error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.blocked = reason
}

func (e *Element) Play() error {
	e.mu.Lock()
	if e.blocked != nil {
		err := e.blocked
		e.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrPlaybackBlocked, err)
	}
	if !e.paused {
		e.mu.Unlock()
		return nil
	}
	e.paused = false
	e.plays++
	st := e.stateLocked()
	e.mu.Unlock()

	e.subs.notify(st)
	return nil
}

func (e *Element) Pause() {
	e.mu.Lock()
	if e.paused {
		e.mu.Unlock()
		return
	}
	e.paused = true
	e.pauses++
	st := e.stateLocked()
	e.mu.Unlock()

	e.subs.notify(st)
}

func (e *Element) Rewind() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position = 0
}

// Seek moves the playback position, as the host's media clock would.
func (e *Element) Seek(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position = d
}

func (e *Element) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

func (e *Element) SetMuted(muted bool) {
	e.mu.Lock()
	if e.muted == muted {
		e.mu.Unlock()
		return
	}
	e.muted = muted
	st := e.stateLocked()
	e.mu.Unlock()

	e.subs.notify(st)
}

func (e *Element) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

func (e *Element) Muted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.muted
}

func (e *Element) Subscribe(fn func(State)) func() {
	return e.subs.add(fn)
}

// Plays and Pauses count effective play and pause transitions.
func (e *Element) Plays() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.plays
}

func (e *Element) Pauses() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pauses
}

func (e *Element) stateLocked() State {
	return State{Paused: e.paused, Muted: e.muted}
}
