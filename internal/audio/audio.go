// Package audio ties a playable audio handle to the sequence lifecycle.
package audio

import (
	"errors"
	"slices"
	"sync"
)

// State is the observable playback state of a handle.
type State struct {
	Paused bool
	Muted  bool
}

// Handle is a playable audio resource owned by the host. It outlives any
// single sequence.
type Handle interface {
	Play() error
	Pause()
	// Rewind moves the playback position back to the start.
	Rewind()
	SetMuted(muted bool)
	Paused() bool
	Muted() bool
	// Subscribe registers fn for play, pause and mute changes. The returned
	// function removes the subscription and is safe to call more than once.
	Subscribe(fn func(State)) (unsubscribe func())
}

var (
	// ErrPlaybackBlocked reports that the host refused to start playback,
	// the way a browser autoplay policy does.
	ErrPlaybackBlocked = errors.New("playback blocked")
)

// subscribers is the fan-out shared by handle implementations.
type subscribers struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(State)
}

func (s *subscribers) add(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func(State))
	}
	id := s.next
	s.next++
	s.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.fns, id)
			s.mu.Unlock()
		})
	}
}

// notify calls every subscriber outside the lock, in registration order.
func (s *subscribers) notify(st State) {
	s.mu.Lock()
	ids := make([]int, 0, len(s.fns))
	for id := range s.fns {
		ids = append(ids, id)
	}
	fns := make([]func(State), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, s.fns[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}
