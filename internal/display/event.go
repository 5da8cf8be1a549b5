// Package display defines the events the sequencer emits to whatever draws
// the overlay, and an in-memory board that tracks what is on screen.
package display

import (
	"encoding/json"
	"sync"
	"time"

	"tribute/internal/placement"
)

// Kind identifies a display mutation.
type Kind string

const (
	CueShown         Kind = "cue_shown"
	CueHidden        Kind = "cue_hidden"
	StepShown        Kind = "step_shown"
	StepHidden       Kind = "step_hidden"
	Burst            Kind = "burst"
	ParticleExpired  Kind = "particle_expired"
	NowPlayingShown  Kind = "now_playing_shown"
	NowPlayingState  Kind = "now_playing_state"
	NowPlayingHidden Kind = "now_playing_hidden"
	Completed        Kind = "completed"
)

// Particle is one piece of the finale burst, launched from stage centre.
type Particle struct {
	ID    string        `json:"id"`
	DX    float64       `json:"dx"`
	DY    float64       `json:"dy"`
	Color string        `json:"color"`
	Size  float64       `json:"size"`
	Delay time.Duration `json:"-"`
}

// MarshalJSON encodes Delay as whole milliseconds.
func (p Particle) MarshalJSON() ([]byte, error) {
	type plain Particle
	return json.Marshal(struct {
		plain
		DelayMS int64 `json:"delay_ms"`
	}{plain(p), p.Delay.Milliseconds()})
}

// Event is a single display mutation. Fields irrelevant to Kind are zero.
type Event struct {
	Kind      Kind                `json:"kind"`
	Track     string              `json:"track,omitempty"`
	ID        string              `json:"id,omitempty"`
	Text      string              `json:"text,omitempty"`
	Color     string              `json:"color,omitempty"`
	Style     string              `json:"style,omitempty"`
	Position  *placement.Position `json:"position,omitempty"`
	Particles []Particle          `json:"particles,omitempty"`
	Playing   bool                `json:"-"`
	Title     string              `json:"title,omitempty"`
	Artist    string              `json:"artist,omitempty"`

	// At is the offset from sequence start, stamped by the sequence.
	At time.Duration `json:"-"`
}

// MarshalJSON encodes At as whole milliseconds. Now-playing events always
// carry playing, false included; other kinds omit it.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	var playing *bool
	if e.Kind == NowPlayingShown || e.Kind == NowPlayingState {
		playing = &e.Playing
	}
	return json.Marshal(struct {
		plain
		Playing *bool `json:"playing,omitempty"`
		AtMS    int64 `json:"at_ms"`
	}{plain(e), playing, e.At.Milliseconds()})
}

// Sink receives display events.
type Sink interface {
	Apply(Event)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Event)

func (f SinkFunc) Apply(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Multi fans every event out to each sink in order.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(e Event) {
		for _, s := range sinks {
			s.Apply(e)
		}
	})
}

// Recorder keeps every event it receives. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Apply(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many events of kind k were recorded.
func (r *Recorder) Count(k Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == k {
			n++
		}
	}
	return n
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}
