package cue

import (
	"fmt"
	"math/rand/v2"

	"tribute/internal/clock"
	"tribute/internal/display"
	"tribute/internal/placement"
	"tribute/internal/pool"
)

// Cue is one floating item. Position is re-drawn every time it shows.
type Cue struct {
	ID       string
	Content  string
	Color    pool.Color
	Visible  bool
	Position placement.Position
	Shows    int

	handle *clock.Handle
}

// Track is a set of cues sharing a content pool and scheduling policy.
// Each cue owns at most one live handle at a time. A Track is driven by
// clock callbacks and is not safe for concurrent use.
type Track struct {
	cfg    Config
	clock  clock.Clock
	places *placement.Generator
	rng    *rand.Rand
	sink   display.Sink

	cues        []*Cue
	transitions int
}

func NewTrack(cfg Config, c clock.Clock, places *placement.Generator, rng *rand.Rand, sink display.Sink) *Track {
	if sink == nil {
		sink = display.Discard
	}
	return &Track{cfg: cfg, clock: c, places: places, rng: rng, sink: sink}
}

func (t *Track) Name() string   { return t.cfg.Name }
func (t *Track) Policy() Policy { return t.cfg.Policy }

// Start creates the track's cues and schedules each one's first show.
// It returns the scheduled handles.
func (t *Track) Start() []*clock.Handle {
	entries := pool.Pick(t.cfg.Pool, t.cfg.Sample, t.cfg.SampleMode, t.rng)
	t.cues = make([]*Cue, 0, len(entries))
	handles := make([]*clock.Handle, 0, len(entries))
	first := t.cfg.FirstJitter()

	for i, e := range entries {
		c := &Cue{
			ID:      fmt.Sprintf("%s/%d", t.cfg.Name, i),
			Content: e.Content,
			Color:   e.Color,
		}
		t.cues = append(t.cues, c)
		c.handle = t.clock.Schedule(first.Draw(t.rng), func() { t.show(c) })
		handles = append(handles, c.handle)
	}
	return handles
}

func (t *Track) show(c *Cue) {
	c.Position = t.places.Next()
	c.Visible = true
	c.Shows++
	t.transitions++

	pos := c.Position
	t.sink.Apply(display.Event{
		Kind:     display.CueShown,
		Track:    t.cfg.Name,
		ID:       c.ID,
		Text:     c.Content,
		Color:    string(c.Color),
		Position: &pos,
	})
	c.handle = t.clock.Schedule(t.cfg.Visible, func() { t.hide(c) })
}

func (t *Track) hide(c *Cue) {
	c.Visible = false
	t.transitions++
	t.sink.Apply(display.Event{Kind: display.CueHidden, Track: t.cfg.Name, ID: c.ID})

	if t.cfg.Policy != RecurringRandom {
		c.handle = nil
		return
	}
	c.handle = t.clock.Schedule(t.cfg.Jitter.Draw(t.rng), func() { t.show(c) })
}

// Cancel cancels every cue's live handle. Cues keep their visibility; the
// caller clears the stage.
func (t *Track) Cancel() {
	for _, c := range t.cues {
		t.clock.Cancel(c.handle)
		c.handle = nil
	}
}

// Handles returns the live handle of each cue that still has one.
func (t *Track) Handles() []*clock.Handle {
	var out []*clock.Handle
	for _, c := range t.cues {
		if c.handle != nil {
			out = append(out, c.handle)
		}
	}
	return out
}

// Cues returns a snapshot of the track's cues in pool order.
func (t *Track) Cues() []Cue {
	out := make([]Cue, len(t.cues))
	for i, c := range t.cues {
		out[i] = *c
		out[i].handle = nil
	}
	return out
}

// Transitions returns how many show and hide transitions have happened.
func (t *Track) Transitions() int { return t.transitions }
