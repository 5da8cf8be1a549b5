// Package narrative stages the overlay's text reveals at fixed offsets
// from sequence start.
package narrative

import (
	"errors"
	"fmt"
	"time"

	"tribute/internal/clock"
	"tribute/internal/display"
)

// Step is one line of staged text.
type Step struct {
	Text     string
	Style    string
	Offset   time.Duration
	Duration time.Duration
}

// End returns when the step leaves the stage, relative to sequence start.
func (s Step) End() time.Duration { return s.Offset + s.Duration }

// Contains reports whether elapsed falls inside [Offset, End).
func (s Step) Contains(elapsed time.Duration) bool {
	return elapsed >= s.Offset && elapsed < s.End()
}

var ErrInvalidStep = errors.New("invalid narrative step")

// Validate checks each step on its own. Offsets need not be ordered and
// windows may overlap.
func Validate(steps []Step) error {
	var errs []error
	for i, s := range steps {
		if s.Offset < 0 {
			errs = append(errs, fmt.Errorf("%w %d: negative offset %v", ErrInvalidStep, i, s.Offset))
		}
		if s.Duration <= 0 {
			errs = append(errs, fmt.Errorf("%w %d: duration must be positive, got %v", ErrInvalidStep, i, s.Duration))
		}
	}
	return errors.Join(errs...)
}

// End returns the latest end time across steps.
func End(steps []Step) time.Duration {
	var end time.Duration
	for _, s := range steps {
		if e := s.End(); e > end {
			end = e
		}
	}
	return end
}

// ActiveAt returns the indices of steps on stage at elapsed, in step order.
func ActiveAt(steps []Step, elapsed time.Duration) []int {
	var active []int
	for i, s := range steps {
		if s.Contains(elapsed) {
			active = append(active, i)
		}
	}
	return active
}

// Track schedules every step's show and hide once. It is driven by clock
// callbacks and is not safe for concurrent use.
type Track struct {
	name  string
	steps []Step
	clock clock.Clock
	sink  display.Sink

	visible []bool
	handles []*clock.Handle
}

func NewTrack(name string, steps []Step, c clock.Clock, sink display.Sink) *Track {
	if sink == nil {
		sink = display.Discard
	}
	return &Track{
		name:    name,
		steps:   steps,
		clock:   c,
		sink:    sink,
		visible: make([]bool, len(steps)),
	}
}

func (t *Track) Steps() []Step { return t.steps }

// StepID names step i in display events.
func (t *Track) StepID(i int) string { return fmt.Sprintf("%s/%d", t.name, i) }

// Start schedules each step relative to startedAt. Time already elapsed
// since startedAt is subtracted; overdue transitions fire on the next tick.
func (t *Track) Start(startedAt time.Time) []*clock.Handle {
	elapsed := t.clock.Since(startedAt)
	t.handles = make([]*clock.Handle, 0, 2*len(t.steps))
	for i := range t.steps {
		step := t.steps[i]
		t.handles = append(t.handles,
			t.clock.Schedule(step.Offset-elapsed, func() { t.show(i) }),
			t.clock.Schedule(step.End()-elapsed, func() { t.hide(i) }),
		)
	}
	return t.handles
}

func (t *Track) show(i int) {
	t.visible[i] = true
	s := t.steps[i]
	t.sink.Apply(display.Event{
		Kind:  display.StepShown,
		Track: t.name,
		ID:    t.StepID(i),
		Text:  s.Text,
		Style: s.Style,
	})
}

func (t *Track) hide(i int) {
	t.visible[i] = false
	t.sink.Apply(display.Event{Kind: display.StepHidden, Track: t.name, ID: t.StepID(i)})
}

func (t *Track) Cancel() {
	for _, h := range t.handles {
		t.clock.Cancel(h)
	}
	t.handles = nil
}

// Visible returns the indices of steps currently shown.
func (t *Track) Visible() []int {
	var out []int
	for i, v := range t.visible {
		if v {
			out = append(out, i)
		}
	}
	return out
}
