// Package cue schedules floating cues: short-lived pieces of content that
// pop up at random positions on their own jittered timers.
package cue

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"tribute/internal/pool"
)

// Policy decides whether a cue shows once or keeps coming back.
type Policy int

const (
	OneShot Policy = iota
	RecurringRandom
)

func (p Policy) String() string {
	switch p {
	case OneShot:
		return "one_shot"
	case RecurringRandom:
		return "recurring"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

var ErrUnknownPolicy = errors.New("unknown cue policy")

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "one_shot", "oneshot", "once":
		return OneShot, nil
	case "recurring", "recurring_random":
		return RecurringRandom, nil
	default:
		return 0, fmt.Errorf("%w %q", ErrUnknownPolicy, s)
	}
}

// Window is a closed range random delays are drawn from.
type Window struct {
	Min time.Duration
	Max time.Duration
}

func (w Window) Validate() error {
	if w.Min < 0 || w.Max < w.Min {
		return fmt.Errorf("invalid window [%v, %v]", w.Min, w.Max)
	}
	return nil
}

// Draw returns a uniform delay in [Min, Max].
func (w Window) Draw(rng *rand.Rand) time.Duration {
	span := w.Max - w.Min
	if span <= 0 {
		return w.Min
	}
	return w.Min + time.Duration(rng.Int64N(int64(span)+1))
}

// Config describes one track.
type Config struct {
	Name   string
	Policy Policy
	Pool   []pool.Entry

	// Jitter is the delay between a cue hiding and showing again.
	Jitter Window
	// InitialJitter is the delay before a cue first shows. Nil means Jitter.
	InitialJitter *Window
	// Visible is how long a cue stays on stage each time it shows.
	Visible time.Duration

	// Sample, when positive, instantiates only that many cues from Pool.
	Sample     int
	SampleMode pool.Mode
}

var ErrInvalidConfig = errors.New("invalid cue track")

func (c Config) Validate() error {
	var errs []error
	if c.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if c.Policy != OneShot && c.Policy != RecurringRandom {
		errs = append(errs, fmt.Errorf("%w %d", ErrUnknownPolicy, int(c.Policy)))
	}
	if len(c.Pool) == 0 {
		errs = append(errs, pool.ErrEmptyPool)
	}
	if err := c.Jitter.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("jitter: %w", err))
	}
	if c.InitialJitter != nil {
		if err := c.InitialJitter.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("initial jitter: %w", err))
		}
	}
	if c.Visible <= 0 {
		errs = append(errs, errors.New("visible duration must be positive"))
	}
	if c.Sample < 0 {
		errs = append(errs, errors.New("sample must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w %q: %w", ErrInvalidConfig, c.Name, errors.Join(errs...))
	}
	return nil
}

// FirstJitter is the window the first show of each cue is drawn from.
func (c Config) FirstJitter() Window {
	if c.InitialJitter == nil {
		return c.Jitter
	}
	return *c.InitialJitter
}
