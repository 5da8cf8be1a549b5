package sequence

import (
	"errors"
	"fmt"
	"time"

	"tribute/internal/cue"
	"tribute/internal/finale"
	"tribute/internal/narrative"
	"tribute/internal/placement"
)

// Config is the whole timeline of one sequence.
type Config struct {
	Bounds    placement.Bounds
	Tracks    []cue.Config
	Narrative []narrative.Step
	Finale    finale.Config
}

var ErrInvalidConfig = errors.New("invalid sequence")

// Validate checks every part of the timeline and reports all problems at
// once.
func (c Config) Validate() error {
	var errs []error
	if err := c.Bounds.Validate(); err != nil {
		errs = append(errs, err)
	}

	seen := make(map[string]bool, len(c.Tracks))
	for _, t := range c.Tracks {
		if seen[t.Name] {
			errs = append(errs, fmt.Errorf("duplicate track %q", t.Name))
		}
		seen[t.Name] = true
		if err := t.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if seen[NarrativeTrack] {
		errs = append(errs, fmt.Errorf("track name %q is reserved", NarrativeTrack))
	}

	if err := narrative.Validate(c.Narrative); err != nil {
		errs = append(errs, err)
	}
	if err := c.Finale.Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// TotalDuration is the offset of natural completion: the later of the
// last narrative step ending and the finale finishing.
func (c Config) TotalDuration() time.Duration {
	return max(narrative.End(c.Narrative), c.Finale.At+c.Finale.Hold())
}
