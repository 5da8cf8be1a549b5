package collector

import (
	"slices"
	"time"

	"tribute/internal/display"
)

// Summary describes one run of a sequence.
type Summary struct {
	Events   int
	Duration time.Duration // offset of the last event

	Tracks map[string]*TrackSummary

	StepsShown     int
	Bursts         int
	Particles      int
	MaxVisibleCues int
	NowPlaying     bool
	Completed      bool
}

// TrackSummary is the activity of one cue track.
type TrackSummary struct {
	Shows int
	Hides int
	Cues  int // distinct cues that showed at least once

	FirstShow time.Duration
	LastShow  time.Duration

	// Gaps are the intervals between a cue hiding and showing again.
	Gaps DurationMetrics
}

// Transitions counts every show and hide of the track.
func (t *TrackSummary) Transitions() int { return t.Shows + t.Hides }

type DurationMetrics struct {
	Count int
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
	P50   time.Duration
	P90   time.Duration
}

// ComputeSummary summarises events in the order they were applied. Pure
// function, no side effects.
func ComputeSummary(events []display.Event) *Summary {
	s := &Summary{Tracks: make(map[string]*TrackSummary)}

	visible := make(map[string]bool)
	seen := make(map[string]bool)
	hiddenAt := make(map[string]time.Duration)
	gaps := make(map[string][]time.Duration)

	for _, e := range events {
		s.Events++
		s.Duration = max(s.Duration, e.At)

		switch e.Kind {
		case display.CueShown:
			t := s.track(e.Track)
			if t.Shows == 0 {
				t.FirstShow = e.At
			}
			t.Shows++
			t.LastShow = e.At
			if !seen[e.ID] {
				seen[e.ID] = true
				t.Cues++
			}
			if at, ok := hiddenAt[e.ID]; ok {
				gaps[e.Track] = append(gaps[e.Track], e.At-at)
				delete(hiddenAt, e.ID)
			}
			visible[e.ID] = true
			s.MaxVisibleCues = max(s.MaxVisibleCues, len(visible))
		case display.CueHidden:
			s.track(e.Track).Hides++
			hiddenAt[e.ID] = e.At
			delete(visible, e.ID)
		case display.StepShown:
			s.StepsShown++
		case display.Burst:
			s.Bursts++
			s.Particles += len(e.Particles)
		case display.NowPlayingShown:
			s.NowPlaying = true
		case display.Completed:
			s.Completed = true
		}
	}

	for name, d := range gaps {
		s.Tracks[name].Gaps = ComputeDurationMetrics(d)
	}
	return s
}

func (s *Summary) track(name string) *TrackSummary {
	t, ok := s.Tracks[name]
	if !ok {
		t = &TrackSummary{}
		s.Tracks[name] = t
	}
	return t
}

// TrackNames returns the track names in sorted order.
func (s *Summary) TrackNames() []string {
	names := make([]string, 0, len(s.Tracks))
	for name := range s.Tracks {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ComputeDurationMetrics computes distribution stats for durations.
func ComputeDurationMetrics(durations []time.Duration) DurationMetrics {
	if len(durations) == 0 {
		return DurationMetrics{}
	}
	sorted := slices.Clone(durations)
	slices.Sort(sorted)

	var total time.Duration
	for _, d := range sorted {
		total += d
	}
	return DurationMetrics{
		Count: len(sorted),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		Avg:   total / time.Duration(len(sorted)),
		P50:   ComputePercentile(sorted, 0.50),
		P90:   ComputePercentile(sorted, 0.90),
	}
}

// ComputePercentile returns the nearest-rank percentile p of sorted.
func ComputePercentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p*float64(len(sorted))+0.5) - 1
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}
