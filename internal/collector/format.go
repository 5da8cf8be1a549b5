package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// FormatText writes the summary in human-readable format.
func FormatText(w io.Writer, s *Summary) {
	if s.Events == 0 {
		fmt.Fprintln(w, "No events collected")
		return
	}

	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Tribute - Run Summary")
	fmt.Fprintln(w, "=====================")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Duration:      %s\n", FormatDuration(s.Duration))
	fmt.Fprintf(w, "Events:        %d\n", s.Events)
	fmt.Fprintf(w, "Steps shown:   %d\n", s.StepsShown)
	fmt.Fprintf(w, "Bursts:        %d (%d particles)\n", s.Bursts, s.Particles)
	fmt.Fprintf(w, "Max on stage:  %d cues\n", s.MaxVisibleCues)
	fmt.Fprintf(w, "Now playing:   %s\n", yesNo(s.NowPlaying))
	fmt.Fprintf(w, "Completed:     %s\n", yesNo(s.Completed))

	if len(s.Tracks) == 0 {
		return
	}
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "By Track:")
	for _, name := range s.TrackNames() {
		t := s.Tracks[name]
		fmt.Fprintf(w, "  %-12s %3d shows  %2d cues  first=%s  last=%s",
			name, t.Shows, t.Cues, FormatDuration(t.FirstShow), FormatDuration(t.LastShow))
		if t.Gaps.Count > 0 {
			fmt.Fprintf(w, "  gap avg=%s p90=%s", FormatDuration(t.Gaps.Avg), FormatDuration(t.Gaps.P90))
		}
		fmt.Fprintln(w)
	}
}

// FormatJSON writes the summary in JSON format.
func FormatJSON(w io.Writer, s *Summary) {
	output := struct {
		Duration       string                      `json:"duration"`
		Events         int                         `json:"events"`
		StepsShown     int                         `json:"stepsShown"`
		Bursts         int                         `json:"bursts"`
		Particles      int                         `json:"particles"`
		MaxVisibleCues int                         `json:"maxVisibleCues"`
		NowPlaying     bool                        `json:"nowPlaying"`
		Completed      bool                        `json:"completed"`
		Tracks         map[string]jsonTrackSummary `json:"tracks"`
	}{
		Duration:       s.Duration.Round(time.Millisecond).String(),
		Events:         s.Events,
		StepsShown:     s.StepsShown,
		Bursts:         s.Bursts,
		Particles:      s.Particles,
		MaxVisibleCues: s.MaxVisibleCues,
		NowPlaying:     s.NowPlaying,
		Completed:      s.Completed,
		Tracks:         make(map[string]jsonTrackSummary),
	}

	for name, t := range s.Tracks {
		output.Tracks[name] = jsonTrackSummary{
			Shows:       t.Shows,
			Hides:       t.Hides,
			Cues:        t.Cues,
			FirstShowMS: t.FirstShow.Milliseconds(),
			LastShowMS:  t.LastShow.Milliseconds(),
			GapAvg:      FormatDuration(t.Gaps.Avg),
			GapP90:      FormatDuration(t.Gaps.P90),
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(output) // stdout errors are unrecoverable
}

type jsonTrackSummary struct {
	Shows       int    `json:"shows"`
	Hides       int    `json:"hides"`
	Cues        int    `json:"cues"`
	FirstShowMS int64  `json:"firstShowMs"`
	LastShowMS  int64  `json:"lastShowMs"`
	GapAvg      string `json:"gapAvg"`
	GapP90      string `json:"gapP90"`
}

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
