package main

import (
	"flag"
	"fmt"
	"io"
	"sort"
	"time"

	"tribute/internal/collector"
	"tribute/internal/config"
	"tribute/internal/cue"
	"tribute/internal/sequence"
)

func runCheck(args []string, settings config.Settings, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	scriptPath := fs.String("script", settings.Script, "path to YAML script (default: built-in tribute)")
	if err := fs.Parse(args); err != nil {
		return ExitError
	}

	cfg, err := loadSequence(*scriptPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitError
	}
	printPlan(stdout, cfg)
	return ExitSuccess
}

type planEntry struct {
	at   time.Duration
	text string
}

// printPlan lists the fixed timeline: narrative steps, the finale and
// completion. Cue tracks are random and are listed by their windows.
func printPlan(w io.Writer, cfg sequence.Config) {
	fmt.Fprintf(w, "Bounds: %g%%-%g%%\n", cfg.Bounds.Min, cfg.Bounds.Max)
	fmt.Fprintln(w, "Tracks:")
	for _, t := range cfg.Tracks {
		first := t.FirstJitter()
		fmt.Fprintf(w, "  %-10s %-9s %2d cues  first %s-%s  visible %s",
			t.Name, t.Policy, len(t.Pool),
			collector.FormatDuration(first.Min), collector.FormatDuration(first.Max),
			collector.FormatDuration(t.Visible))
		if t.Policy == cue.RecurringRandom {
			fmt.Fprintf(w, "  every %s-%s",
				collector.FormatDuration(t.Jitter.Min), collector.FormatDuration(t.Jitter.Max))
		}
		fmt.Fprintln(w)
	}

	var plan []planEntry
	for _, s := range cfg.Narrative {
		plan = append(plan,
			planEntry{s.Offset, fmt.Sprintf("show %q", s.Text)},
			planEntry{s.End(), fmt.Sprintf("hide %q", s.Text)},
		)
	}
	f := cfg.Finale
	plan = append(plan, planEntry{f.At, fmt.Sprintf("finale: %d particles", f.Particles)})
	if f.NowPlaying.Title != "" {
		plan = append(plan, planEntry{f.At, fmt.Sprintf("now playing: %s - %s", f.NowPlaying.Title, f.NowPlaying.Artist)})
	}
	plan = append(plan, planEntry{cfg.TotalDuration(), "complete"})
	sort.SliceStable(plan, func(i, j int) bool { return plan[i].at < plan[j].at })

	fmt.Fprintln(w, "Timeline:")
	for _, p := range plan {
		fmt.Fprintf(w, "  %7s  %s\n", collector.FormatDuration(p.at), p.text)
	}
}
