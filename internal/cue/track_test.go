package cue

import (
	"errors"
	"testing"
	"time"

	"tribute/internal/clock"
	"tribute/internal/display"
	"tribute/internal/placement"
	"tribute/internal/pool"
	"tribute/internal/random"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func forexPool() []pool.Entry {
	return []pool.Entry{
		{Content: "EUR/USD", Color: pool.Neutral},
		{Content: "GBP/JPY", Color: pool.Neutral},
		{Content: "XAU/USD", Color: pool.Neutral},
	}
}

func newTrack(t *testing.T, cfg Config, seed uint64) (*Track, *clock.Fake, *display.Recorder) {
	t.Helper()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	fc := clock.NewFake(epoch)
	rng := random.New(seed)
	rec := &display.Recorder{}
	tr := NewTrack(cfg, fc, placement.NewGenerator(placement.DefaultBounds, rng), rng, rec)
	return tr, fc, rec
}

func TestTrack_StartSchedulesOnePerEntry(t *testing.T) {
	tr, fc, _ := newTrack(t, Config{
		Name:    "forex",
		Policy:  RecurringRandom,
		Pool:    forexPool(),
		Jitter:  Window{Min: time.Second, Max: 3 * time.Second},
		Visible: time.Second,
	}, 1)

	handles := tr.Start()

	if len(handles) != 3 {
		t.Errorf("expected 3 handles, got %d", len(handles))
	}
	if fc.Pending() != 3 {
		t.Errorf("expected 3 pending callbacks, got %d", fc.Pending())
	}
	for _, c := range tr.Cues() {
		if c.Visible {
			t.Errorf("expected cue %s hidden before its delay", c.ID)
		}
	}
}

func TestTrack_RecurringPositionsInBounds(t *testing.T) {
	tr, fc, rec := newTrack(t, Config{
		Name:    "forex",
		Policy:  RecurringRandom,
		Pool:    forexPool(),
		Jitter:  Window{Min: 200 * time.Millisecond, Max: 500 * time.Millisecond},
		Visible: 100 * time.Millisecond,
	}, 2)
	tr.Start()

	fc.Advance(time.Minute)

	shown := 0
	for _, e := range rec.Events() {
		if e.Kind != display.CueShown {
			continue
		}
		shown++
		if e.Position == nil || !placement.DefaultBounds.Contains(*e.Position) {
			t.Fatalf("cue %s shown at %+v, outside %+v", e.ID, e.Position, placement.DefaultBounds)
		}
	}
	if shown < 180 {
		t.Errorf("expected recurring cues to keep showing, got %d shows in a minute", shown)
	}
}

func TestTrack_RecurringTransitionRate(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		tr, fc, _ := newTrack(t, Config{
			Name:    "ticker",
			Policy:  RecurringRandom,
			Pool:    []pool.Entry{{Content: "US30"}},
			Jitter:  Window{Min: time.Second, Max: 3 * time.Second},
			Visible: time.Second,
		}, seed)
		tr.Start()

		fc.Advance(10 * time.Second)

		n := tr.Transitions()
		if n < 3 || n > 10 {
			t.Errorf("seed %d: expected 3..10 transitions in 10s, got %d", seed, n)
		}
	}
}

func TestTrack_OneShotShowsOnce(t *testing.T) {
	tr, fc, rec := newTrack(t, Config{
		Name:    "outcomes",
		Policy:  OneShot,
		Pool:    []pool.Entry{{Content: "+120 pips", Color: pool.Profit}, {Content: "-35 pips", Color: pool.Loss}},
		Jitter:  Window{Min: time.Second, Max: 2 * time.Second},
		Visible: 500 * time.Millisecond,
	}, 3)
	tr.Start()

	fc.Advance(time.Minute)

	if n := rec.Count(display.CueShown); n != 2 {
		t.Errorf("expected 2 shows, got %d", n)
	}
	if n := rec.Count(display.CueHidden); n != 2 {
		t.Errorf("expected 2 hides, got %d", n)
	}
	if fc.Pending() != 0 {
		t.Errorf("expected nothing pending after one-shot cues finish, got %d", fc.Pending())
	}
	if len(tr.Handles()) != 0 {
		t.Errorf("expected no live handles, got %d", len(tr.Handles()))
	}
	for _, e := range rec.Events() {
		if e.Kind == display.CueShown && e.Text == "-35 pips" && e.Color != string(pool.Loss) {
			t.Errorf("expected loss color, got %q", e.Color)
		}
	}
}

func TestTrack_VisibleDuration(t *testing.T) {
	tr, fc, _ := newTrack(t, Config{
		Name:    "solo",
		Policy:  OneShot,
		Pool:    []pool.Entry{{Content: "BTC/USD"}},
		Jitter:  Window{Min: time.Second, Max: time.Second},
		Visible: 2 * time.Second,
	}, 4)
	tr.Start()

	fc.Advance(1500 * time.Millisecond)
	if !tr.Cues()[0].Visible {
		t.Fatal("expected cue visible at 1.5s")
	}
	fc.Advance(1500 * time.Millisecond)
	if tr.Cues()[0].Visible {
		t.Error("expected cue hidden at 3s")
	}
}

func TestTrack_InitialJitter(t *testing.T) {
	tr, fc, _ := newTrack(t, Config{
		Name:          "late",
		Policy:        RecurringRandom,
		Pool:          []pool.Entry{{Content: "AUD/JPY"}},
		InitialJitter: &Window{Min: 5 * time.Second, Max: 5 * time.Second},
		Jitter:        Window{Min: 0, Max: time.Second},
		Visible:       time.Second,
	}, 5)
	tr.Start()

	fc.Advance(4999 * time.Millisecond)
	if tr.Cues()[0].Shows != 0 {
		t.Fatal("expected no show before initial jitter elapses")
	}
	fc.Advance(time.Millisecond)
	if tr.Cues()[0].Shows != 1 {
		t.Error("expected first show at initial jitter")
	}
}

func TestTrack_ExplicitZeroInitialJitterShowsImmediately(t *testing.T) {
	tr, fc, _ := newTrack(t, Config{
		Name:          "instant",
		Policy:        RecurringRandom,
		Pool:          []pool.Entry{{Content: "NAS100"}},
		InitialJitter: &Window{},
		Jitter:        Window{Min: 5 * time.Second, Max: 5 * time.Second},
		Visible:       time.Second,
	}, 5)
	tr.Start()

	fc.Advance(0)
	if tr.Cues()[0].Shows != 1 {
		t.Error("expected a zero initial window to show the cue at once, not fall back to jitter")
	}
}

func TestTrack_CancelStopsEverything(t *testing.T) {
	tr, fc, rec := newTrack(t, Config{
		Name:    "forex",
		Policy:  RecurringRandom,
		Pool:    forexPool(),
		Jitter:  Window{Min: 100 * time.Millisecond, Max: 300 * time.Millisecond},
		Visible: 100 * time.Millisecond,
	}, 6)
	tr.Start()
	fc.Advance(2 * time.Second)

	tr.Cancel()
	before := rec.Len()
	fc.Flush()
	fc.Advance(time.Minute)

	if rec.Len() != before {
		t.Errorf("expected no events after Cancel, got %d new", rec.Len()-before)
	}
	if fc.Pending() != 0 {
		t.Errorf("expected 0 pending after Cancel, got %d", fc.Pending())
	}
}

func TestTrack_Sample(t *testing.T) {
	tr, _, _ := newTrack(t, Config{
		Name:       "some",
		Policy:     OneShot,
		Pool:       forexPool(),
		Jitter:     Window{Max: time.Second},
		Visible:    time.Second,
		Sample:     2,
		SampleMode: pool.ModeRandom,
	}, 7)

	if n := len(tr.Start()); n != 2 {
		t.Errorf("expected 2 sampled cues, got %d", n)
	}
}

func TestWindow_Draw(t *testing.T) {
	rng := random.New(8)
	w := Window{Min: time.Second, Max: 3 * time.Second}
	for i := 0; i < 1000; i++ {
		d := w.Draw(rng)
		if d < w.Min || d > w.Max {
			t.Fatalf("draw %v outside [%v, %v]", d, w.Min, w.Max)
		}
	}
	if d := (Window{Min: time.Second, Max: time.Second}).Draw(rng); d != time.Second {
		t.Errorf("expected fixed window to return %v, got %v", time.Second, d)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		Name:    "forex",
		Policy:  RecurringRandom,
		Pool:    forexPool(),
		Jitter:  Window{Min: time.Second, Max: 2 * time.Second},
		Visible: time.Second,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no name", func(c *Config) { c.Name = "" }},
		{"empty pool", func(c *Config) { c.Pool = nil }},
		{"inverted jitter", func(c *Config) { c.Jitter = Window{Min: 2 * time.Second, Max: time.Second} }},
		{"negative initial jitter", func(c *Config) { c.InitialJitter = &Window{Min: -time.Second} }},
		{"zero visible", func(c *Config) { c.Visible = 0 }},
		{"bad policy", func(c *Config) { c.Policy = Policy(9) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestParsePolicy(t *testing.T) {
	if p, err := ParsePolicy("recurring"); err != nil || p != RecurringRandom {
		t.Errorf("expected RecurringRandom, got %v, %v", p, err)
	}
	if p, err := ParsePolicy("one_shot"); err != nil || p != OneShot {
		t.Errorf("expected OneShot, got %v, %v", p, err)
	}
	if _, err := ParsePolicy("sometimes"); !errors.Is(err, ErrUnknownPolicy) {
		t.Errorf("expected ErrUnknownPolicy, got %v", err)
	}
}
