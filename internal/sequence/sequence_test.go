package sequence

import (
	"errors"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"tribute/internal/audio"
	"tribute/internal/clock"
	"tribute/internal/cue"
	"tribute/internal/display"
	"tribute/internal/finale"
	"tribute/internal/narrative"
	"tribute/internal/placement"
	"tribute/internal/pool"
	"tribute/internal/random"
	"tribute/internal/telemetry"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func fullConfig() Config {
	return Config{
		Bounds: placement.DefaultBounds,
		Tracks: []cue.Config{
			{
				Name:          "forex",
				Policy:        cue.RecurringRandom,
				Pool:          []pool.Entry{{Content: "EUR/USD"}, {Content: "GBP/JPY"}, {Content: "XAU/USD"}},
				Jitter:        cue.Window{Min: 2 * time.Second, Max: 5 * time.Second},
				InitialJitter: &cue.Window{Max: 5 * time.Second},
				Visible:       2 * time.Second,
			},
			{
				Name:          "outcomes",
				Policy:        cue.OneShot,
				Pool:          []pool.Entry{{Content: "+120 pips", Color: pool.Profit}, {Content: "SL hit", Color: pool.Loss}},
				InitialJitter: &cue.Window{Min: time.Second, Max: 14 * time.Second},
				Jitter:        cue.Window{Min: time.Second, Max: 14 * time.Second},
				Visible:       3 * time.Second,
			},
		},
		Narrative: []narrative.Step{
			{Text: "The struggle is worth it.", Offset: 6 * time.Second, Duration: 4 * time.Second},
			{Text: "Happy Birthday!", Style: "headline", Offset: 18 * time.Second, Duration: 6 * time.Second},
		},
		Finale: finale.Config{
			At:        18 * time.Second,
			Particles: 20,
			Lifetime:  1500 * time.Millisecond,
			MaxDelay:  200 * time.Millisecond,
			Radius:    finale.Range{Min: 30, Max: 300},
			Size:      finale.Range{Min: 4, Max: 8},
			Palette:   []string{"#a855f7"},
			NowPlaying: finale.NowPlaying{
				Title:   "New Divide",
				Artist:  "Linkin Park",
				Display: 5 * time.Second,
			},
		},
	}
}

func newTestSequence(t *testing.T, cfg Config, seed uint64, opts ...Option) (*Sequence, *clock.Fake, *display.Board) {
	t.Helper()
	fake := clock.NewFake(epoch)
	board := display.NewBoard()
	opts = append([]Option{WithClock(fake), WithSink(board), WithRand(random.New(seed))}, opts...)
	s, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s, fake, board
}

func TestNew_RequiresClock(t *testing.T) {
	_, err := New(fullConfig())
	if !errors.Is(err, ErrNoClock) {
		t.Errorf("expected ErrNoClock, got %v", err)
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := fullConfig()
	cfg.Tracks = append(cfg.Tracks, cfg.Tracks[0])
	cfg.Narrative[0].Duration = 0

	_, err := New(cfg, WithClock(clock.NewFake(epoch)))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestConfig_TotalDuration(t *testing.T) {
	if d := fullConfig().TotalDuration(); d != 24*time.Second {
		t.Errorf("expected 24s, got %v", d)
	}

	cfg := fullConfig()
	cfg.Narrative = nil
	if d := cfg.TotalDuration(); d != 23*time.Second {
		t.Errorf("expected finale hold to set the duration to 23s, got %v", d)
	}
}

func TestSequence_StateMachine(t *testing.T) {
	s, _, _ := newTestSequence(t, fullConfig(), 1)

	if s.State() != Idle {
		t.Fatalf("expected idle, got %s", s.State())
	}
	if _, ok := s.StartedAt(); ok {
		t.Error("expected no start time before Start")
	}

	s.Cancel()
	if s.State() != Idle {
		t.Errorf("expected cancel from idle to be a no-op, got %s", s.State())
	}

	s.Start()
	if s.State() != Running {
		t.Errorf("expected running, got %s", s.State())
	}
	if at, ok := s.StartedAt(); !ok || !at.Equal(epoch) {
		t.Errorf("expected start time %v, got %v (%v)", epoch, at, ok)
	}

	s.Cancel()
	if s.State() != Cancelled {
		t.Errorf("expected cancelled, got %s", s.State())
	}
}

func TestSequence_StartTwicePanics(t *testing.T) {
	s, _, _ := newTestSequence(t, fullConfig(), 1)
	s.Start()

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("expected panic wrapping ErrInvalidTransition, got %v", r)
		}
	}()
	s.Start()
}

func TestSequence_StartAfterCancelPanics(t *testing.T) {
	s, _, _ := newTestSequence(t, fullConfig(), 1)
	s.Start()
	s.Cancel()

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected Start after Cancel to panic")
		}
	}()
	s.Start()
}

func TestSequence_CancelAtAnyTimeStopsMutations(t *testing.T) {
	for _, at := range []time.Duration{
		0,
		100 * time.Millisecond,
		3 * time.Second,
		7 * time.Second,
		18 * time.Second,
		18*time.Second + 100*time.Millisecond,
		20 * time.Second,
		30 * time.Second,
	} {
		t.Run(at.String(), func(t *testing.T) {
			el := audio.NewElement("song.mp3")
			s, fake, board := newTestSequence(t, fullConfig(), 42, WithAudio(el))
			s.Start()
			fake.Advance(at)

			s.Cancel()
			mutations := board.Mutations()
			plays, pauses := el.Plays(), el.Pauses()

			if s.Pending() != 0 {
				t.Errorf("expected no pending handles after cancel, got %d", s.Pending())
			}
			if ran := fake.Flush(); ran != 0 {
				t.Errorf("expected nothing left to run, ran %d", ran)
			}
			fake.Advance(time.Minute)

			if board.Mutations() != mutations {
				t.Errorf("expected no mutations after cancel, got %d more", board.Mutations()-mutations)
			}
			if el.Plays() != plays || el.Pauses() != pauses {
				t.Error("expected no audio changes after cancel")
			}
			if !el.Paused() {
				t.Error("expected audio paused after cancel")
			}
		})
	}
}

func TestSequence_CancelIsIdempotent(t *testing.T) {
	el := audio.NewElement("song.mp3")
	s, fake, board := newTestSequence(t, fullConfig(), 5, WithAudio(el))
	s.Start()
	fake.Advance(4 * time.Second)

	s.Cancel()
	pauses := el.Pauses()
	mutations := board.Mutations()
	s.Cancel()

	if el.Pauses() != pauses {
		t.Errorf("expected no second pause, got %d pauses", el.Pauses())
	}
	if board.Mutations() != mutations {
		t.Error("expected second cancel to change nothing")
	}
	if s.State() != Cancelled {
		t.Errorf("expected cancelled, got %s", s.State())
	}
}

func TestSequence_StepAndFinaleScenario(t *testing.T) {
	cfg := Config{
		Bounds:    placement.DefaultBounds,
		Narrative: []narrative.Step{{Text: "hello", Duration: time.Second}},
		Finale: finale.Config{
			At:        2 * time.Second,
			Particles: 5,
			Lifetime:  time.Second,
			Radius:    finale.Range{Min: 30, Max: 300},
			Size:      finale.Range{Min: 4, Max: 8},
			Palette:   []string{"#eab308"},
		},
	}
	s, fake, board := newTestSequence(t, cfg, 1)
	s.Start()
	id := s.Narrative().StepID(0)

	fake.Advance(500 * time.Millisecond)
	if !board.StepVisible(id) {
		t.Error("expected step visible at 500ms")
	}
	if n := len(board.Snapshot().Particles); n != 0 {
		t.Errorf("expected no particles at 500ms, got %d", n)
	}

	fake.Advance(time.Second)
	if board.StepVisible(id) {
		t.Error("expected step hidden at 1500ms")
	}

	fake.Advance(500 * time.Millisecond)
	if board.Bursts() != 1 {
		t.Errorf("expected exactly one finale batch at 2000ms, got %d", board.Bursts())
	}
	if s.Finale().Batches() != 1 {
		t.Errorf("expected finale to report one batch, got %d", s.Finale().Batches())
	}
}

func TestSequence_CancelAt100msPausesAudio(t *testing.T) {
	el := audio.NewElement("song.mp3")
	s, fake, _ := newTestSequence(t, fullConfig(), 1, WithAudio(el))
	s.Start()
	if el.Paused() {
		t.Fatal("expected audio playing after start")
	}

	fake.Advance(100 * time.Millisecond)
	s.Cancel()

	if !el.Paused() {
		t.Error("expected audio paused immediately after cancel")
	}
}

func TestSequence_BlockedAudioIsNotFatal(t *testing.T) {
	el := audio.NewElement("song.mp3")
	el.BlockAutoplay(errors.New("user gesture required"))
	s, fake, board := newTestSequence(t, fullConfig(), 1, WithAudio(el))

	s.Start()
	fake.Advance(25 * time.Second)

	if s.State() != Running {
		t.Errorf("expected sequence to keep running, got %s", s.State())
	}
	if board.Bursts() != 1 {
		t.Errorf("expected the finale to fire without audio, got %d bursts", board.Bursts())
	}
	if board.Snapshot().NowPlaying.Playing {
		t.Error("expected now playing to show paused")
	}
}

func TestSequence_Completion(t *testing.T) {
	completed := 0
	s, fake, board := newTestSequence(t, fullConfig(), 9, OnComplete(func() { completed++ }))
	s.Start()

	fake.Advance(24*time.Second - time.Millisecond)
	if completed != 0 || s.Completed() {
		t.Fatal("expected no completion before the total duration")
	}

	fake.Advance(time.Millisecond)
	if completed != 1 {
		t.Errorf("expected OnComplete once, got %d", completed)
	}
	if !board.Snapshot().Completed {
		t.Error("expected a completed event")
	}
	if s.State() != Running {
		t.Errorf("expected the sequence to stay running until cancelled, got %s", s.State())
	}

	fake.Advance(time.Minute)
	if completed != 1 {
		t.Errorf("expected OnComplete to fire once, got %d", completed)
	}
}

func TestSequence_EventsCarryOffsets(t *testing.T) {
	rec := &display.Recorder{}
	s, fake, _ := newTestSequence(t, fullConfig(), 3, WithSink(rec))
	s.Start()
	fake.Advance(7 * time.Second)

	var found bool
	for _, e := range rec.Events() {
		if e.Kind == display.StepShown {
			found = true
			if e.At != 6*time.Second {
				t.Errorf("expected step shown at 6s, got %v", e.At)
			}
		}
	}
	if !found {
		t.Error("expected a step shown event")
	}
	if s.Emitted() != rec.Len() {
		t.Errorf("expected %d emitted, got %d", rec.Len(), s.Emitted())
	}
}

func TestSequence_CuesStayInBounds(t *testing.T) {
	cfg := fullConfig()
	cfg.Bounds = placement.Bounds{Min: 20, Max: 40}
	rec := &display.Recorder{}
	s, fake, _ := newTestSequence(t, cfg, 11, WithSink(rec))
	s.Start()
	fake.Advance(time.Minute)

	for _, e := range rec.Events() {
		if e.Kind != display.CueShown {
			continue
		}
		if e.Position == nil || !cfg.Bounds.Contains(*e.Position) {
			t.Errorf("cue %s shown outside bounds at %v", e.ID, e.Position)
		}
	}
}

func TestSequence_InteractAndMute(t *testing.T) {
	el := audio.NewElement("song.mp3")
	s, fake, board := newTestSequence(t, fullConfig(), 1, WithAudio(el))

	if s.Interact() {
		t.Error("expected Interact before start to do nothing")
	}
	if !s.ToggleMute() || !el.Muted() {
		t.Error("expected mute to work before start")
	}

	s.Start()
	fake.Advance(19 * time.Second)
	if !s.Interact() {
		t.Fatal("expected Interact to pin the notification")
	}
	fake.Advance(10 * time.Second)
	if !board.Snapshot().NowPlaying.Visible {
		t.Error("expected pinned notification still visible")
	}

	s.Cancel()
	if s.ToggleMute() || el.Muted() {
		t.Error("expected mute toggle to work after cancel")
	}
}

func TestSequence_Span(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	s, fake, _ := newTestSequence(t, fullConfig(), 1, WithTracer(tp.Tracer("test")))

	s.Start()
	fake.Advance(20 * time.Second)
	s.Cancel()

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 ended span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name() != telemetry.SequenceSpan {
		t.Errorf("expected span %s, got %q", telemetry.SequenceSpan, span.Name())
	}

	var finaleSeen bool
	for _, e := range span.Events() {
		if e.Name == telemetry.EventFinale {
			finaleSeen = true
		}
	}
	if !finaleSeen {
		t.Error("expected a finale span event")
	}

	var offset int64 = -1
	for _, kv := range span.Attributes() {
		if kv.Key == telemetry.CancelOffsetKey {
			offset = kv.Value.AsInt64()
		}
	}
	if offset != 20000 {
		t.Errorf("expected cancel offset 20000ms, got %d", offset)
	}
}

func TestSequence_IDsAreUnique(t *testing.T) {
	a, _, _ := newTestSequence(t, fullConfig(), 1)
	b, _, _ := newTestSequence(t, fullConfig(), 1)
	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("expected distinct ids, got %q and %q", a.ID(), b.ID())
	}
}
