// Package sequence orchestrates one run of the tribute timeline: it starts
// audio, every cue track, the narrative and the finale together, and tears
// all of them down at once.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"tribute/internal/audio"
	"tribute/internal/clock"
	"tribute/internal/cue"
	"tribute/internal/display"
	"tribute/internal/finale"
	"tribute/internal/narrative"
	"tribute/internal/placement"
	"tribute/internal/random"
	"tribute/internal/telemetry"
)

// NarrativeTrack is the track name narrative events carry.
const NarrativeTrack = "narrative"

// State is where a sequence is in its lifecycle. It only moves forward:
// Idle, Running, Cancelled.
type State int

const (
	Idle State = iota
	Running
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	// ErrInvalidTransition is raised, via panic, when the host drives the
	// state machine the wrong way.
	ErrInvalidTransition = errors.New("invalid sequence transition")
	ErrNoClock           = errors.New("sequence: clock is required")
)

// Sequence is a single, non-restartable run of the timeline. Start,
// Cancel and the scheduled callbacks must all run on the clock's logical
// thread; with a clock.Loop that means inside Loop.Do.
type Sequence struct {
	id     string
	cfg    Config
	base   clock.Clock
	group  *clock.Group
	sink   display.Sink
	gate   *gate
	handle audio.Handle
	audio  *audio.Controller
	rng    *rand.Rand
	tracer trace.Tracer
	logger *log.Logger

	onComplete func()

	mu        sync.Mutex
	state     State
	startedAt time.Time
	completed bool

	tracks    []*cue.Track
	narrative *narrative.Track
	finale    *finale.Controller
	span      trace.Span
}

// New validates cfg and builds an idle sequence.
func New(cfg Config, opts ...Option) (*Sequence, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Sequence{id: uuid.NewString(), cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.base == nil {
		return nil, ErrNoClock
	}
	if s.rng == nil {
		s.rng = random.NewRandom()
	}
	if s.tracer == nil {
		s.tracer = telemetry.Tracer()
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	s.group = clock.NewGroup(s.base)
	s.gate = newGate(s.sink, s.base)
	s.audio = audio.NewController(s.handle, s.logger)
	return s, nil
}

func (s *Sequence) ID() string     { return s.id }
func (s *Sequence) Config() Config { return s.cfg }

func (s *Sequence) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// StartedAt returns when Start ran and false before that.
func (s *Sequence) StartedAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt, s.state != Idle
}

// Completed reports whether the timeline reached its total duration.
func (s *Sequence) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// Pending returns how many scheduled callbacks the sequence still owns.
func (s *Sequence) Pending() int { return s.group.Len() }

// Emitted returns how many display events reached the sink.
func (s *Sequence) Emitted() int { return s.gate.count() }

func (s *Sequence) TotalDuration() time.Duration { return s.cfg.TotalDuration() }

func (s *Sequence) Tracks() []*cue.Track        { return s.tracks }
func (s *Sequence) Narrative() *narrative.Track { return s.narrative }
func (s *Sequence) Finale() *finale.Controller  { return s.finale }
func (s *Sequence) Audio() *audio.Controller    { return s.audio }

// Start records the start time, starts audio, then starts every track and
// arms the finale. Calling it on a sequence that is not idle panics.
func (s *Sequence) Start() {
	s.mu.Lock()
	if s.state != Idle {
		state := s.state
		s.mu.Unlock()
		panic(fmt.Errorf("%w: start from %s", ErrInvalidTransition, state))
	}
	s.state = Running
	s.startedAt = s.base.Now()
	startedAt := s.startedAt
	s.mu.Unlock()

	_, s.span = s.tracer.Start(context.Background(), telemetry.SequenceSpan,
		trace.WithTimestamp(startedAt),
		trace.WithAttributes(
			telemetry.SequenceIDKey.String(s.id),
			telemetry.TracksKey.Int(len(s.cfg.Tracks)),
			telemetry.StepsKey.Int(len(s.cfg.Narrative)),
			telemetry.Millis(telemetry.TotalDurationKey, s.cfg.TotalDuration()),
		),
	)
	s.gate.open(startedAt)

	if err := s.audio.OnSequenceStart(); err != nil {
		s.span.AddEvent(telemetry.EventAudioBlocked, trace.WithAttributes(telemetry.ErrorKey.String(err.Error())))
	}

	places := placement.NewGenerator(s.cfg.Bounds, s.rng)
	for _, tc := range s.cfg.Tracks {
		t := cue.NewTrack(tc, s.group, places, s.rng, s.gate)
		t.Start()
		s.tracks = append(s.tracks, t)
	}

	s.narrative = narrative.NewTrack(NarrativeTrack, s.cfg.Narrative, s.group, s.gate)
	s.narrative.Start(startedAt)

	s.finale = finale.New(s.cfg.Finale, s.group, s.rng, s.gate, s.handle)
	s.finale.Start(startedAt)

	elapsed := s.base.Since(startedAt)
	s.group.Schedule(s.cfg.Finale.At-elapsed, func() { s.span.AddEvent(telemetry.EventFinale) })
	s.group.Schedule(s.cfg.TotalDuration()-elapsed, s.complete)
}

func (s *Sequence) complete() {
	s.mu.Lock()
	s.completed = true
	s.mu.Unlock()

	s.gate.Apply(display.Event{Kind: display.Completed})
	s.span.AddEvent(telemetry.EventCompleted)
	if s.onComplete != nil {
		s.onComplete()
	}
}

// Cancel pauses audio and cancels every outstanding callback. Once it
// returns no callback of this sequence runs and no display event reaches
// the sink. Cancelling an idle or cancelled sequence does nothing.
func (s *Sequence) Cancel() {
	s.mu.Lock()
	if s.state != Running {
		s.mu.Unlock()
		return
	}
	s.state = Cancelled
	startedAt := s.startedAt
	s.mu.Unlock()

	s.gate.close()
	s.audio.OnSequenceCancel()

	for _, t := range s.tracks {
		t.Cancel()
	}
	s.narrative.Cancel()
	s.finale.Cancel()
	n := s.group.CancelAll()

	s.span.SetAttributes(
		telemetry.Millis(telemetry.CancelOffsetKey, s.base.Since(startedAt)),
		telemetry.CancelledHandlesKey.Int(n),
	)
	s.span.End()
}

// Interact forwards a click on the now-playing notification.
func (s *Sequence) Interact() bool {
	if s.finale == nil {
		return false
	}
	return s.finale.Interact()
}

// ToggleMute flips the audio mute flag. It works in any state.
func (s *Sequence) ToggleMute() bool { return s.audio.ToggleMute() }
