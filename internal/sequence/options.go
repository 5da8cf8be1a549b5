package sequence

import (
	"log"
	"math/rand/v2"

	"go.opentelemetry.io/otel/trace"

	"tribute/internal/audio"
	"tribute/internal/clock"
	"tribute/internal/display"
)

// Option configures a Sequence.
type Option func(*Sequence)

// WithClock sets the clock every track schedules on. Required.
func WithClock(c clock.Clock) Option {
	return func(s *Sequence) { s.base = c }
}

// WithSink sets where display events go. The default discards them.
func WithSink(sink display.Sink) Option {
	return func(s *Sequence) { s.sink = sink }
}

// WithAudio sets the host's persistent audio handle.
func WithAudio(h audio.Handle) Option {
	return func(s *Sequence) { s.handle = h }
}

// WithRand sets the source for every random draw, for reproducible runs.
func WithRand(rng *rand.Rand) Option {
	return func(s *Sequence) { s.rng = rng }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Sequence) { s.tracer = t }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Sequence) { s.logger = l }
}

// OnComplete registers fn to run once when the timeline reaches its total
// duration. fn runs on a clock callback: with a clock.Loop it must not
// call Loop.Do.
func OnComplete(fn func()) Option {
	return func(s *Sequence) { s.onComplete = fn }
}
