// Package overlay mounts and dismisses tribute sequences for a host. The
// host owns the loop and the audio handle; every open gets a fresh
// sequence.
package overlay

import (
	"errors"
	"log"
	"sync"

	"tribute/internal/audio"
	"tribute/internal/clock"
	"tribute/internal/display"
	"tribute/internal/sequence"
)

var (
	ErrAlreadyOpen = errors.New("overlay: already open")
	ErrNotOpen     = errors.New("overlay: not open")
)

// clearer is implemented by sinks that can wipe the stage.
type clearer interface {
	Clear()
}

// Option configures an Overlay.
type Option func(*Overlay)

// WithAudio sets the persistent audio handle shared by every sequence.
func WithAudio(h audio.Handle) Option {
	return func(o *Overlay) { o.handle = h }
}

func WithSink(s display.Sink) Option {
	return func(o *Overlay) { o.sink = s }
}

func WithLogger(l *log.Logger) Option {
	return func(o *Overlay) { o.logger = l }
}

// WithSequenceOptions passes extra options to every sequence the overlay
// builds.
func WithSequenceOptions(opts ...sequence.Option) Option {
	return func(o *Overlay) { o.seqOpts = append(o.seqOpts, opts...) }
}

// OnComplete registers fn to run on its own goroutine when a sequence
// reaches its end. fn receives that sequence and is skipped if it was
// closed in the meantime. Use CloseSequence from fn so a reopen that races
// with the hook is left running.
func OnComplete(fn func(*sequence.Sequence)) Option {
	return func(o *Overlay) { o.onComplete = fn }
}

// Overlay is the host-facing surface. It is safe for concurrent use.
type Overlay struct {
	loop       *clock.Loop
	cfg        sequence.Config
	handle     audio.Handle
	audio      *audio.Controller
	sink       display.Sink
	logger     *log.Logger
	seqOpts    []sequence.Option
	onComplete func(*sequence.Sequence)

	// mu serialises Open, Close and Interact, and is held across Loop.Do.
	// Loop callbacks never take it.
	mu               sync.Mutex
	seq              *sequence.Sequence
	onCloseRequested func()
}

func New(loop *clock.Loop, cfg sequence.Config, opts ...Option) *Overlay {
	o := &Overlay{loop: loop, cfg: cfg}
	for _, opt := range opts {
		opt(o)
	}
	if o.sink == nil {
		o.sink = display.Discard
	}
	if o.logger == nil {
		o.logger = log.Default()
	}
	o.audio = audio.NewController(o.handle, o.logger)
	return o
}

// Open mounts the overlay and starts a new sequence. onCloseRequested is
// what the close affordance calls; hosts normally wire it to Close.
func (o *Overlay) Open(onCloseRequested func()) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.seq != nil {
		return ErrAlreadyOpen
	}

	opts := []sequence.Option{
		sequence.WithClock(o.loop),
		sequence.WithSink(o.sink),
		sequence.WithAudio(o.handle),
		sequence.WithLogger(o.logger),
	}
	opts = append(opts, o.seqOpts...)
	var seq *sequence.Sequence
	if fn := o.onComplete; fn != nil {
		opts = append(opts, sequence.OnComplete(func() { go o.completed(seq, fn) }))
	}

	var err error
	seq, err = sequence.New(o.cfg, opts...)
	if err != nil {
		return err
	}
	o.seq = seq
	o.onCloseRequested = onCloseRequested
	o.loop.Do(seq.Start)
	o.logger.Printf("overlay: opened sequence %s", seq.ID())
	return nil
}

// RequestClose is the close affordance: it asks the host to close.
func (o *Overlay) RequestClose() error {
	o.mu.Lock()
	mounted, fn := o.seq != nil, o.onCloseRequested
	o.mu.Unlock()

	if !mounted {
		return ErrNotOpen
	}
	if fn != nil {
		fn()
	}
	return nil
}

func (o *Overlay) completed(seq *sequence.Sequence, fn func(*sequence.Sequence)) {
	if o.Sequence() != seq {
		return
	}
	fn(seq)
}

// Close cancels the running sequence and unmounts. After it returns no
// callback of that sequence runs. Closing a closed overlay does nothing.
func (o *Overlay) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.seq != nil {
		o.closeLocked(o.seq)
	}
}

// CloseSequence closes seq if it is still the mounted sequence and reports
// whether it did.
func (o *Overlay) CloseSequence(seq *sequence.Sequence) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if seq == nil || o.seq != seq {
		return false
	}
	o.closeLocked(seq)
	return true
}

func (o *Overlay) closeLocked(seq *sequence.Sequence) {
	o.loop.Do(seq.Cancel)
	o.seq = nil
	o.onCloseRequested = nil

	if c, ok := o.sink.(clearer); ok {
		c.Clear()
	}
	o.logger.Printf("overlay: closed sequence %s", seq.ID())
}

// ToggleMute flips mute on the shared audio handle, mounted or not.
func (o *Overlay) ToggleMute() bool { return o.audio.ToggleMute() }

// Muted reports the shared handle's mute flag.
func (o *Overlay) Muted() bool {
	h := o.audio.Handle()
	return h != nil && h.Muted()
}

// Interact forwards a click on the now-playing notification.
func (o *Overlay) Interact() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.seq == nil {
		return false
	}
	var ok bool
	o.loop.Do(func() { ok = o.seq.Interact() })
	return ok
}

// Mounted reports whether a sequence is open.
func (o *Overlay) Mounted() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.seq != nil
}

// Sequence returns the open sequence, or nil.
func (o *Overlay) Sequence() *sequence.Sequence {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.seq
}
