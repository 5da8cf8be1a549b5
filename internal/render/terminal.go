// Package render draws the overlay in a terminal.
package render

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"tribute/internal/display"
)

// Terminal is a display.Sink that keeps the stage on a Board and repaints
// it to a writer. Event-driven repaints are rate limited; a ticker paints
// whatever the limiter deferred.
type Terminal struct {
	board   *display.Board
	stage   Stage
	limiter *Limiter
	tick    time.Duration

	ticker  *time.Ticker
	stopCh  chan struct{}
	started atomic.Bool
	stopped atomic.Bool
	dirty   atomic.Bool
	muted   atomic.Bool
	frames  atomic.Int64

	output io.Writer
	mu     sync.Mutex
}

// NewTerminal paints at most fps frames per second to stderr.
func NewTerminal(fps float64) *Terminal {
	if fps <= 0 {
		fps = 10
	}
	return &Terminal{
		board:   display.NewBoard(),
		stage:   Stage{Width: DefaultWidth, Height: DefaultHeight},
		limiter: NewLimiter(fps),
		tick:    time.Duration(float64(time.Second) / fps),
		output:  os.Stderr,
	}
}

func (t *Terminal) SetOutput(w io.Writer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.output = w
}

func (t *Terminal) SetSize(width, height int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stage = Stage{Width: width, Height: height}
}

// Board returns the stage model the terminal paints from.
func (t *Terminal) Board() *display.Board { return t.board }

// Frames returns how many frames have been painted.
func (t *Terminal) Frames() int64 { return t.frames.Load() }

func (t *Terminal) Apply(e display.Event) {
	t.board.Apply(e)
	t.invalidate()
}

// SetMuted updates the mute marker on the status line.
func (t *Terminal) SetMuted(muted bool) {
	t.muted.Store(muted)
	t.invalidate()
}

// Clear empties the stage, as when the overlay closes.
func (t *Terminal) Clear() {
	t.board.Clear()
	t.paint()
}

func (t *Terminal) invalidate() {
	if t.limiter.Allow() {
		t.dirty.Store(false)
		t.paint()
		return
	}
	t.dirty.Store(true)
}

func (t *Terminal) Start() {
	if t.started.Swap(true) {
		return
	}
	t.stopCh = make(chan struct{})
	t.ticker = time.NewTicker(t.tick)
	go t.run()
}

func (t *Terminal) run() {
	for {
		select {
		case <-t.stopCh:
			return
		case <-t.ticker.C:
			if t.dirty.Swap(false) {
				t.paint()
			}
		}
	}
}

// Stop halts the ticker and paints the final frame. Safe to call more
// than once.
func (t *Terminal) Stop() {
	if t.stopped.Swap(true) {
		return
	}
	if t.ticker != nil {
		t.ticker.Stop()
	}
	if t.stopCh != nil {
		close(t.stopCh)
	}
	if t.dirty.Swap(false) {
		t.paint()
	}
}

func (t *Terminal) paint() {
	snap := t.board.Snapshot()
	t.mu.Lock()
	defer t.mu.Unlock()
	frame := t.stage.Render(snap, t.muted.Load())
	fmt.Fprintf(t.output, "\033[H\033[2J%s", frame)
	t.frames.Add(1)
}

// Printf writes a status message below the stage.
func (t *Terminal) Printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.output, "\033[K"+format+"\n", args...)
}
