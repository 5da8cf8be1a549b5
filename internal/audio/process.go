package audio

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strconv"
	"sync"
	"time"
)

// DefaultPlayer is the external binary Process uses when none is given.
const DefaultPlayer = "ffplay"

var ErrPlayerUnavailable = errors.New("audio player unavailable")

// Process plays a file through an external player binary. The player has
// no pause or mute control of its own, so Pause stops the process and
// remembers the position, and Play or a mute change starts it again from
// there.
type Process struct {
	path   string
	player string
	logger *log.Logger

	mu        sync.Mutex
	cmd       *exec.Cmd
	cancel    context.CancelFunc
	startedAt time.Time
	position  time.Duration
	paused    bool
	muted     bool

	subs subscribers
}

func NewProcess(path, player string, logger *log.Logger) *Process {
	if player == "" {
		player = DefaultPlayer
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Process{path: path, player: player, logger: logger, paused: true}
}

func (p *Process) Play() error {
	p.mu.Lock()
	if !p.paused {
		p.mu.Unlock()
		return nil
	}
	if err := p.startLocked(); err != nil {
		p.mu.Unlock()
		return err
	}
	p.paused = false
	st := p.stateLocked()
	p.mu.Unlock()

	p.subs.notify(st)
	return nil
}

func (p *Process) Pause() {
	p.mu.Lock()
	if p.paused {
		p.mu.Unlock()
		return
	}
	p.stopLocked()
	p.paused = true
	st := p.stateLocked()
	p.mu.Unlock()

	p.subs.notify(st)
}

// Rewind restarts a playing process from the start. If the player cannot
// be started again the handle ends up paused and subscribers hear of it.
func (p *Process) Rewind() {
	p.mu.Lock()
	p.position = 0
	if p.cmd == nil {
		p.mu.Unlock()
		return
	}
	p.stopLocked()
	p.position = 0
	err := p.startLocked()
	if err == nil {
		p.mu.Unlock()
		return
	}
	p.logger.Printf("audio: restart after rewind: %v", err)
	p.paused = true
	st := p.stateLocked()
	p.mu.Unlock()

	p.subs.notify(st)
}

func (p *Process) SetMuted(muted bool) {
	p.mu.Lock()
	if p.muted == muted {
		p.mu.Unlock()
		return
	}
	p.muted = muted
	if p.cmd != nil {
		p.stopLocked()
		if err := p.startLocked(); err != nil {
			p.logger.Printf("audio: restart after mute change: %v", err)
			p.paused = true
		}
	}
	st := p.stateLocked()
	p.mu.Unlock()

	p.subs.notify(st)
}

func (p *Process) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

func (p *Process) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

// Position returns how far into the file playback has progressed.
func (p *Process) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != nil {
		return p.position + time.Since(p.startedAt)
	}
	return p.position
}

func (p *Process) Subscribe(fn func(State)) func() {
	return p.subs.add(fn)
}

func (p *Process) args() []string {
	volume := "100"
	if p.muted {
		volume = "0"
	}
	return []string{
		"-nodisp", "-autoexit", "-loglevel", "quiet",
		"-ss", strconv.FormatFloat(p.position.Seconds(), 'f', 3, 64),
		"-volume", volume,
		p.path,
	}
}

func (p *Process) startLocked() error {
	bin, err := exec.LookPath(p.player)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPlayerUnavailable, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, bin, p.args()...)
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("%w: start %s: %w", ErrPlayerUnavailable, p.player, err)
	}
	p.cmd = cmd
	p.cancel = cancel
	p.startedAt = time.Now()
	go p.wait(cmd)
	return nil
}

func (p *Process) stopLocked() {
	if p.cmd == nil {
		return
	}
	p.position += time.Since(p.startedAt)
	p.cancel()
	p.cmd = nil
	p.cancel = nil
}

// wait reaps cmd. If it exits on its own the track has ended: the handle
// goes back to paused at the start.
func (p *Process) wait(cmd *exec.Cmd) {
	_ = cmd.Wait()

	p.mu.Lock()
	if p.cmd != cmd {
		p.mu.Unlock()
		return
	}
	p.cancel()
	p.cmd = nil
	p.cancel = nil
	p.position = 0
	p.paused = true
	st := p.stateLocked()
	p.mu.Unlock()

	p.subs.notify(st)
}

func (p *Process) stateLocked() State {
	return State{Paused: p.paused, Muted: p.muted}
}
