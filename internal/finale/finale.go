// Package finale fires the closing firework burst and the now-playing
// notification at the sequence's final moment.
package finale

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"tribute/internal/audio"
	"tribute/internal/clock"
	"tribute/internal/display"
)

// Range is a closed float range.
type Range struct {
	Min float64
	Max float64
}

func (r Range) draw(rng *rand.Rand) float64 {
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

// NowPlaying describes the notification shown with the burst.
type NowPlaying struct {
	Title  string
	Artist string
	Art    string
	// Display is how long the notification stays before dismissing itself.
	Display time.Duration
}

type Config struct {
	// At is the offset from sequence start when the finale fires.
	At        time.Duration
	Particles int
	// Lifetime is how long each particle stays on stage after launch.
	Lifetime time.Duration
	// MaxDelay bounds each particle's random launch delay.
	MaxDelay   time.Duration
	Radius     Range
	Size       Range
	Palette    []string
	NowPlaying NowPlaying
}

var ErrInvalidConfig = errors.New("invalid finale")

func (c Config) Validate() error {
	var errs []error
	if c.At < 0 {
		errs = append(errs, fmt.Errorf("negative offset %v", c.At))
	}
	if c.Particles < 0 {
		errs = append(errs, errors.New("particle count must not be negative"))
	}
	if c.Particles > 0 {
		if c.Lifetime <= 0 {
			errs = append(errs, errors.New("particle lifetime must be positive"))
		}
		if len(c.Palette) == 0 {
			errs = append(errs, errors.New("palette is required"))
		}
		if c.Radius.Min < 0 || c.Radius.Max < c.Radius.Min {
			errs = append(errs, fmt.Errorf("invalid radius [%g, %g]", c.Radius.Min, c.Radius.Max))
		}
		if c.Size.Min <= 0 || c.Size.Max < c.Size.Min {
			errs = append(errs, fmt.Errorf("invalid size [%g, %g]", c.Size.Min, c.Size.Max))
		}
	}
	if c.MaxDelay < 0 {
		errs = append(errs, errors.New("max delay must not be negative"))
	}
	if c.NowPlaying.Display < 0 {
		errs = append(errs, errors.New("now playing display must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Hold returns how long the finale stays on stage after it fires.
func (c Config) Hold() time.Duration {
	hold := c.NowPlaying.Display
	if c.Particles > 0 {
		hold = max(hold, c.Lifetime+c.MaxDelay)
	}
	return hold
}

// Controller runs the finale. Timed transitions happen on clock callbacks;
// audio notifications may arrive from other goroutines, so notification
// state is guarded.
type Controller struct {
	cfg   Config
	clock clock.Clock
	rng   *rand.Rand
	sink  display.Sink
	audio audio.Handle

	handles []*clock.Handle
	batches int

	mu          sync.Mutex
	visible     bool
	pinned      bool
	dismiss     *clock.Handle
	unsubscribe func()
}

// New builds a finale controller. h may be nil when there is no audio.
func New(cfg Config, c clock.Clock, rng *rand.Rand, sink display.Sink, h audio.Handle) *Controller {
	if sink == nil {
		sink = display.Discard
	}
	return &Controller{cfg: cfg, clock: c, rng: rng, sink: sink, audio: h}
}

// Start arms the finale at cfg.At from startedAt.
func (c *Controller) Start(startedAt time.Time) []*clock.Handle {
	h := c.clock.Schedule(c.cfg.At-c.clock.Since(startedAt), c.fire)
	c.handles = append(c.handles, h)
	return []*clock.Handle{h}
}

func (c *Controller) fire() {
	c.batches++
	if c.cfg.Particles > 0 {
		particles := c.burst()
		c.sink.Apply(display.Event{Kind: display.Burst, Particles: particles})
		for _, p := range particles {
			id := p.ID
			c.handles = append(c.handles, c.clock.Schedule(p.Delay+c.cfg.Lifetime, func() {
				c.sink.Apply(display.Event{Kind: display.ParticleExpired, ID: id})
			}))
		}
	}
	c.showNotice()
}

// burst draws each particle's trajectory around stage centre.
func (c *Controller) burst() []display.Particle {
	out := make([]display.Particle, c.cfg.Particles)
	for i := range out {
		angle := c.rng.Float64() * 2 * math.Pi
		radius := c.cfg.Radius.draw(c.rng)
		var delay time.Duration
		if c.cfg.MaxDelay > 0 {
			delay = time.Duration(c.rng.Int64N(int64(c.cfg.MaxDelay) + 1))
		}
		out[i] = display.Particle{
			ID:    fmt.Sprintf("finale/%d/%d", c.batches, i),
			DX:    radius * math.Cos(angle),
			DY:    radius * math.Sin(angle),
			Color: c.cfg.Palette[c.rng.IntN(len(c.cfg.Palette))],
			Size:  c.cfg.Size.draw(c.rng),
			Delay: delay,
		}
	}
	return out
}

func (c *Controller) showNotice() {
	np := c.cfg.NowPlaying
	if np.Title == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.visible = true
	c.sink.Apply(display.Event{
		Kind:    display.NowPlayingShown,
		Title:   np.Title,
		Artist:  np.Artist,
		Playing: c.audio != nil && !c.audio.Paused(),
	})
	if c.audio != nil {
		c.unsubscribe = c.audio.Subscribe(c.onAudio)
	}
	if !c.pinned && np.Display > 0 {
		c.dismiss = c.clock.Schedule(np.Display, c.Dismiss)
		c.handles = append(c.handles, c.dismiss)
	}
}

func (c *Controller) onAudio(s audio.State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.visible {
		return
	}
	c.sink.Apply(display.Event{Kind: display.NowPlayingState, Playing: !s.Paused})
}

// Interact keeps the notification on stage until Dismiss. It reports
// whether the notification was visible.
func (c *Controller) Interact() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.visible {
		return false
	}
	c.pinned = true
	c.clock.Cancel(c.dismiss)
	c.dismiss = nil
	return true
}

// Dismiss hides the notification.
func (c *Controller) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.visible {
		return
	}
	c.visible = false
	c.clock.Cancel(c.dismiss)
	c.dismiss = nil
	c.detachLocked()
	c.sink.Apply(display.Event{Kind: display.NowPlayingHidden})
}

// Cancel stops every pending finale transition and drops the audio
// subscription. The notification keeps its visibility.
func (c *Controller) Cancel() {
	for _, h := range c.handles {
		c.clock.Cancel(h)
	}
	c.handles = nil

	c.mu.Lock()
	defer c.mu.Unlock()
	c.dismiss = nil
	c.detachLocked()
}

func (c *Controller) detachLocked() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

// Batches returns how many bursts have fired.
func (c *Controller) Batches() int { return c.batches }

// NoticeVisible reports whether the now-playing notification is shown.
func (c *Controller) NoticeVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible
}
