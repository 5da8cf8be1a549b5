package audio

import (
	"log"
)

// Controller starts and stops a handle with the sequence. It is the only
// component that plays or pauses the handle; mute can be toggled by anyone
// at any time.
type Controller struct {
	handle Handle
	logger *log.Logger
}

// NewController wraps h. A nil h gives a controller that does nothing, for
// sequences without audio.
func NewController(h Handle, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{handle: h, logger: logger}
}

func (c *Controller) Handle() Handle { return c.handle }

// OnSequenceStart rewinds and plays. A refused start is logged and
// returned but is not fatal: the sequence carries on silently.
func (c *Controller) OnSequenceStart() error {
	if c.handle == nil {
		return nil
	}
	c.handle.Rewind()
	if err := c.handle.Play(); err != nil {
		c.logger.Printf("audio: playback did not start, continuing without audio: %v", err)
		return err
	}
	return nil
}

func (c *Controller) OnSequenceCancel() {
	if c.handle == nil {
		return
	}
	c.handle.Pause()
}

// ToggleMute flips the muted flag and returns the new value.
func (c *Controller) ToggleMute() bool {
	if c.handle == nil {
		return false
	}
	muted := !c.handle.Muted()
	c.handle.SetMuted(muted)
	return muted
}

// TogglePlayback pauses a playing handle or resumes a paused one.
func (c *Controller) TogglePlayback() error {
	if c.handle == nil {
		return nil
	}
	if c.handle.Paused() {
		if err := c.handle.Play(); err != nil {
			c.logger.Printf("audio: resume failed: %v", err)
			return err
		}
		return nil
	}
	c.handle.Pause()
	return nil
}

// Playing reports whether the handle is currently playing.
func (c *Controller) Playing() bool {
	return c.handle != nil && !c.handle.Paused()
}
