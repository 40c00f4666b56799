package audio

import (
	"log/slog"

	apperrors "github.com/GriffinCanCode/whisper-agent/internal/errors"
	"github.com/GriffinCanCode/whisper-agent/internal/syncx"
)

// Stream is the subset of a device stream the controller drives.
// *portaudio.Stream satisfies it.
type Stream interface {
	Start() error
	Stop() error
	Close() error
}

// Interrupter releases a callback blocked on its output so that stopping the
// stream, which waits for the running callback, cannot deadlock.
// *SampleChannel satisfies it.
type Interrupter interface {
	Interrupt()
	Rearm()
}

// Format describes the negotiated input configuration.
type Format struct {
	DeviceName      string
	Channels        int
	SampleRate      float64
	FramesPerBuffer int
}

// State of the capture stream.
type State int

const (
	StatePaused State = iota
	StateRunning
	StateClosed
)

func (s State) String() string {
	switch s {
	case StatePaused:
		return "paused"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Controller starts and stops delivery of device callbacks. The stream is
// opened paused; Resume and Pause are idempotent.
type Controller struct {
	stream  Stream
	gate    *syncx.Gate
	state   *syncx.RWGuard[State]
	release func() error // host API teardown, run after the stream is closed
	format  Format
	halt    Interrupter
}

// NewController takes ownership of an opened, stopped stream whose callback is
// wrapped by gate. release may be nil.
func NewController(stream Stream, gate *syncx.Gate, format Format, release func() error) *Controller {
	gate.Shut()
	return &Controller{
		stream:  stream,
		gate:    gate,
		state:   syncx.NewGuard(StatePaused),
		release: release,
		format:  format,
	}
}

// WithInterrupter sets the output the callback may block on. Pause and Close
// interrupt it before stopping the stream; Resume rearms it.
func (c *Controller) WithInterrupter(i Interrupter) *Controller {
	c.halt = i
	return c
}

// Format returns the negotiated input configuration.
func (c *Controller) Format() Format { return c.format }

// State returns the current stream state.
func (c *Controller) State() State { return c.state.Get() }

// Resume starts delivering callbacks.
func (c *Controller) Resume() error {
	return c.state.Transition(func(s *State) error {
		switch *s {
		case StateRunning:
			return nil
		case StateClosed:
			return apperrors.New(apperrors.CodeDeviceUnavailable, "resume on closed stream")
		}
		if c.halt != nil {
			c.halt.Rearm()
		}
		c.gate.Open()
		if err := c.stream.Start(); err != nil {
			c.gate.Shut()
			return apperrors.Wrap(err, apperrors.CodeDeviceUnavailable, "failed to start input stream")
		}
		*s = StateRunning
		return nil
	})
}

// Pause stops delivering callbacks. When Pause returns no callback is running,
// so producer state may be touched by the caller.
func (c *Controller) Pause() error {
	return c.state.Transition(func(s *State) error {
		if *s != StateRunning {
			return nil
		}
		c.stop()
		if err := c.stream.Stop(); err != nil {
			return apperrors.Wrap(err, apperrors.CodeDeviceUnavailable, "failed to stop input stream")
		}
		*s = StatePaused
		return nil
	})
}

// stop keeps new callbacks out and releases one already running.
func (c *Controller) stop() {
	c.gate.Shut()
	if c.halt != nil {
		c.halt.Interrupt()
	}
}

// Close stops and closes the stream and releases the host API.
func (c *Controller) Close() error {
	return c.state.Transition(func(s *State) error {
		if *s == StateClosed {
			return nil
		}
		c.stop()
		var firstErr error
		if *s == StateRunning {
			firstErr = c.stream.Stop()
		}
		if err := c.stream.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		if c.release != nil {
			if err := c.release(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		*s = StateClosed
		if firstErr != nil {
			slog.Warn("input stream close failed", "device", c.format.DeviceName, "error", firstErr)
			return apperrors.Wrap(firstErr, apperrors.CodeDeviceUnavailable, "failed to close input stream")
		}
		return nil
	})
}
