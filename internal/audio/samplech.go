package audio

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	apperrors "github.com/GriffinCanCode/whisper-agent/internal/errors"
)

// ErrClosed is returned by Push and Pop once the channel is closed.
var ErrClosed error = apperrors.New(apperrors.CodeChannelClosed, "sample channel closed")

// ErrInterrupted is returned by Push between Interrupt and Rearm. The producer
// drops the rest of its batch.
var ErrInterrupted = errors.New("sample push interrupted")

// Policy decides what Push does when the channel is full.
type Policy int

const (
	// PolicyBlock waits for space, stalling the device callback.
	PolicyBlock Policy = iota
	// PolicyDropNewest discards the sample being pushed.
	PolicyDropNewest
	// PolicyDropOldest discards the oldest queued sample to make room.
	PolicyDropOldest
)

var policyNames = [...]string{"block", "drop-newest", "drop-oldest"}

func (p Policy) String() string {
	if p < 0 || int(p) >= len(policyNames) {
		return "unknown"
	}
	return policyNames[p]
}

// ParsePolicy maps a config name onto a Policy.
func ParsePolicy(name string) (Policy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range policyNames {
		if n == name {
			return Policy(i), nil
		}
	}
	return 0, apperrors.Newf(apperrors.CodeConfigInvalid, "unknown backpressure policy %q", name)
}

// SampleChannel is a bounded FIFO of mono samples between exactly one producer
// (the device callback) and one consumer (the segmenter).
//
// The data channel is never closed. Close signals through done so a Push
// racing with shutdown returns ErrClosed instead of panicking. Interrupt
// releases a Push blocked on a full channel without closing it.
type SampleChannel struct {
	ch        chan float32
	done      chan struct{}
	closeOnce sync.Once
	policy    Policy
	dropped   atomic.Uint64

	haltMu sync.Mutex
	halt   atomic.Pointer[chan struct{}]
	halted bool
}

// NewSampleChannel creates a channel holding up to capacity samples.
func NewSampleChannel(capacity int, policy Policy) *SampleChannel {
	if capacity < 1 {
		capacity = 1
	}
	c := &SampleChannel{
		ch:     make(chan float32, capacity),
		done:   make(chan struct{}),
		policy: policy,
	}
	halt := make(chan struct{})
	c.halt.Store(&halt)
	return c
}

// Push enqueues s according to the back-pressure policy.
func (c *SampleChannel) Push(s float32) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	switch c.policy {
	case PolicyDropNewest:
		select {
		case c.ch <- s:
		default:
			c.dropped.Add(1)
		}
		return nil

	case PolicyDropOldest:
		for {
			select {
			case c.ch <- s:
				return nil
			default:
			}
			select {
			case <-c.ch:
				c.dropped.Add(1)
			default:
			}
		}

	default:
		halt := *c.halt.Load()
		select {
		case <-halt:
			return ErrInterrupted
		default:
		}
		select {
		case c.ch <- s:
			return nil
		case <-c.done:
			return ErrClosed
		case <-halt:
			return ErrInterrupted
		}
	}
}

// Interrupt releases a Push waiting for space and makes blocking pushes fail
// with ErrInterrupted until Rearm. The dropping policies never wait, so it
// does not affect them. Safe to call twice.
func (c *SampleChannel) Interrupt() {
	c.haltMu.Lock()
	defer c.haltMu.Unlock()
	if c.halted {
		return
	}
	close(*c.halt.Load())
	c.halted = true
}

// Rearm lets pushes block again after Interrupt.
func (c *SampleChannel) Rearm() {
	c.haltMu.Lock()
	defer c.haltMu.Unlock()
	if !c.halted {
		return
	}
	halt := make(chan struct{})
	c.halt.Store(&halt)
	c.halted = false
}

// TryPop dequeues a sample without waiting.
func (c *SampleChannel) TryPop() (float32, bool) {
	select {
	case s := <-c.ch:
		return s, true
	default:
		return 0, false
	}
}

// Pop dequeues a sample, waiting up to wait for one to arrive. ok is false on
// timeout. Queued samples are still delivered after Close; once they are gone
// Pop returns ErrClosed.
func (c *SampleChannel) Pop(ctx context.Context, wait time.Duration) (s float32, ok bool, err error) {
	select {
	case s = <-c.ch:
		return s, true, nil
	default:
	}
	if wait <= 0 {
		return 0, false, nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case s = <-c.ch:
		return s, true, nil
	case <-timer.C:
		return 0, false, nil
	case <-ctx.Done():
		return 0, false, ctx.Err()
	case <-c.done:
		if s, ok = c.TryPop(); ok {
			return s, true, nil
		}
		return 0, false, ErrClosed
	}
}

// Drain discards every queued sample and returns how many were dropped.
func (c *SampleChannel) Drain() int {
	n := 0
	for {
		select {
		case <-c.ch:
			n++
		default:
			return n
		}
	}
}

// Close wakes blocked callers and makes further pushes fail. Safe to call twice.
func (c *SampleChannel) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Len is the number of queued samples.
func (c *SampleChannel) Len() int { return len(c.ch) }

// Cap is the fixed capacity.
func (c *SampleChannel) Cap() int { return cap(c.ch) }

// Policy returns the back-pressure policy.
func (c *SampleChannel) Policy() Policy { return c.policy }

// Dropped is the number of samples discarded by the policy so far.
func (c *SampleChannel) Dropped() uint64 { return c.dropped.Load() }
