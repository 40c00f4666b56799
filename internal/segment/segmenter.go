package segment

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	apperrors "github.com/GriffinCanCode/whisper-agent/internal/errors"
	"github.com/GriffinCanCode/whisper-agent/internal/metrics"
	"github.com/GriffinCanCode/whisper-agent/internal/trace"
)

// Source is the consumer side of the sample channel.
type Source interface {
	Pop(ctx context.Context, wait time.Duration) (float32, bool, error)
}

// State of the segmenter.
type State int32

const (
	StateIdle State = iota
	StateListening
	StateSilenceTimeout
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateSilenceTimeout:
		return "silence_timeout"
	default:
		return "unknown"
	}
}

// Config holds the voice activity parameters.
type Config struct {
	AmplitudeThreshold float64       // a sample counts as voice when |s| exceeds this
	SilenceDuration    time.Duration // quiet time that closes an utterance
	PollInterval       time.Duration // longest single wait on the source
}

// Segmenter drives one utterance at a time through Idle -> Listening ->
// SilenceTimeout -> Idle.
type Segmenter struct {
	src     Source
	cfg     Config
	metrics *metrics.Metrics
	now     func() time.Time
	state   atomic.Int32

	lastVoiceActivity time.Time
}

// Option configures a Segmenter.
type Option func(*Segmenter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Segmenter) { s.now = now }
}

// New creates a segmenter reading from src.
func New(src Source, cfg Config, m *metrics.Metrics, opts ...Option) *Segmenter {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 50 * time.Millisecond
	}
	s := &Segmenter{src: src, cfg: cfg, metrics: m, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Segmenter) State() State { return State(s.state.Load()) }

// Record appends samples to u until SilenceDuration has passed since the last
// sample above the threshold, counted from the start of the call. Every
// received sample is kept, quiet or not. On success the segmenter is left in
// SilenceTimeout until Finish.
func (s *Segmenter) Record(ctx context.Context, u *Utterance) error {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateListening)) {
		return apperrors.Newf(apperrors.CodeInternal, "record called in state %s", s.State())
	}

	threshold := float32(s.cfg.AmplitudeThreshold)
	start := s.now()
	u.StartedAt = start
	s.lastVoiceActivity = start

	for {
		quiet := s.now().Sub(s.lastVoiceActivity)
		if quiet >= s.cfg.SilenceDuration {
			s.state.Store(int32(StateSilenceTimeout))
			s.observe(ctx, u)
			return nil
		}

		sample, ok, err := s.src.Pop(ctx, min(s.cfg.SilenceDuration-quiet, s.cfg.PollInterval))
		if err != nil {
			s.state.Store(int32(StateIdle))
			return err
		}
		if !ok {
			continue
		}

		if float32(math.Abs(float64(sample))) > threshold {
			s.lastVoiceActivity = s.now()
			u.Voiced = true
		}
		u.Append(sample)
	}
}

func (s *Segmenter) observe(ctx context.Context, u *Utterance) {
	s.metrics.UtterancesTotal.Inc()
	s.metrics.UtteranceDuration.Observe(u.Duration().Seconds())
	trace.Logger(ctx).Debug("silence timeout",
		"utterance", u.ID,
		"samples", u.Len(),
		"audio", u.Duration(),
		"voiced", u.Voiced,
	)
}

// Finish returns the segmenter to Idle once the utterance has been consumed.
func (s *Segmenter) Finish() {
	s.state.CompareAndSwap(int32(StateSilenceTimeout), int32(StateIdle))
}
