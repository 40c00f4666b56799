// Package orchestrator runs the recording session: record an utterance, pause
// capture, transcribe, print, repeat.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/whisper-agent/internal/audio"
	apperrors "github.com/GriffinCanCode/whisper-agent/internal/errors"
	"github.com/GriffinCanCode/whisper-agent/internal/metrics"
	"github.com/GriffinCanCode/whisper-agent/internal/resilience"
	"github.com/GriffinCanCode/whisper-agent/internal/segment"
	"github.com/GriffinCanCode/whisper-agent/internal/trace"
	"github.com/GriffinCanCode/whisper-agent/internal/transcribe"
	"github.com/GriffinCanCode/whisper-agent/internal/transcript"
)

// Capture starts and stops the device stream.
type Capture interface {
	Resume() error
	Pause() error
	State() audio.State
}

// Recorder fills one utterance per call.
type Recorder interface {
	Record(ctx context.Context, u *segment.Utterance) error
	Finish()
	State() segment.State
}

// Transcriber turns an utterance into text.
type Transcriber interface {
	Invoke(ctx context.Context, samples []float32) (transcribe.Result, error)
}

// Producer is the callback-side state reset between cycles.
type Producer interface {
	Reset()
}

// Drainer discards stale queued samples.
type Drainer interface {
	Drain() int
}

// Deps wires the manager. Breaker is only reported by Status and may be nil.
type Deps struct {
	Capture     Capture
	Producer    Producer
	Channel     Drainer
	Recorder    Recorder
	Transcriber Transcriber
	Store       transcript.Store
	Breaker     *resilience.Breaker
	Metrics     *metrics.Metrics
	Out         io.Writer
	SampleRate  int
	SkipSilent  bool
}

// Manager coordinates capture, segmentation and transcription
type Manager struct {
	Deps
	cycles atomic.Uint64
}

// New creates a new manager
func New(d Deps) *Manager {
	return &Manager{Deps: d}
}

// Run loops until ctx is cancelled or a fatal error occurs. Transient failures
// cost the current utterance only.
func (m *Manager) Run(ctx context.Context) error {
	u := segment.NewUtterance(m.SampleRate, m.SampleRate*UtteranceInitialSeconds)
	log := trace.Logger(ctx)
	log.Info("listening", "sample_rate", m.SampleRate, "skip_silent", m.SkipSilent)

	for {
		err := m.cycle(ctx, u)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			log.Info("session stopped", "cycles", m.cycles.Load())
			return nil
		case apperrors.IsShutdown(err):
			log.Info("sample channel closed, session stopped", "cycles", m.cycles.Load())
			return nil
		case apperrors.IsTransient(err):
			log.Warn("utterance discarded", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(FailureBackoff):
			}
		default:
			return err
		}
		if ctx.Err() != nil {
			log.Info("session stopped", "cycles", m.cycles.Load())
			return nil
		}
	}
}

// cycle records, transcribes and publishes one utterance.
func (m *Manager) cycle(ctx context.Context, u *segment.Utterance) error {
	m.cycles.Add(1)
	ctx = trace.ForUtterance(ctx, u.ID)
	ctx, span := trace.StartSpan(ctx, "cycle")
	log := trace.Logger(ctx)
	defer span.End()
	defer func() {
		u.Clear()
		m.Recorder.Finish()
	}()

	// Capture is paused here, so the callback state is ours to reset.
	m.Producer.Reset()
	if n := m.Channel.Drain(); n > 0 {
		log.Debug("dropped stale samples", "samples", n)
	}

	if err := m.Capture.Resume(); err != nil {
		return err
	}
	recErr := m.Recorder.Record(ctx, u)
	pauseErr := m.Capture.Pause()
	if recErr != nil {
		return recErr
	}
	if pauseErr != nil {
		return pauseErr
	}

	span.SetAttr("audio", u.Duration())
	if !u.Voiced && m.SkipSilent {
		m.Metrics.UtterancesSkipped.Inc()
		log.Debug("no voice activity, utterance skipped", "audio", u.Duration())
		return nil
	}

	res, err := m.Transcriber.Invoke(ctx, u.Samples)
	if err != nil {
		return err
	}
	if res.Text == "" {
		log.Debug("nothing recognised", "span", span)
		return nil
	}

	if _, err := fmt.Fprintln(m.Out, res.Text); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to write transcript")
	}
	m.Store.Add(transcript.Entry{ID: u.ID.String(), Text: res.Text, Duration: u.Duration()})
	log.Info("utterance transcribed", "span", span, "segments", len(res.Segments), "inference", res.Elapsed)
	return nil
}

// Status reports component states for health checks.
func (m *Manager) Status() map[string]string {
	status := map[string]string{
		"capture":   m.Capture.State().String(),
		"segmenter": m.Recorder.State().String(),
		"cycles":    strconv.FormatUint(m.cycles.Load(), 10),
	}
	if m.Breaker != nil {
		status["engine_breaker"] = m.Breaker.State().String()
	}
	return status
}
