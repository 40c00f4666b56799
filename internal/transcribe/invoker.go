package transcribe

import (
	"context"
	"time"

	apperrors "github.com/GriffinCanCode/whisper-agent/internal/errors"
	"github.com/GriffinCanCode/whisper-agent/internal/metrics"
	"github.com/GriffinCanCode/whisper-agent/internal/resilience"
	"github.com/GriffinCanCode/whisper-agent/internal/trace"
)

// Invoker runs the engine once per utterance behind a circuit breaker.
type Invoker struct {
	engine  Engine
	params  Params
	breaker *resilience.Breaker
	metrics *metrics.Metrics
}

// NewInvoker creates an invoker. breaker may be nil.
func NewInvoker(engine Engine, params Params, breaker *resilience.Breaker, m *metrics.Metrics) *Invoker {
	if breaker == nil {
		breaker = resilience.New(resilience.DefaultConfig())
	}
	return &Invoker{engine: engine, params: params, breaker: breaker, metrics: m}
}

// Invoke transcribes samples. Every failure carries CodeInference: the caller
// drops the utterance and keeps listening.
func (i *Invoker) Invoke(ctx context.Context, samples []float32) (Result, error) {
	ctx, span := trace.StartSpan(ctx, "transcribe")
	defer span.End()
	span.SetAttr("samples", len(samples))

	i.metrics.TranscriptionRequests.Inc()
	start := time.Now()

	segments, err := resilience.ExecuteWithResult(i.breaker, func() ([]Segment, error) {
		return i.engine.Transcribe(ctx, i.params, samples)
	})
	elapsed := time.Since(start)
	if err != nil {
		i.metrics.TranscriptionFailures.Inc()
		span.SetAttr("error", err.Error())
		if apperrors.IsCode(err, apperrors.CodeInference) {
			return Result{}, err
		}
		return Result{}, apperrors.Wrap(err, apperrors.CodeInference, "transcription failed")
	}
	i.metrics.TranscriptionDuration.Observe(elapsed.Seconds())

	kept := Filter(segments)
	res := Result{Text: Join(kept), Segments: kept, Elapsed: elapsed}
	span.SetAttr("segments", len(kept))
	trace.Logger(ctx).Debug("transcribed", "span", span, "chars", len(res.Text))
	return res, nil
}
