package audio

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/GriffinCanCode/whisper-agent/internal/metrics"
	"github.com/GriffinCanCode/whisper-agent/internal/resample"
)

// errorLogEvery rate-limits callback error logs: the first failure and every
// errorLogEvery-th after it are logged, the rest only counted.
const errorLogEvery = 100

// Producer is the body of the device callback: downmix, stage, convert, push.
// OnFrames runs on the audio thread and must not block on anything but the
// channel (and only under PolicyBlock, until the channel is interrupted).
type Producer struct {
	channels int
	staged   *resample.Staged
	out      *SampleChannel
	metrics  *metrics.Metrics

	mono   []float32
	errs   uint64
	closed atomic.Bool
}

// NewProducer creates a producer for callbacks of up to framesPerBuffer frames
// with the given interleaved channel count.
func NewProducer(channels, framesPerBuffer int, conv resample.Converter, out *SampleChannel, m *metrics.Metrics) *Producer {
	return &Producer{
		channels: channels,
		staged:   resample.NewStaged(conv, framesPerBuffer),
		out:      out,
		metrics:  m,
		mono:     make([]float32, 0, framesPerBuffer),
	}
}

// ChannelCapacity returns the smallest channel capacity that holds everything a
// single callback of framesPerBuffer frames can produce, or configured if larger.
func ChannelCapacity(conv resample.Converter, framesPerBuffer, configured int) int {
	need := resample.MaxOutputPerBatch(conv, framesPerBuffer)
	if configured > need {
		return configured
	}
	return need
}

// OnFrames handles one callback batch of interleaved samples.
func (p *Producer) OnFrames(in []float32) {
	if p.closed.Load() {
		return
	}
	p.metrics.CallbacksTotal.Inc()

	mono, err := Downmix(p.mono, in, p.channels)
	if err != nil {
		p.fail("downmix failed, batch dropped", err)
		return
	}
	p.mono = mono
	p.metrics.FramesCaptured.Add(float64(len(mono)))

	droppedBefore := p.out.Dropped()
	var pushErr error
	chunks, err := p.staged.Feed(mono, func(batch []float32) {
		if pushErr != nil {
			return
		}
		for _, s := range batch {
			if pushErr = p.out.Push(s); pushErr != nil {
				return
			}
		}
		p.metrics.SamplesProduced.Add(float64(len(batch)))
	})
	p.metrics.ChunksConverted.Add(float64(chunks))
	if d := p.out.Dropped() - droppedBefore; d > 0 {
		p.metrics.SamplesDropped.Add(float64(d))
	}
	p.metrics.ChannelDepth.Set(float64(p.out.Len()))

	switch {
	case errors.Is(pushErr, ErrClosed):
		p.closed.Store(true)
		slog.Debug("sample channel closed, producer stopped")
		return
	case errors.Is(pushErr, ErrInterrupted):
		slog.Debug("capture stopping, rest of batch dropped")
		return
	}
	if err != nil {
		p.fail("rate conversion failed, batch dropped", err)
	}
}

func (p *Producer) fail(msg string, err error) {
	p.metrics.ConversionErrors.Inc()
	p.errs++
	if p.errs%errorLogEvery == 1 {
		slog.Warn(msg, "error", err, "occurrences", p.errs)
	}
}

// Reset drops staged samples and converter history. Call only while the
// stream is paused.
func (p *Producer) Reset() {
	p.staged.Reset()
}

// Residual is the number of samples staged for the next converter chunk.
func (p *Producer) Residual() int { return p.staged.Residual() }
