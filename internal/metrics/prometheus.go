package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the capture and transcription pipeline
type Metrics struct {
	// Producer (device callback) metrics
	CallbacksTotal   prometheus.Counter
	FramesCaptured   prometheus.Counter
	ChunksConverted  prometheus.Counter
	SamplesProduced  prometheus.Counter
	SamplesDropped   prometheus.Counter
	ConversionErrors prometheus.Counter
	ChannelDepth     prometheus.Gauge

	// Segmentation metrics
	UtterancesTotal   prometheus.Counter
	UtterancesSkipped prometheus.Counter
	UtteranceDuration prometheus.Histogram

	// Transcription metrics
	TranscriptionRequests prometheus.Counter
	TranscriptionFailures prometheus.Counter
	TranscriptionDuration prometheus.Histogram
	EngineBreakerState    prometheus.Gauge
}

// New creates and registers all metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CallbacksTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "whisper_agent_callbacks_total",
			Help: "Total number of audio device callbacks handled",
		}),
		FramesCaptured: f.NewCounter(prometheus.CounterOpts{
			Name: "whisper_agent_frames_captured_total",
			Help: "Total number of frames delivered by the input device",
		}),
		ChunksConverted: f.NewCounter(prometheus.CounterOpts{
			Name: "whisper_agent_chunks_converted_total",
			Help: "Total number of fixed-size chunks passed through the rate converter",
		}),
		SamplesProduced: f.NewCounter(prometheus.CounterOpts{
			Name: "whisper_agent_samples_produced_total",
			Help: "Total number of target-rate samples pushed into the sample channel",
		}),
		SamplesDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "whisper_agent_samples_dropped_total",
			Help: "Total number of samples discarded by the back-pressure policy",
		}),
		ConversionErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "whisper_agent_conversion_errors_total",
			Help: "Total number of callback batches dropped by downmix or conversion errors",
		}),
		ChannelDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "whisper_agent_channel_depth",
			Help: "Samples waiting in the sample channel after the last callback",
		}),

		UtterancesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "whisper_agent_utterances_total",
			Help: "Total number of utterances closed by silence timeout",
		}),
		UtterancesSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "whisper_agent_utterances_skipped_total",
			Help: "Total number of utterances discarded without voice activity",
		}),
		UtteranceDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "whisper_agent_utterance_duration_seconds",
			Help:    "Audio duration of closed utterances",
			Buckets: []float64{1, 2, 3, 5, 10, 20, 30, 60, 120},
		}),

		TranscriptionRequests: f.NewCounter(prometheus.CounterOpts{
			Name: "whisper_agent_transcription_requests_total",
			Help: "Total number of utterances handed to the recognition engine",
		}),
		TranscriptionFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "whisper_agent_transcription_failures_total",
			Help: "Total number of failed or rejected transcriptions",
		}),
		TranscriptionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "whisper_agent_transcription_duration_seconds",
			Help:    "Wall time spent in the recognition engine per utterance",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		EngineBreakerState: f.NewGauge(prometheus.GaugeOpts{
			Name: "whisper_agent_engine_breaker_state",
			Help: "Engine circuit breaker state: 0 closed, 1 open, 2 half-open",
		}),
	}
}

// NewUnregistered returns metrics attached to a private registry. Used by tests
// and by components constructed without a shared registry.
func NewUnregistered() *Metrics {
	return New(prometheus.NewRegistry())
}
