package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/GriffinCanCode/whisper-agent/internal/audio"
	"github.com/GriffinCanCode/whisper-agent/internal/audio/device"
	"github.com/GriffinCanCode/whisper-agent/internal/config"
	"github.com/GriffinCanCode/whisper-agent/internal/logging"
	"github.com/GriffinCanCode/whisper-agent/internal/metrics"
	"github.com/GriffinCanCode/whisper-agent/internal/orchestrator"
	"github.com/GriffinCanCode/whisper-agent/internal/resample"
	"github.com/GriffinCanCode/whisper-agent/internal/resample/soxr"
	"github.com/GriffinCanCode/whisper-agent/internal/resilience"
	"github.com/GriffinCanCode/whisper-agent/internal/segment"
	"github.com/GriffinCanCode/whisper-agent/internal/server"
	"github.com/GriffinCanCode/whisper-agent/internal/transcribe"
	"github.com/GriffinCanCode/whisper-agent/internal/transcribe/whispercpp"
	"github.com/GriffinCanCode/whisper-agent/internal/transcript"
)

func run(ctx context.Context, cfg *config.Config, modelPath string) error {
	slog.SetDefault(logging.New(os.Stderr, cfg.LogLevel))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	engine, err := whispercpp.Load(modelPath)
	if err != nil {
		slog.Error("failed to load model", "path", modelPath, "error", err)
		return err
	}
	defer func() { _ = engine.Close() }()
	slog.Info("model loaded", "path", modelPath)

	input, err := device.OpenDefault(cfg.MaxInputChannels, cfg.FramesPerBuffer)
	if err != nil {
		slog.Error("no usable input device", "error", err)
		return err
	}

	conv, release, err := newConverter(cfg, input.Format.SampleRate)
	if err != nil {
		_ = input.Close()
		return err
	}
	defer release()

	policy, err := audio.ParsePolicy(cfg.Backpressure)
	if err != nil {
		_ = input.Close()
		return err
	}
	ch := audio.NewSampleChannel(audio.ChannelCapacity(conv, cfg.FramesPerBuffer, cfg.ChannelCapacity), policy)
	defer ch.Close()

	producer := audio.NewProducer(input.Format.Channels, cfg.FramesPerBuffer, conv, ch, m)
	capture, err := input.Open(producer.OnFrames, ch)
	if err != nil {
		slog.Error("failed to open input stream", "error", err)
		return err
	}
	// Runs before ch.Close, so no callback can push into a closed channel.
	defer func() { _ = capture.Close() }()

	format := capture.Format()
	slog.Info("capture ready",
		"device", format.DeviceName,
		"channels", format.Channels,
		"native_rate", format.SampleRate,
		"frames_per_buffer", format.FramesPerBuffer,
		"target_rate", cfg.TargetSampleRate,
		"resampler", cfg.Resampler,
		"channel_capacity", ch.Cap(),
		"backpressure", policy,
	)

	breaker := resilience.New(resilience.Config{
		Threshold:    cfg.BreakerThreshold,
		ResetTimeout: cfg.BreakerResetTimeout,
	}).WithHook(func(_, to resilience.State) {
		m.EngineBreakerState.Set(float64(to))
	})
	invoker := transcribe.NewInvoker(engine, transcribe.Params{
		Language:  cfg.Language,
		Translate: cfg.Translate,
		Threads:   uint(cfg.Threads),
	}, breaker, m)

	seg := segment.New(ch, segment.Config{
		AmplitudeThreshold: cfg.AmplitudeThreshold,
		SilenceDuration:    cfg.SilenceDuration,
		PollInterval:       cfg.PollInterval,
	}, m)

	store := transcript.NewStore(orchestrator.TranscriptMaxEntries, orchestrator.TranscriptEventBuffer)
	mgr := orchestrator.New(orchestrator.Deps{
		Capture:     capture,
		Producer:    producer,
		Channel:     ch,
		Recorder:    seg,
		Transcriber: invoker,
		Store:       store,
		Breaker:     breaker,
		Metrics:     m,
		Out:         os.Stdout,
		SampleRate:  cfg.TargetSampleRate,
		SkipSilent:  cfg.SkipSilent,
	})

	if cfg.HTTPAddr != "" {
		srv := server.New(store, reg, mgr)
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.HTTPAddr); err != nil {
				slog.Error("http server error", "addr", cfg.HTTPAddr, "error", err)
			}
		}()
	}

	return mgr.Run(ctx)
}

// newConverter builds the configured rate converter from the device rate to the
// target rate. release frees converter resources.
func newConverter(cfg *config.Config, nativeRate float64) (resample.Converter, func(), error) {
	target := float64(cfg.TargetSampleRate)

	if cfg.Resampler == "soxr" {
		c, err := soxr.New(nativeRate, target, cfg.ChunkFrames)
		if err != nil {
			return nil, nil, err
		}
		return c, func() { _ = c.Close() }, nil
	}

	window, err := resample.ParseWindow(cfg.SincWindow)
	if err != nil {
		return nil, nil, err
	}
	c, err := resample.NewSincFixedIn(nativeRate, target, cfg.ChunkFrames, resample.SincParams{
		SincLen:      cfg.SincLen,
		Cutoff:       cfg.SincCutoff,
		Oversampling: cfg.SincOversampling,
		Window:       window,
	})
	if err != nil {
		return nil, nil, err
	}
	return c, func() {}, nil
}
