// Package device negotiates and opens the default portaudio input.
package device

import (
	"log/slog"

	"github.com/gordonklaus/portaudio"

	"github.com/GriffinCanCode/whisper-agent/internal/audio"
	apperrors "github.com/GriffinCanCode/whisper-agent/internal/errors"
	"github.com/GriffinCanCode/whisper-agent/internal/syncx"
)

// Input is a negotiated but not yet opened input configuration.
type Input struct {
	info   *portaudio.DeviceInfo
	params portaudio.StreamParameters
	Format audio.Format
}

// OpenDefault initialises portaudio and negotiates a format on the default
// input device. On error portaudio is terminated again.
func OpenDefault(maxChannels, framesPerBuffer int) (*Input, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDeviceUnavailable, "failed to initialise portaudio")
	}

	in, err := negotiate(maxChannels, framesPerBuffer)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, err
	}
	return in, nil
}

func negotiate(maxChannels, framesPerBuffer int) (*Input, error) {
	dev, err := portaudio.DefaultInputDevice()
	if err != nil || dev == nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDeviceUnavailable, "no default input device")
	}
	if dev.MaxInputChannels < 1 {
		return nil, apperrors.Newf(apperrors.CodeNoInputConfig, "device %q has no input channels", dev.Name)
	}

	noop := func([]float32) {}
	for _, channels := range candidateChannels(maxChannels, dev.MaxInputChannels) {
		params := portaudio.StreamParameters{
			Input: portaudio.StreamDeviceParameters{
				Device:   dev,
				Channels: channels,
				Latency:  dev.DefaultLowInputLatency,
			},
			SampleRate:      dev.DefaultSampleRate,
			FramesPerBuffer: framesPerBuffer,
		}
		if err := portaudio.IsFormatSupported(params, noop); err != nil {
			slog.Debug("input format rejected", "device", dev.Name, "channels", channels, "error", err)
			continue
		}

		slog.Info("input device selected",
			"device", dev.Name,
			"channels", channels,
			"sample_rate", dev.DefaultSampleRate,
			"frames_per_buffer", framesPerBuffer,
		)
		return &Input{
			info:   dev,
			params: params,
			Format: audio.Format{
				DeviceName:      dev.Name,
				Channels:        channels,
				SampleRate:      dev.DefaultSampleRate,
				FramesPerBuffer: framesPerBuffer,
			},
		}, nil
	}

	return nil, apperrors.Newf(apperrors.CodeNoInputConfig,
		"device %q supports no float32 input at %g Hz", dev.Name, dev.DefaultSampleRate).
		WithMetadata("device", dev.Name)
}

// candidateChannels lists channel counts to try, widest first, ending in mono.
func candidateChannels(configured, deviceMax int) []int {
	n := min(configured, deviceMax)
	if n < 1 {
		n = 1
	}
	out := make([]int, 0, n)
	for c := n; c >= 1; c-- {
		out = append(out, c)
	}
	return out
}

// Open opens the negotiated stream in the stopped state with onFrames gated by
// a fresh Gate, and hands it to a Controller that terminates portaudio on Close.
// halt is the output onFrames may block on; it may be nil.
func (in *Input) Open(onFrames func([]float32), halt audio.Interrupter) (*audio.Controller, error) {
	gate := &syncx.Gate{}
	stream, err := portaudio.OpenStream(in.params, syncx.Wrap(gate, onFrames))
	if err != nil {
		_ = portaudio.Terminate()
		return nil, apperrors.Wrap(err, apperrors.CodeDeviceUnavailable, "failed to open input stream").
			WithMetadata("device", in.info.Name)
	}
	c := audio.NewController(stream, gate, in.Format, portaudio.Terminate)
	if halt != nil {
		c.WithInterrupter(halt)
	}
	return c, nil
}

// Close releases portaudio when the input is abandoned before Open.
func (in *Input) Close() error {
	return portaudio.Terminate()
}
