// Package config handles agent configuration
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "github.com/GriffinCanCode/whisper-agent/internal/errors"
	"github.com/GriffinCanCode/whisper-agent/internal/resample"
)

// EnvPrefix namespaces every environment variable, e.g. WHISPER_AGENT_SILENCE_DURATION.
const EnvPrefix = "WHISPER_AGENT"

// Config keys. Flag names use the same words joined by dashes.
const (
	KeyLanguage            = "language"
	KeyTranslate           = "translate"
	KeyThreads             = "threads"
	KeyTargetSampleRate    = "target_sample_rate"
	KeyChunkFrames         = "chunk_frames"
	KeyFramesPerBuffer     = "frames_per_buffer"
	KeyMaxInputChannels    = "max_input_channels"
	KeyResampler           = "resampler"
	KeySincLen             = "sinc_len"
	KeySincCutoff          = "sinc_cutoff"
	KeySincOversampling    = "sinc_oversampling"
	KeySincWindow          = "sinc_window"
	KeyAmplitudeThreshold  = "amplitude_threshold"
	KeySilenceDuration     = "silence_duration"
	KeyPollInterval        = "poll_interval"
	KeyBackpressure        = "backpressure"
	KeyChannelCapacity     = "channel_capacity"
	KeySkipSilent          = "skip_silent"
	KeyBreakerThreshold    = "breaker_threshold"
	KeyBreakerResetTimeout = "breaker_reset_timeout"
	KeyHTTPAddr            = "http_addr"
	KeyLogLevel            = "log_level"
)

// Config holds every tunable of the capture, segmentation and transcription pipeline.
type Config struct {
	ModelPath string

	// Recognition
	Language  string
	Translate bool
	Threads   int

	// Capture and conversion
	TargetSampleRate int
	ChunkFrames      int // fixed converter input size
	FramesPerBuffer  int // frames requested per device callback
	MaxInputChannels int
	Resampler        string // "sinc" or "soxr"
	SincLen          int
	SincCutoff       float64
	SincOversampling int
	SincWindow       string

	// Segmentation
	AmplitudeThreshold float64
	SilenceDuration    time.Duration
	PollInterval       time.Duration
	Backpressure       string // "block", "drop-newest" or "drop-oldest"
	ChannelCapacity    int    // 0 sizes the channel from the callback size
	SkipSilent         bool

	// Engine circuit breaker
	BreakerThreshold    int
	BreakerResetTimeout time.Duration

	HTTPAddr string
	LogLevel string
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyLanguage, "en")
	v.SetDefault(KeyTranslate, true)
	v.SetDefault(KeyThreads, 1)
	v.SetDefault(KeyTargetSampleRate, 16000)
	v.SetDefault(KeyChunkFrames, 512)
	v.SetDefault(KeyFramesPerBuffer, 1024)
	v.SetDefault(KeyMaxInputChannels, 2)
	v.SetDefault(KeyResampler, "sinc")
	v.SetDefault(KeySincLen, 128)
	v.SetDefault(KeySincCutoff, 0.95)
	v.SetDefault(KeySincOversampling, 256)
	v.SetDefault(KeySincWindow, "blackmanharris2")
	v.SetDefault(KeyAmplitudeThreshold, 0.05)
	v.SetDefault(KeySilenceDuration, 2*time.Second)
	v.SetDefault(KeyPollInterval, 50*time.Millisecond)
	v.SetDefault(KeyBackpressure, "drop-oldest")
	v.SetDefault(KeyChannelCapacity, 0)
	v.SetDefault(KeySkipSilent, true)
	v.SetDefault(KeyBreakerThreshold, 5)
	v.SetDefault(KeyBreakerResetTimeout, 30*time.Second)
	v.SetDefault(KeyHTTPAddr, "")
	v.SetDefault(KeyLogLevel, "info")
}

// Load reads configuration into a Config. Precedence, lowest first: defaults,
// config.yaml in the working directory, .env, environment, flags bound to v.
func Load(v *viper.Viper) (*Config, error) {
	// .env is optional; variables already set in the environment win.
	_ = godotenv.Load()

	SetDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, apperrors.Wrap(err, apperrors.CodeConfigInvalid, "failed to read config file")
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Language:            v.GetString(KeyLanguage),
		Translate:           v.GetBool(KeyTranslate),
		Threads:             v.GetInt(KeyThreads),
		TargetSampleRate:    v.GetInt(KeyTargetSampleRate),
		ChunkFrames:         v.GetInt(KeyChunkFrames),
		FramesPerBuffer:     v.GetInt(KeyFramesPerBuffer),
		MaxInputChannels:    v.GetInt(KeyMaxInputChannels),
		Resampler:           strings.ToLower(v.GetString(KeyResampler)),
		SincLen:             v.GetInt(KeySincLen),
		SincCutoff:          v.GetFloat64(KeySincCutoff),
		SincOversampling:    v.GetInt(KeySincOversampling),
		SincWindow:          strings.ToLower(v.GetString(KeySincWindow)),
		AmplitudeThreshold:  v.GetFloat64(KeyAmplitudeThreshold),
		SilenceDuration:     v.GetDuration(KeySilenceDuration),
		PollInterval:        v.GetDuration(KeyPollInterval),
		Backpressure:        strings.ToLower(v.GetString(KeyBackpressure)),
		ChannelCapacity:     v.GetInt(KeyChannelCapacity),
		SkipSilent:          v.GetBool(KeySkipSilent),
		BreakerThreshold:    v.GetInt(KeyBreakerThreshold),
		BreakerResetTimeout: v.GetDuration(KeyBreakerResetTimeout),
		HTTPAddr:            v.GetString(KeyHTTPAddr),
		LogLevel:            v.GetString(KeyLogLevel),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	invalid := func(key string, format string, args ...interface{}) error {
		return apperrors.Newf(apperrors.CodeConfigInvalid, format, args...).WithMetadata("key", key)
	}

	switch {
	case c.Threads < 1:
		return invalid(KeyThreads, "threads must be at least 1, got %d", c.Threads)
	case c.TargetSampleRate <= 0:
		return invalid(KeyTargetSampleRate, "target sample rate must be positive, got %d", c.TargetSampleRate)
	case c.ChunkFrames <= 0:
		return invalid(KeyChunkFrames, "chunk frames must be positive, got %d", c.ChunkFrames)
	case c.FramesPerBuffer <= 0:
		return invalid(KeyFramesPerBuffer, "frames per buffer must be positive, got %d", c.FramesPerBuffer)
	case c.MaxInputChannels < 1:
		return invalid(KeyMaxInputChannels, "max input channels must be at least 1, got %d", c.MaxInputChannels)
	case c.Resampler != "sinc" && c.Resampler != "soxr":
		return invalid(KeyResampler, "unknown resampler %q (supported: sinc, soxr)", c.Resampler)
	case c.SincLen < 2 || c.SincLen%2 != 0:
		return invalid(KeySincLen, "sinc length must be an even number >= 2, got %d", c.SincLen)
	case c.SincCutoff <= 0 || c.SincCutoff > 1:
		return invalid(KeySincCutoff, "sinc cutoff must be in (0, 1], got %g", c.SincCutoff)
	case c.SincOversampling < 1:
		return invalid(KeySincOversampling, "sinc oversampling must be at least 1, got %d", c.SincOversampling)
	case !knownWindow(c.SincWindow):
		return invalid(KeySincWindow, "unknown sinc window %q (supported: blackman, blackman2, blackmanharris, blackmanharris2, hann, hann2)", c.SincWindow)
	case c.AmplitudeThreshold < 0 || c.AmplitudeThreshold >= 1:
		return invalid(KeyAmplitudeThreshold, "amplitude threshold must be in [0, 1), got %g", c.AmplitudeThreshold)
	case c.SilenceDuration <= 0:
		return invalid(KeySilenceDuration, "silence duration must be positive, got %s", c.SilenceDuration)
	case c.PollInterval <= 0:
		return invalid(KeyPollInterval, "poll interval must be positive, got %s", c.PollInterval)
	case c.Backpressure != "block" && c.Backpressure != "drop-newest" && c.Backpressure != "drop-oldest":
		return invalid(KeyBackpressure, "unknown backpressure policy %q (supported: block, drop-newest, drop-oldest)", c.Backpressure)
	case c.ChannelCapacity < 0:
		return invalid(KeyChannelCapacity, "channel capacity must not be negative, got %d", c.ChannelCapacity)
	}
	return nil
}

func knownWindow(name string) bool {
	_, err := resample.ParseWindow(name)
	return err == nil
}
