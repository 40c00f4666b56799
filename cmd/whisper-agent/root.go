package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/GriffinCanCode/whisper-agent/internal/config"
)

// runFunc starts the agent once arguments and configuration are valid.
type runFunc func(ctx context.Context, cfg *config.Config, modelPath string) error

func flagName(key string) string { return strings.ReplaceAll(key, "_", "-") }

func newRootCmd(v *viper.Viper, run runFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whisper-agent <path_to_model>",
		Short: "Transcribe live microphone speech with whisper.cpp",
		Long: `whisper-agent listens on the default input device, cuts the audio into
utterances at every pause of --silence-duration and prints one line of text per
utterance on stdout. Logs go to stderr.

Every flag can also be set in config.yaml, in .env, or through an environment
variable prefixed with ` + config.EnvPrefix + `_ (for example ` + config.EnvPrefix + `_SILENCE_DURATION=1500ms).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Argument errors print usage; runtime errors do not.
			cmd.SilenceUsage = true

			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			cfg.ModelPath = args[0]
			return run(cmd.Context(), cfg, args[0])
		},
	}

	f := cmd.Flags()
	f.String(flagName(config.KeyLanguage), "en", "spoken language code, or \"auto\"")
	f.Bool(flagName(config.KeyTranslate), true, "translate the transcript to English")
	f.Int(flagName(config.KeyThreads), 1, "inference threads")
	f.Int(flagName(config.KeyMaxInputChannels), 2, "widest channel layout to request from the device")
	f.Int(flagName(config.KeyFramesPerBuffer), 1024, "frames per device callback")
	f.Int(flagName(config.KeyChunkFrames), 512, "fixed rate converter input size")
	f.String(flagName(config.KeyResampler), "sinc", "rate converter: sinc or soxr")
	f.String(flagName(config.KeySincWindow), "blackmanharris2", "sinc kernel window")
	f.Float64(flagName(config.KeyAmplitudeThreshold), 0.05, "absolute sample level that counts as voice")
	f.Duration(flagName(config.KeySilenceDuration), 2*time.Second, "quiet time that ends an utterance")
	f.String(flagName(config.KeyBackpressure), "drop-oldest", "full channel policy: block, drop-newest or drop-oldest")
	f.Bool(flagName(config.KeySkipSilent), true, "do not transcribe utterances without voice activity")
	f.String(flagName(config.KeyHTTPAddr), "", "serve /ws, /metrics, /healthz and /api/transcripts on this address")
	f.String(flagName(config.KeyLogLevel), "info", "log level: debug, info, warn or error")

	f.VisitAll(func(fl *pflag.Flag) {
		key := strings.ReplaceAll(fl.Name, "-", "_")
		if err := v.BindPFlag(key, fl); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", fl.Name, err))
		}
	})
	return cmd
}
