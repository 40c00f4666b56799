package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/GriffinCanCode/whisper-agent/internal/config"
)

type recordedRun struct {
	calls     int
	cfg       *config.Config
	modelPath string
}

func (r *recordedRun) run(ctx context.Context, cfg *config.Config, modelPath string) error {
	r.calls++
	r.cfg = cfg
	r.modelPath = modelPath
	return nil
}

func execute(t *testing.T, args ...string) (*recordedRun, string, error) {
	t.Helper()
	rec := &recordedRun{}
	cmd := newRootCmd(viper.New(), rec.run)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return rec, out.String(), err
}

func TestRootRequiresExactlyOneModelPath(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no arguments", nil},
		{"two arguments", []string{"a.bin", "b.bin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, out, err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("Execute() error = nil, want argument error")
			}
			if !strings.Contains(out, "Usage:") || !strings.Contains(out, "whisper-agent <path_to_model>") {
				t.Errorf("output lacks usage message:\n%s", out)
			}
			if rec.calls != 0 {
				t.Errorf("runner called %d times, want 0", rec.calls)
			}
		})
	}
}

func TestRootRunsWithModelPath(t *testing.T) {
	rec, _, err := execute(t, "models/ggml-base.en.bin")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if rec.calls != 1 || rec.modelPath != "models/ggml-base.en.bin" {
		t.Fatalf("runner calls = %d, path = %q", rec.calls, rec.modelPath)
	}
	if rec.cfg.ModelPath != rec.modelPath {
		t.Errorf("cfg.ModelPath = %q, want %q", rec.cfg.ModelPath, rec.modelPath)
	}
	if rec.cfg.SilenceDuration != 2*time.Second || rec.cfg.Language != "en" {
		t.Errorf("defaults not applied: %+v", rec.cfg)
	}
}

func TestRootFlagsOverrideEnv(t *testing.T) {
	t.Setenv("WHISPER_AGENT_LANGUAGE", "fr")
	t.Setenv("WHISPER_AGENT_THREADS", "3")

	rec, _, err := execute(t, "--language", "de", "--silence-duration", "750ms", "--skip-silent=false", "model.bin")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if rec.cfg.Language != "de" {
		t.Errorf("Language = %q, want flag value %q", rec.cfg.Language, "de")
	}
	if rec.cfg.Threads != 3 {
		t.Errorf("Threads = %d, want env value 3", rec.cfg.Threads)
	}
	if rec.cfg.SilenceDuration != 750*time.Millisecond {
		t.Errorf("SilenceDuration = %v, want 750ms", rec.cfg.SilenceDuration)
	}
	if rec.cfg.SkipSilent {
		t.Error("SkipSilent = true, want false")
	}
}

func TestRootInvalidConfigSkipsRunner(t *testing.T) {
	rec, out, err := execute(t, "--backpressure", "sometimes", "model.bin")
	if err == nil {
		t.Fatal("Execute() error = nil, want config error")
	}
	if rec.calls != 0 {
		t.Errorf("runner called %d times, want 0", rec.calls)
	}
	if strings.Contains(out, "Usage:") {
		t.Error("config errors should not print usage")
	}
}
