package whispercpp

import (
	"path/filepath"
	"testing"

	apperrors "github.com/GriffinCanCode/whisper-agent/internal/errors"
)

func TestLoadMissingModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ggml-missing.bin")

	_, err := Load(path)
	if !apperrors.IsCode(err, apperrors.CodeModelLoad) {
		t.Fatalf("Load(%q) error = %v, want MODEL_LOAD_FAILED", path, err)
	}
	if !apperrors.IsFatal(err) {
		t.Errorf("IsFatal(%v) = false, want true", err)
	}
}
