package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppErrorMessage(t *testing.T) {
	cause := stderrors.New("device busy")
	err := Wrap(cause, CodeDeviceUnavailable, "failed to resume stream").WithMetadata("device", "Built-in Microphone")

	msg := err.Error()
	for _, want := range []string{"[DEVICE_UNAVAILABLE]", "failed to resume stream", "Built-in Microphone", "caused by: device busy"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestCodeString(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{CodeUnknown, "UNKNOWN"},
		{CodeFraming, "FRAMING"},
		{CodeInference, "INFERENCE_FAILED"},
		{Code(99), "UNKNOWN"},
		{Code(-1), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.code.String(); got != tt.want {
			t.Errorf("Code(%d).String() = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestIsCodeThroughWrapping(t *testing.T) {
	base := New(CodeInference, "engine failed")
	wrapped := fmt.Errorf("cycle 3: %w", base)

	if !IsCode(wrapped, CodeInference) {
		t.Error("IsCode should see through fmt.Errorf wrapping")
	}
	if IsCode(nil, CodeInference) {
		t.Error("IsCode(nil) should be false")
	}
	if IsCode(stderrors.New("plain"), CodeInference) {
		t.Error("plain errors carry no code")
	}
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		fatal     bool
		transient bool
		shutdown  bool
	}{
		{"no device", New(CodeDeviceUnavailable, "x"), true, false, false},
		{"no config", New(CodeNoInputConfig, "x"), true, false, false},
		{"model", New(CodeModelLoad, "x"), true, false, false},
		{"inference", New(CodeInference, "x"), false, true, false},
		{"framing", New(CodeFraming, "x"), false, true, false},
		{"closed", New(CodeChannelClosed, "x"), false, false, true},
		{"plain", stderrors.New("x"), true, false, false},
		{"nil", nil, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.fatal {
				t.Errorf("IsFatal = %v, want %v", got, tt.fatal)
			}
			if got := IsTransient(tt.err); got != tt.transient {
				t.Errorf("IsTransient = %v, want %v", got, tt.transient)
			}
			if got := IsShutdown(tt.err); got != tt.shutdown {
				t.Errorf("IsShutdown = %v, want %v", got, tt.shutdown)
			}
		})
	}
}
