package resample

import (
	"errors"
	"math"
	"testing"

	apperrors "github.com/GriffinCanCode/whisper-agent/internal/errors"
)

func testParams() SincParams {
	// Smaller kernel keeps the tests fast; the algorithm is size independent.
	return SincParams{SincLen: 32, Cutoff: 0.95, Oversampling: 64, Window: WindowBlackmanHarris2}
}

func TestNewSincFixedInValidates(t *testing.T) {
	tests := []struct {
		name   string
		in     float64
		out    float64
		chunk  int
		params SincParams
	}{
		{"zero input rate", 0, 16000, 512, DefaultSincParams()},
		{"zero chunk", 44100, 16000, 0, DefaultSincParams()},
		{"odd sinc length", 44100, 16000, 512, SincParams{SincLen: 7, Cutoff: 0.9, Oversampling: 8}},
		{"cutoff too high", 44100, 16000, 512, SincParams{SincLen: 8, Cutoff: 1.2, Oversampling: 8}},
		{"no oversampling", 44100, 16000, 512, SincParams{SincLen: 8, Cutoff: 0.9, Oversampling: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSincFixedIn(tt.in, tt.out, tt.chunk, tt.params); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSincRejectsWrongFrameCount(t *testing.T) {
	s, err := NewSincFixedIn(44100, 16000, 512, testParams())
	if err != nil {
		t.Fatalf("NewSincFixedIn() error = %v", err)
	}

	_, err = s.Process(nil, make([]float32, 511))
	if !errors.Is(err, ErrFrameMismatch) {
		t.Errorf("Process(511) error = %v, want ErrFrameMismatch", err)
	}
	if !apperrors.IsCode(err, apperrors.CodeFraming) {
		t.Errorf("Process(511) code = %v, want %v", apperrors.CodeOf(err), apperrors.CodeFraming)
	}
}

func TestSincOutputTracksRatio(t *testing.T) {
	const chunk = 512
	s, err := NewSincFixedIn(44100, 16000, chunk, testParams())
	if err != nil {
		t.Fatalf("NewSincFixedIn() error = %v", err)
	}

	in := make([]float32, chunk)
	total := 0
	const calls = 200
	for i := 0; i < calls; i++ {
		out, err := s.Process(nil, in)
		if err != nil {
			t.Fatalf("Process() error = %v", err)
		}
		if len(out) > s.MaxOutputFrames() {
			t.Fatalf("call %d produced %d samples, max %d", i, len(out), s.MaxOutputFrames())
		}
		total += len(out)
	}

	want := float64(calls*chunk) * 16000 / 44100
	// Output lags the input by half a kernel.
	if diff := math.Abs(float64(total) - want); diff > float64(testParams().SincLen) {
		t.Errorf("total output = %d, want about %.0f", total, want)
	}
}

func TestSincPreservesDC(t *testing.T) {
	s, err := NewSincFixedIn(48000, 16000, 480, testParams())
	if err != nil {
		t.Fatalf("NewSincFixedIn() error = %v", err)
	}

	in := make([]float32, 480)
	for i := range in {
		in[i] = 0.5
	}
	var out []float32
	for i := 0; i < 10; i++ {
		out, err = s.Process(out, in)
		if err != nil {
			t.Fatalf("Process() error = %v", err)
		}
	}
	// After the history fills, a constant input must come out unchanged.
	for i, v := range out {
		if math.Abs(float64(v)-0.5) > 1e-3 {
			t.Fatalf("out[%d] = %f, want 0.5", i, v)
		}
	}
}

func TestSincPassesLowFrequencyTone(t *testing.T) {
	const (
		inRate  = 44100.0
		outRate = 16000.0
		freq    = 440.0
		chunk   = 441
	)
	s, err := NewSincFixedIn(inRate, outRate, chunk, testParams())
	if err != nil {
		t.Fatalf("NewSincFixedIn() error = %v", err)
	}

	var out []float32
	in := make([]float32, chunk)
	n := 0
	for c := 0; c < 40; c++ {
		for i := range in {
			in[i] = float32(math.Sin(2 * math.Pi * freq * float64(n) / inRate))
			n++
		}
		res, err := s.Process(nil, in)
		if err != nil {
			t.Fatalf("Process() error = %v", err)
		}
		out = append(out, res...)
	}

	// Skip the warm-up and check the tone amplitude survives.
	var peak float64
	for _, v := range out[len(out)/2:] {
		peak = math.Max(peak, math.Abs(float64(v)))
	}
	if peak < 0.95 || peak > 1.05 {
		t.Errorf("tone peak = %f, want about 1.0", peak)
	}
}

func TestSincReset(t *testing.T) {
	s, err := NewSincFixedIn(44100, 16000, 256, testParams())
	if err != nil {
		t.Fatalf("NewSincFixedIn() error = %v", err)
	}
	in := make([]float32, 256)
	for i := range in {
		in[i] = 1
	}

	first, _ := s.Process(nil, in)
	first = append([]float32(nil), first...)
	_, _ = s.Process(nil, in)

	s.Reset()
	again, _ := s.Process(nil, in)
	if len(again) != len(first) {
		t.Fatalf("after Reset got %d samples, want %d", len(again), len(first))
	}
	for i := range first {
		if again[i] != first[i] {
			t.Fatalf("after Reset out[%d] = %f, want %f", i, again[i], first[i])
		}
	}
}

func TestParseWindow(t *testing.T) {
	for i, name := range windowNames {
		w, err := ParseWindow(name)
		if err != nil {
			t.Errorf("ParseWindow(%q) error = %v", name, err)
		}
		if w != Window(i) || w.String() != name {
			t.Errorf("ParseWindow(%q) = %v", name, w)
		}
	}
	if _, err := ParseWindow("kaiser"); !apperrors.IsCode(err, apperrors.CodeConfigInvalid) {
		t.Errorf("ParseWindow(kaiser) error = %v, want CONFIG_INVALID", err)
	}
}

func TestWindowShape(t *testing.T) {
	for _, w := range []Window{WindowBlackman, WindowBlackman2, WindowBlackmanHarris, WindowBlackmanHarris2, WindowHann, WindowHann2} {
		if v := w.at(0.5); math.Abs(v-1) > 1e-9 {
			t.Errorf("%s.at(0.5) = %f, want 1", w, v)
		}
		if v := w.at(0); v > 1e-3 {
			t.Errorf("%s.at(0) = %f, want ~0", w, v)
		}
	}
}
