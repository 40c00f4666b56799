package resample

import (
	"errors"
	"math"

	apperrors "github.com/GriffinCanCode/whisper-agent/internal/errors"
)

// ErrFrameMismatch is the cause of every framing error returned by Process.
var ErrFrameMismatch = errors.New("converter input frame count mismatch")

// Converter resamples fixed-size mono chunks.
type Converter interface {
	// ChunkFrames is the exact input length Process accepts.
	ChunkFrames() int
	// MaxOutputFrames bounds the length of a single Process result.
	MaxOutputFrames() int
	// Process appends the converted samples for in to dst[:0] and returns it.
	Process(dst, in []float32) ([]float32, error)
	// Reset drops filter history so the next chunk starts a new signal.
	Reset()
}

// SincParams configures the interpolation kernel.
type SincParams struct {
	SincLen      int     // taps per output sample, even
	Cutoff       float64 // relative to the lower Nyquist frequency, (0, 1]
	Oversampling int     // kernel table rows between two input samples
	Window       Window
}

// DefaultSincParams returns the kernel used for 44.1 kHz -> 16 kHz speech.
func DefaultSincParams() SincParams {
	return SincParams{
		SincLen:      128,
		Cutoff:       0.95,
		Oversampling: 256,
		Window:       WindowBlackmanHarris2,
	}
}

// SincFixedIn is a windowed-sinc converter with a fixed input chunk size.
type SincFixedIn struct {
	step   float64 // input samples per output sample
	chunk  int
	maxOut int
	params SincParams
	table  [][]float32 // Oversampling+1 rows of SincLen taps

	// buf holds SincLen samples of history followed by the current chunk.
	buf []float32
	// pos is the input position of the next output sample, in buf coordinates.
	pos float64
}

var _ Converter = (*SincFixedIn)(nil)

// NewSincFixedIn creates a converter from inRate to outRate taking chunk frames per call.
func NewSincFixedIn(inRate, outRate float64, chunk int, p SincParams) (*SincFixedIn, error) {
	switch {
	case inRate <= 0 || outRate <= 0:
		return nil, apperrors.Newf(apperrors.CodeInvalidArgument, "sample rates must be positive, got %g -> %g", inRate, outRate)
	case chunk <= 0:
		return nil, apperrors.Newf(apperrors.CodeInvalidArgument, "chunk frames must be positive, got %d", chunk)
	case p.SincLen < 2 || p.SincLen%2 != 0:
		return nil, apperrors.Newf(apperrors.CodeInvalidArgument, "sinc length must be even and >= 2, got %d", p.SincLen)
	case p.Cutoff <= 0 || p.Cutoff > 1:
		return nil, apperrors.Newf(apperrors.CodeInvalidArgument, "cutoff must be in (0, 1], got %g", p.Cutoff)
	case p.Oversampling < 1:
		return nil, apperrors.Newf(apperrors.CodeInvalidArgument, "oversampling must be >= 1, got %d", p.Oversampling)
	}

	ratio := outRate / inRate
	s := &SincFixedIn{
		step:   1 / ratio,
		chunk:  chunk,
		maxOut: int(math.Ceil(float64(chunk)*ratio)) + 1,
		params: p,
		table:  buildTable(p, math.Min(1, ratio)),
		buf:    make([]float32, p.SincLen+chunk),
	}
	s.Reset()
	return s, nil
}

// buildTable precomputes the kernel for Oversampling+1 evenly spaced fractional
// offsets in [0, 1]. Each row is normalised to unity DC gain.
func buildTable(p SincParams, bandwidth float64) [][]float32 {
	L := p.SincLen
	half := L / 2
	c := p.Cutoff * bandwidth

	table := make([][]float32, p.Oversampling+1)
	row := make([]float64, L)
	for r := range table {
		d := float64(r) / float64(p.Oversampling)
		var sum float64
		for j := 0; j < L; j++ {
			x := float64(j-half+1) - d
			t := (x + float64(half)) / float64(L)
			row[j] = c * sinc(c*x) * p.Window.at(t)
			sum += row[j]
		}
		taps := make([]float32, L)
		for j := range taps {
			taps[j] = float32(row[j] / sum)
		}
		table[r] = taps
	}
	return table
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

// ChunkFrames implements Converter.
func (s *SincFixedIn) ChunkFrames() int { return s.chunk }

// MaxOutputFrames implements Converter.
func (s *SincFixedIn) MaxOutputFrames() int { return s.maxOut }

// Reset implements Converter.
func (s *SincFixedIn) Reset() {
	clear(s.buf)
	s.pos = float64(s.params.SincLen)
}

// Process implements Converter. in must hold exactly ChunkFrames samples.
func (s *SincFixedIn) Process(dst, in []float32) ([]float32, error) {
	dst = dst[:0]
	if len(in) != s.chunk {
		return dst, apperrors.Wrapf(ErrFrameMismatch, apperrors.CodeFraming,
			"sinc converter got %d frames, want %d", len(in), s.chunk)
	}

	L := s.params.SincLen
	half := L / 2
	over := float64(s.params.Oversampling)
	copy(s.buf[L:], in)

	// The kernel around idx reaches idx+half, which must stay inside buf.
	limit := float64(L + s.chunk - half)
	for s.pos < limit {
		idx := int(s.pos)
		f := (s.pos - float64(idx)) * over
		r0 := int(f)
		r1 := r0 + 1
		if r1 > s.params.Oversampling {
			r1 = s.params.Oversampling
		}
		a := float32(f - float64(r0))

		window := s.buf[idx-half+1 : idx+half+1]
		y0 := dot(window, s.table[r0])
		y1 := dot(window, s.table[r1])
		dst = append(dst, y0+(y1-y0)*a)

		s.pos += s.step
	}

	s.pos -= float64(s.chunk)
	copy(s.buf[:L], s.buf[s.chunk:])
	return dst, nil
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range b {
		sum += a[i] * b[i]
	}
	return sum
}
