// Package soxr provides a libsoxr-backed resample.Converter.
package soxr

import (
	"bytes"
	"encoding/binary"
	"log/slog"
	"math"

	zsoxr "github.com/zaf/resample"

	apperrors "github.com/GriffinCanCode/whisper-agent/internal/errors"
	"github.com/GriffinCanCode/whisper-agent/internal/resample"
)

// Converter adapts libsoxr's streaming writer to the fixed-input Converter contract.
// libsoxr buffers internally, so a single call may return fewer samples than
// ChunkFrames*ratio; the long-run total tracks the ratio.
type Converter struct {
	chunk   int
	ratio   float64
	maxOut  int
	out     *bytes.Buffer
	r       *zsoxr.Resampler
	inBytes []byte
}

var _ resample.Converter = (*Converter)(nil)

// New creates a high quality libsoxr converter.
func New(inRate, outRate float64, chunk int) (*Converter, error) {
	if inRate <= 0 || outRate <= 0 {
		return nil, apperrors.Newf(apperrors.CodeInvalidArgument, "sample rates must be positive, got %g -> %g", inRate, outRate)
	}
	if chunk <= 0 {
		return nil, apperrors.Newf(apperrors.CodeInvalidArgument, "chunk frames must be positive, got %d", chunk)
	}

	// The resampler writes into out; Process drains it after every chunk.
	out := &bytes.Buffer{}
	r, err := zsoxr.New(out, inRate, outRate, 1, zsoxr.F32, zsoxr.HighQ)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "create soxr resampler")
	}

	ratio := outRate / inRate
	return &Converter{
		chunk:   chunk,
		ratio:   ratio,
		maxOut:  2*int(math.Ceil(float64(chunk)*ratio)) + 1,
		out:     out,
		r:       r,
		inBytes: make([]byte, chunk*4),
	}, nil
}

// ChunkFrames implements resample.Converter.
func (s *Converter) ChunkFrames() int { return s.chunk }

// MaxOutputFrames implements resample.Converter.
func (s *Converter) MaxOutputFrames() int { return s.maxOut }

// Process implements resample.Converter. in must hold exactly ChunkFrames samples.
func (s *Converter) Process(dst, in []float32) ([]float32, error) {
	dst = dst[:0]
	if len(in) != s.chunk {
		return dst, apperrors.Wrapf(resample.ErrFrameMismatch, apperrors.CodeFraming,
			"soxr converter got %d frames, want %d", len(in), s.chunk)
	}

	// libsoxr reads native-endian floats; every supported target is little-endian.
	for i, v := range in {
		binary.LittleEndian.PutUint32(s.inBytes[i*4:], math.Float32bits(v))
	}
	if _, err := s.r.Write(s.inBytes); err != nil {
		return dst, apperrors.Wrap(err, apperrors.CodeFraming, "soxr write")
	}

	raw := s.out.Bytes()
	n := len(raw) / 4
	for i := 0; i < n; i++ {
		dst = append(dst, math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:])))
	}
	// Keep a trailing partial sample, if any, for the next call.
	s.out.Next(n * 4)
	return dst, nil
}

// Reset implements resample.Converter. libsoxr flushes its pending tail into
// out while resetting, so out is emptied afterwards.
func (s *Converter) Reset() {
	if err := s.r.Reset(s.out); err != nil {
		slog.Warn("soxr reset failed", "error", err)
	}
	s.out.Reset()
}

// Close releases the libsoxr handle.
func (s *Converter) Close() error {
	return s.r.Close()
}
