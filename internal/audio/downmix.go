// Package audio turns device callbacks into a stream of mono samples at the
// recognition rate and hands them to the consumer goroutine.
package audio

import (
	apperrors "github.com/GriffinCanCode/whisper-agent/internal/errors"
)

// Downmix averages each interleaved frame of channels values into one mono
// sample, written into dst[:0]. The frame count is preserved.
func Downmix(dst, interleaved []float32, channels int) ([]float32, error) {
	dst = dst[:0]
	if channels <= 0 {
		return dst, apperrors.Newf(apperrors.CodeFraming, "channel count must be positive, got %d", channels)
	}
	if len(interleaved)%channels != 0 {
		return dst, apperrors.Newf(apperrors.CodeFraming,
			"%d samples is not a whole number of %d-channel frames", len(interleaved), channels)
	}

	if channels == 1 {
		return append(dst, interleaved...), nil
	}

	scale := 1 / float32(channels)
	for i := 0; i < len(interleaved); i += channels {
		var sum float32
		for _, v := range interleaved[i : i+channels] {
			sum += v
		}
		dst = append(dst, sum*scale)
	}
	return dst, nil
}
