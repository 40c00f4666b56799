package resample

import (
	"math"
	"strings"

	apperrors "github.com/GriffinCanCode/whisper-agent/internal/errors"
)

// Window selects the function applied to the sinc kernel.
// The "2" variants are the squared window: lower side lobes, wider main lobe.
type Window int

const (
	WindowBlackman Window = iota
	WindowBlackman2
	WindowBlackmanHarris
	WindowBlackmanHarris2
	WindowHann
	WindowHann2
)

var windowNames = [...]string{
	"blackman",
	"blackman2",
	"blackmanharris",
	"blackmanharris2",
	"hann",
	"hann2",
}

func (w Window) String() string {
	if w < 0 || int(w) >= len(windowNames) {
		return "unknown"
	}
	return windowNames[w]
}

// ParseWindow maps a config name onto a Window.
func ParseWindow(name string) (Window, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range windowNames {
		if n == name {
			return Window(i), nil
		}
	}
	return 0, apperrors.Newf(apperrors.CodeConfigInvalid, "unknown sinc window %q", name)
}

// at evaluates the window at t in [0, 1].
func (w Window) at(t float64) float64 {
	switch w {
	case WindowBlackman:
		return blackman(t)
	case WindowBlackman2:
		v := blackman(t)
		return v * v
	case WindowBlackmanHarris:
		return blackmanHarris(t)
	case WindowBlackmanHarris2:
		v := blackmanHarris(t)
		return v * v
	case WindowHann:
		return hann(t)
	case WindowHann2:
		v := hann(t)
		return v * v
	default:
		return 1
	}
}

func blackman(t float64) float64 {
	return 0.42 - 0.5*math.Cos(2*math.Pi*t) + 0.08*math.Cos(4*math.Pi*t)
}

func blackmanHarris(t float64) float64 {
	return 0.35875 -
		0.48829*math.Cos(2*math.Pi*t) +
		0.14128*math.Cos(4*math.Pi*t) -
		0.01168*math.Cos(6*math.Pi*t)
}

func hann(t float64) float64 {
	return 0.5 - 0.5*math.Cos(2*math.Pi*t)
}
