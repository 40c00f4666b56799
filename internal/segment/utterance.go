// Package segment splits the live sample stream into utterances: audio runs
// that end once the signal has stayed at or below an amplitude threshold for a
// fixed silence duration.
package segment

import (
	"time"

	"github.com/google/uuid"
)

// Utterance accumulates the samples of one recording cycle. It has a single
// writer, the segmenter, and is reused across cycles.
type Utterance struct {
	ID         uuid.UUID
	Samples    []float32
	Voiced     bool // at least one sample exceeded the amplitude threshold
	StartedAt  time.Time
	SampleRate int
}

// NewUtterance allocates an utterance sized for capacity samples.
func NewUtterance(sampleRate, capacity int) *Utterance {
	return &Utterance{
		ID:         uuid.New(),
		Samples:    make([]float32, 0, capacity),
		SampleRate: sampleRate,
	}
}

// Append adds one sample.
func (u *Utterance) Append(s float32) {
	u.Samples = append(u.Samples, s)
}

// Clear empties the utterance for the next cycle, keeping its capacity.
func (u *Utterance) Clear() {
	u.ID = uuid.New()
	u.Samples = u.Samples[:0]
	u.Voiced = false
	u.StartedAt = time.Time{}
}

// Len is the number of samples held.
func (u *Utterance) Len() int { return len(u.Samples) }

// Duration is the audio length of the held samples.
func (u *Utterance) Duration() time.Duration {
	if u.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(u.Samples)) * time.Second / time.Duration(u.SampleRate)
}
