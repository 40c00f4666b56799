package orchestrator

import "time"

// Orchestrator configuration constants
const (
	// Utterance buffer preallocation, in seconds of audio.
	UtteranceInitialSeconds = 30

	// Transcript store configuration
	TranscriptMaxEntries  = 200
	TranscriptEventBuffer = 100

	// Pause between cycles after a transient failure, so a broken engine does
	// not turn the loop into a tight spin.
	FailureBackoff = 250 * time.Millisecond
)
