// Package transcribe runs one batch recognition per utterance and turns the
// engine's segments into a single line of text.
package transcribe

import (
	"context"
	"strings"
	"time"
)

// BlankSentinel is the segment text the engine emits for audio without speech.
const BlankSentinel = "[BLANK_AUDIO]"

// SegmentSeparator joins the surviving segment texts of one utterance.
const SegmentSeparator = " "

// Params configures inference. Built once at startup and reused for every call.
// Engine console output (special tokens, progress, realtime and timestamp
// printing) is always off; the whisper.cpp bindings fix those flags when they
// create a context, so they are not exposed here.
type Params struct {
	Language  string
	Translate bool // translate to English instead of transcribing
	Threads   uint
}

// Segment is one timed piece of recognised text.
type Segment struct {
	Text  string
	Start time.Duration
	End   time.Duration
}

// Result is the outcome of one utterance.
type Result struct {
	Text     string
	Segments []Segment
	Elapsed  time.Duration // wall time spent in the engine
}

// Engine runs batch inference over 16 kHz mono samples.
type Engine interface {
	Transcribe(ctx context.Context, p Params, samples []float32) ([]Segment, error)
	Close() error
}

// Filter drops blank-audio segments and segments left empty after trimming,
// and trims the text of the rest. Filter(Filter(s)) equals Filter(s).
func Filter(segments []Segment) []Segment {
	out := make([]Segment, 0, len(segments))
	for _, s := range segments {
		text := strings.TrimSpace(s.Text)
		if text == "" || text == BlankSentinel {
			continue
		}
		s.Text = text
		out = append(out, s)
	}
	return out
}

// Join concatenates segment texts with SegmentSeparator.
func Join(segments []Segment) string {
	var b strings.Builder
	for i, s := range segments {
		if i > 0 {
			b.WriteString(SegmentSeparator)
		}
		b.WriteString(s.Text)
	}
	return b.String()
}
