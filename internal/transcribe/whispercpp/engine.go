// Package whispercpp adapts the whisper.cpp Go bindings to transcribe.Engine.
package whispercpp

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	apperrors "github.com/GriffinCanCode/whisper-agent/internal/errors"
	"github.com/GriffinCanCode/whisper-agent/internal/transcribe"
)

// Engine holds a loaded model. Inference calls are serialised.
type Engine struct {
	mu    sync.Mutex
	model whisper.Model
	path  string
}

var _ transcribe.Engine = (*Engine)(nil)

// Load reads the model at path.
func Load(path string) (*Engine, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeModelLoad, "model file not readable").
			WithMetadata("path", path)
	}
	model, err := whisper.New(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeModelLoad, "failed to load model").
			WithMetadata("path", path)
	}
	return &Engine{model: model, path: path}, nil
}

// Transcribe implements transcribe.Engine. Cancelling ctx aborts inference
// before the encoder runs. English-only models ignore Params.Language.
func (e *Engine) Transcribe(ctx context.Context, p transcribe.Params, samples []float32) ([]transcribe.Segment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInference, "inference cancelled")
	}

	wctx, err := e.model.NewContext()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInference, "failed to create inference state")
	}
	if p.Language != "" && e.model.IsMultilingual() {
		if err := wctx.SetLanguage(p.Language); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInference, "unsupported language").
				WithMetadata("language", p.Language)
		}
	}
	wctx.SetTranslate(p.Translate)
	if p.Threads > 0 {
		wctx.SetThreads(p.Threads)
	}

	encoderBegin := func() bool { return ctx.Err() == nil }
	if err := wctx.Process(samples, encoderBegin, nil, nil); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, apperrors.Wrap(ctxErr, apperrors.CodeInference, "inference cancelled")
		}
		return nil, apperrors.Wrap(err, apperrors.CodeInference, "inference failed")
	}

	var segments []transcribe.Segment
	for {
		seg, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			return segments, nil
		}
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInference, "failed to read segment")
		}
		segments = append(segments, transcribe.Segment{Text: seg.Text, Start: seg.Start, End: seg.End})
	}
}

// Close frees the model.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model.Close()
}
