package transcribe

import (
	"context"
	"errors"

	"subgen/internal/srt"
)

// ErrModelLoad marks backend model loading failures (missing weights,
// resource exhaustion). Reported, never retried automatically.
var ErrModelLoad = errors.New("model load failed")

// ErrTranscription marks backend inference failures. Reported, never
// retried automatically.
var ErrTranscription = errors.New("transcription failed")

// Result is the backend's output: full transcript text plus the ordered
// segment sequence as emitted. Immutable once returned.
type Result struct {
	Text     string
	Segments []srt.Segment
}

// ModelHandle is an opaque loaded-model reference. Handles are cheap to
// copy around; the expensive load happens at most once per tier via the
// Registry.
type ModelHandle interface {
	Tier() Tier
}

// Backend is the external speech-to-text collaborator.
type Backend interface {
	// LoadModel prepares a model for the given tier. Implementations may
	// be expensive; callers should go through a Registry.
	LoadModel(ctx context.Context, tier Tier) (ModelHandle, error)
	// Transcribe runs inference over the audio file at audioPath.
	Transcribe(ctx context.Context, handle ModelHandle, audioPath string) (Result, error)
}
