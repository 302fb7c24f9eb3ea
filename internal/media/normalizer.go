package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"subgen/internal/logging"
)

// ErrExtraction marks audio extraction failures (corrupt file, missing
// audio track, unsupported codec). Callers classify with errors.Is.
var ErrExtraction = errors.New("audio extraction failed")

// Kind classifies an upload by its declared extension.
type Kind int

const (
	// KindUnknown extensions pass through; the transcription backend is
	// left to reject unsupported content.
	KindUnknown Kind = iota
	KindAudio
	KindVideo
)

// KindForPath classifies by extension only; no content sniffing.
func KindForPath(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3", ".wav":
		return KindAudio
	case ".mp4":
		return KindVideo
	default:
		return KindUnknown
	}
}

// TransientAudio is an extracted audio artifact scoped to one ingestion.
// The caller owns it and must call Release on every exit path.
type TransientAudio struct {
	path     string
	released bool
}

// Path returns the location of the extracted audio file.
func (t *TransientAudio) Path() string {
	if t == nil {
		return ""
	}
	return t.path
}

// Release removes the artifact. Releasing twice or releasing an already
// missing file is not an error.
func (t *TransientAudio) Release() error {
	if t == nil || t.released {
		return nil
	}
	t.released = true
	if err := os.Remove(t.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove transient audio %q: %w", t.path, err)
	}
	return nil
}

// Normalizer converts uploads into backend-ready audio paths.
type Normalizer struct {
	ffmpegBinary  string
	workDir       string
	logger        *slog.Logger
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewNormalizer creates a normalizer writing transient artifacts under
// workDir (os.TempDir when empty).
func NewNormalizer(ffmpegBinary, workDir string, logger *slog.Logger) *Normalizer {
	if ffmpegBinary == "" {
		ffmpegBinary = FFmpegCommand
	}
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &Normalizer{
		ffmpegBinary: ffmpegBinary,
		workDir:      workDir,
		logger:       logging.NewComponentLogger(logger, "media"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (n *Normalizer) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	n.commandRunner = runner
}

// Normalize returns a path to audio the transcription backend can read.
// Audio and unrecognized extensions pass through with a nil transient;
// video inputs produce a fresh transient WAV the caller must release.
func (n *Normalizer) Normalize(ctx context.Context, source string) (string, *TransientAudio, error) {
	if KindForPath(source) != KindVideo {
		return source, nil, nil
	}

	if err := os.MkdirAll(n.workDir, 0o755); err != nil {
		return "", nil, fmt.Errorf("%w: ensure work directory: %w", ErrExtraction, err)
	}
	tmp, err := os.CreateTemp(n.workDir, "subgen-audio-*.wav")
	if err != nil {
		return "", nil, fmt.Errorf("%w: create transient audio file: %w", ErrExtraction, err)
	}
	dest := tmp.Name()
	if err := tmp.Close(); err != nil {
		os.Remove(dest)
		return "", nil, fmt.Errorf("%w: close transient audio file: %w", ErrExtraction, err)
	}

	if err := n.extract(ctx, source, dest); err != nil {
		// No partial temp file is left behind on failure.
		os.Remove(dest)
		return "", nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	n.logger.Debug("extracted audio track",
		logging.String("source", source),
		logging.String("dest", dest),
		logging.Int("sample_rate", TargetSampleRate))

	return dest, &TransientAudio{path: dest}, nil
}

func (n *Normalizer) extract(ctx context.Context, source, dest string) error {
	if n.commandRunner != nil {
		return n.commandRunner(ctx, n.ffmpegBinary, buildExtractArgs(source, dest)...)
	}
	return ExtractAudio(ctx, n.ffmpegBinary, source, dest)
}
