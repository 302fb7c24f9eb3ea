package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"subgen/internal/srt"
)

// WhisperCommand is the default transcription binary.
const WhisperCommand = "whisper"

// CLIBackend drives the external whisper CLI. Each Transcribe call runs
// the tool with JSON output into a scratch directory that is removed on
// all paths.
type CLIBackend struct {
	binary        string
	workDir       string
	language      string
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewCLIBackend creates a backend invoking binary ("whisper" when empty)
// with scratch output under workDir (os.TempDir when empty). language is
// an optional ISO 639-1 hint; empty means backend auto-detection.
func NewCLIBackend(binary, workDir, language string) *CLIBackend {
	if binary == "" {
		binary = WhisperCommand
	}
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &CLIBackend{binary: binary, workDir: workDir, language: language}
}

// WithCommandRunner sets a custom command runner (for testing).
func (b *CLIBackend) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	b.commandRunner = runner
}

type cliModel struct {
	tier   Tier
	binary string
}

func (m *cliModel) Tier() Tier { return m.tier }

// LoadModel resolves the whisper binary and validates the tier. The CLI
// downloads weights lazily on first inference, so resolution is the
// load-time check available here.
func (b *CLIBackend) LoadModel(ctx context.Context, tier Tier) (ModelHandle, error) {
	if _, err := ParseTier(string(tier)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelLoad, err)
	}
	if b.commandRunner == nil {
		if _, err := exec.LookPath(b.binary); err != nil {
			return nil, fmt.Errorf("%w: locate %q: %w", ErrModelLoad, b.binary, err)
		}
	}
	return &cliModel{tier: tier, binary: b.binary}, nil
}

// whisperSegment mirrors one entry of the CLI's JSON segments array.
type whisperSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// whisperPayload mirrors the CLI's JSON output file.
type whisperPayload struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
}

// Transcribe runs the CLI over audioPath and parses its JSON output.
func (b *CLIBackend) Transcribe(ctx context.Context, handle ModelHandle, audioPath string) (Result, error) {
	var result Result

	if audioPath == "" {
		return result, fmt.Errorf("%w: audio path required", ErrTranscription)
	}
	model, ok := handle.(*cliModel)
	if !ok || model == nil {
		return result, fmt.Errorf("%w: handle was not produced by this backend", ErrTranscription)
	}

	outputDir, err := os.MkdirTemp(b.workDir, "subgen-whisper-")
	if err != nil {
		return result, fmt.Errorf("%w: create scratch dir: %w", ErrTranscription, err)
	}
	defer os.RemoveAll(outputDir)

	args := b.buildArgs(model, audioPath, outputDir)
	if err := b.run(ctx, model.binary, args...); err != nil {
		return result, fmt.Errorf("%w: %w", ErrTranscription, err)
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonPath := filepath.Join(outputDir, baseName+".json")
	payload, err := loadPayload(jsonPath)
	if err != nil {
		return result, fmt.Errorf("%w: %w", ErrTranscription, err)
	}

	result.Text = payload.Text
	result.Segments = make([]srt.Segment, 0, len(payload.Segments))
	for _, seg := range payload.Segments {
		result.Segments = append(result.Segments, srt.Segment{Start: seg.Start, End: seg.End, Text: seg.Text})
	}
	return result, nil
}

func (b *CLIBackend) buildArgs(model *cliModel, audioPath, outputDir string) []string {
	args := []string{
		audioPath,
		"--model", string(model.tier),
		"--output_dir", outputDir,
		"--output_format", "json",
		"--verbose", "False",
	}
	if b.language != "" {
		args = append(args, "--language", b.language)
	}
	return args
}

func (b *CLIBackend) run(ctx context.Context, name string, args ...string) error {
	if b.commandRunner != nil {
		return b.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func loadPayload(jsonPath string) (whisperPayload, error) {
	var payload whisperPayload
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return payload, fmt.Errorf("read whisper output: %w", err)
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, fmt.Errorf("parse whisper json: %w", err)
	}
	return payload, nil
}
