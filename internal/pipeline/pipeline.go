package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"subgen/internal/fingerprint"
	"subgen/internal/logging"
	"subgen/internal/media"
	"subgen/internal/resultcache"
	"subgen/internal/srt"
	"subgen/internal/transcribe"
)

// MIME types for the two artifacts a request produces.
const (
	MIMESubRip    = "application/x-subrip"
	MIMEPlainText = "text/plain"
)

// Request describes one generation job. BaseName controls artifact
// naming; when empty it derives from SourcePath.
type Request struct {
	SourcePath string
	BaseName   string
	Tier       transcribe.Tier
}

// Result carries both artifacts plus metadata for display. The
// transcript always ends with exactly one newline, matching the SRT
// document convention.
type Result struct {
	RequestID          string
	Fingerprint        string
	Tier               transcribe.Tier
	Transcript         string
	SRT                string
	SRTFileName        string
	TranscriptFileName string
	CacheHit           bool
	SegmentCount       int
	Duration           float64
	Elapsed            time.Duration
}

// Pipeline wires the collaborators together. All fields are injected so
// tests can substitute fakes.
type Pipeline struct {
	normalizer *media.Normalizer
	registry   *transcribe.Registry
	backend    transcribe.Backend
	cache      *resultcache.Cache
	workDir    string
	logger     *slog.Logger
}

// New builds a pipeline. workDir holds spooled uploads and transient
// audio; os.TempDir is used when empty.
func New(normalizer *media.Normalizer, registry *transcribe.Registry, backend transcribe.Backend, cache *resultcache.Cache, workDir string, logger *slog.Logger) *Pipeline {
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &Pipeline{
		normalizer: normalizer,
		registry:   registry,
		backend:    backend,
		cache:      cache,
		workDir:    workDir,
		logger:     logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Generate runs the full pipeline for a file already on disk.
func (p *Pipeline) Generate(ctx context.Context, req Request) (Result, error) {
	started := time.Now()
	requestID := uuid.NewString()
	logger := p.logger.With(logging.String(logging.FieldRequestID, requestID))

	baseName := req.BaseName
	if baseName == "" {
		name := filepath.Base(req.SourcePath)
		baseName = strings.TrimSuffix(name, filepath.Ext(name))
	}
	result := Result{
		RequestID:          requestID,
		Tier:               req.Tier,
		SRTFileName:        baseName + ".srt",
		TranscriptFileName: baseName + ".txt",
	}

	if _, err := transcribe.ParseTier(string(req.Tier)); err != nil {
		return result, p.fail(logger, StateIdle, fmt.Errorf("%w: %w", transcribe.ErrModelLoad, err))
	}

	// The fingerprint covers the original upload so cache keys are stable
	// across extraction runs.
	fp, err := fingerprint.File(req.SourcePath)
	if err != nil {
		return result, p.fail(logger, StateIdle, err)
	}
	result.Fingerprint = fp

	p.transition(logger, StateNormalizing)
	audioPath, transient, err := p.normalizer.Normalize(ctx, req.SourcePath)
	if err != nil {
		return result, p.fail(logger, StateNormalizing, err)
	}
	defer p.release(logger, transient)

	p.transition(logger, StateCacheLookup)
	key := resultcache.Key{Fingerprint: fp, Tier: req.Tier}
	entry, hit, err := p.cache.GetOrCompute(ctx, key, func(ctx context.Context) (resultcache.Entry, error) {
		return p.compute(ctx, logger, req.Tier, audioPath)
	})
	if err != nil {
		return result, err
	}

	result.Transcript = entry.Transcript
	result.SRT = entry.SRT
	result.CacheHit = hit
	result.SegmentCount = srt.CountCues(entry.SRT)
	result.Duration = lastCueEnd(entry.SRT)
	result.Elapsed = time.Since(started)

	p.transition(logger, StateDone)
	logger.Info("generation complete",
		logging.String("fingerprint", fp),
		logging.String("tier", string(req.Tier)),
		logging.Bool("cache_hit", hit),
		logging.Int("segments", result.SegmentCount),
		logging.Duration("elapsed", result.Elapsed))

	return result, nil
}

// GenerateUpload spools an uploaded stream to the work directory,
// preserving the original extension so normalization classifies it
// correctly, and runs Generate. The spool file is removed on all paths.
func (p *Pipeline) GenerateUpload(ctx context.Context, upload io.Reader, fileName string, tier transcribe.Tier) (Result, error) {
	if err := os.MkdirAll(p.workDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("ensure work directory: %w", err)
	}
	spool := filepath.Join(p.workDir, "subgen-upload-"+uuid.NewString()+filepath.Ext(fileName))
	f, err := os.Create(spool)
	if err != nil {
		return Result{}, fmt.Errorf("spool upload: %w", err)
	}
	if _, err := io.Copy(f, upload); err != nil {
		f.Close()
		os.Remove(spool)
		return Result{}, fmt.Errorf("spool upload: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(spool)
		return Result{}, fmt.Errorf("spool upload: %w", err)
	}
	defer func() {
		if err := os.Remove(spool); err != nil {
			p.logger.Warn("spooled upload cleanup failed",
				logging.String(logging.FieldEventType, "spool_cleanup_failed"),
				logging.String("path", spool),
				logging.Error(err))
		}
	}()

	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	return p.Generate(ctx, Request{
		SourcePath: spool,
		BaseName:   base,
		Tier:       tier,
	})
}

// compute runs the miss path: model load, inference, SRT assembly. It
// executes inside the cache's single flight, so at most one compute runs
// per (fingerprint, tier) at a time.
func (p *Pipeline) compute(ctx context.Context, logger *slog.Logger, tier transcribe.Tier, audioPath string) (resultcache.Entry, error) {
	p.transition(logger, StateLoadingModel)
	handle, err := p.registry.Load(ctx, tier)
	if err != nil {
		return resultcache.Entry{}, p.fail(logger, StateLoadingModel, err)
	}

	p.transition(logger, StateTranscribing)
	transcription, err := p.backend.Transcribe(ctx, handle, audioPath)
	if err != nil {
		return resultcache.Entry{}, p.fail(logger, StateTranscribing, err)
	}

	p.transition(logger, StateBuilding)
	document := srt.Build(transcription.Segments)
	transcript := strings.TrimSpace(transcription.Text) + "\n"

	p.transition(logger, StateCaching)
	return resultcache.Entry{Transcript: transcript, SRT: document}, nil
}

func (p *Pipeline) transition(logger *slog.Logger, to State) {
	logger.Debug("state transition", logging.String(logging.FieldState, string(to)))
}

// fail records the state a request failed in and passes the error back
// unchanged so sentinel classification survives.
func (p *Pipeline) fail(logger *slog.Logger, from State, err error) error {
	logger.Error("generation failed",
		logging.String(logging.FieldState, string(StateFailed)),
		logging.String("failed_in", string(from)),
		logging.Error(err))
	return err
}

// release cleans up transient audio. Failures are logged, never allowed
// to mask the request outcome.
func (p *Pipeline) release(logger *slog.Logger, transient *media.TransientAudio) {
	if transient == nil {
		return
	}
	if err := transient.Release(); err != nil {
		logger.Warn("transient audio cleanup failed",
			logging.String(logging.FieldEventType, "transient_cleanup_failed"),
			logging.String(logging.FieldImpact, "stale file remains in work directory"),
			logging.Error(err))
	}
}

func lastCueEnd(document string) float64 {
	segments, err := srt.Parse(document)
	if err != nil || len(segments) == 0 {
		return 0
	}
	return segments[len(segments)-1].End
}
