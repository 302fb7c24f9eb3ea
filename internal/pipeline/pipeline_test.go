package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"subgen/internal/logging"
	"subgen/internal/media"
	"subgen/internal/resultcache"
	"subgen/internal/srt"
	"subgen/internal/transcribe"
)

type fakeHandle struct{ tier transcribe.Tier }

func (h fakeHandle) Tier() transcribe.Tier { return h.tier }

type fakeBackend struct {
	loadErr       error
	transcribeErr error
	result        transcribe.Result

	loads          atomic.Int64
	transcriptions atomic.Int64
}

func (b *fakeBackend) LoadModel(ctx context.Context, tier transcribe.Tier) (transcribe.ModelHandle, error) {
	b.loads.Add(1)
	if b.loadErr != nil {
		return nil, b.loadErr
	}
	return fakeHandle{tier: tier}, nil
}

func (b *fakeBackend) Transcribe(ctx context.Context, handle transcribe.ModelHandle, audioPath string) (transcribe.Result, error) {
	b.transcriptions.Add(1)
	if b.transcribeErr != nil {
		return transcribe.Result{}, b.transcribeErr
	}
	return b.result, nil
}

func defaultResult() transcribe.Result {
	return transcribe.Result{
		Text: " Hello world. This is speech. ",
		Segments: []srt.Segment{
			{Start: 0, End: 2.5, Text: " Hello world."},
			{Start: 2.5, End: 5.0, Text: " This is speech."},
		},
	}
}

func newTestPipeline(t *testing.T, backend *fakeBackend) *Pipeline {
	t.Helper()
	logger := logging.NewNop()
	workDir := t.TempDir()
	normalizer := media.NewNormalizer("", workDir, logger)
	normalizer.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		// Last argument is the extraction destination.
		return os.WriteFile(args[len(args)-1], []byte("pcm"), 0o644)
	})
	registry := transcribe.NewRegistry(backend, "", logger)
	cache := resultcache.New(nil, logger)
	return New(normalizer, registry, backend, cache, workDir, logger)
}

func writeSource(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("media-bytes-"+name), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func TestGenerateProducesBothArtifacts(t *testing.T) {
	backend := &fakeBackend{result: defaultResult()}
	p := newTestPipeline(t, backend)

	result, err := p.Generate(context.Background(), Request{
		SourcePath: writeSource(t, "lecture.wav"),
		Tier:       transcribe.TierBase,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if result.SRTFileName != "lecture.srt" || result.TranscriptFileName != "lecture.txt" {
		t.Fatalf("artifact names wrong: %q %q", result.SRTFileName, result.TranscriptFileName)
	}
	if result.CacheHit {
		t.Fatal("first request must be a cache miss")
	}
	if result.SegmentCount != 2 {
		t.Fatalf("expected 2 segments, got %d", result.SegmentCount)
	}
	if result.Duration != 5.0 {
		t.Fatalf("expected duration 5.0, got %v", result.Duration)
	}
	if result.Transcript != "Hello world. This is speech.\n" {
		t.Fatalf("transcript = %q", result.Transcript)
	}
	if !strings.HasPrefix(result.SRT, "1\n00:00:00,000 --> 00:00:02,500\nHello world.\n") {
		t.Fatalf("srt = %q", result.SRT)
	}
	if !strings.HasSuffix(result.SRT, "\n") || strings.HasSuffix(result.SRT, "\n\n") {
		t.Fatalf("srt must end with exactly one newline: %q", result.SRT)
	}
	if len(result.Fingerprint) != 64 {
		t.Fatalf("fingerprint %q is not sha-256 hex", result.Fingerprint)
	}
}

func TestGenerateSecondCallHitsCache(t *testing.T) {
	backend := &fakeBackend{result: defaultResult()}
	p := newTestPipeline(t, backend)
	source := writeSource(t, "talk.mp3")
	req := Request{SourcePath: source, Tier: transcribe.TierSmall}

	first, err := p.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	second, err := p.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}

	if !second.CacheHit {
		t.Fatal("second request must hit the cache")
	}
	if second.SRT != first.SRT || second.Transcript != first.Transcript {
		t.Fatal("cached result differs from original")
	}
	if got := backend.transcriptions.Load(); got != 1 {
		t.Fatalf("expected 1 transcription, got %d", got)
	}
}

func TestGenerateDistinctTiersTranscribeSeparately(t *testing.T) {
	backend := &fakeBackend{result: defaultResult()}
	p := newTestPipeline(t, backend)
	source := writeSource(t, "talk.wav")

	for _, tier := range []transcribe.Tier{transcribe.TierTiny, transcribe.TierMedium} {
		if _, err := p.Generate(context.Background(), Request{SourcePath: source, Tier: tier}); err != nil {
			t.Fatalf("Generate(%q): %v", tier, err)
		}
	}
	if got := backend.transcriptions.Load(); got != 2 {
		t.Fatalf("expected 2 transcriptions for 2 tiers, got %d", got)
	}
}

func TestGenerateConcurrentSameKeySingleTranscription(t *testing.T) {
	backend := &fakeBackend{result: defaultResult()}
	p := newTestPipeline(t, backend)
	source := writeSource(t, "talk.wav")
	req := Request{SourcePath: source, Tier: transcribe.TierBase}

	const callers = 6
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Generate(context.Background(), req); err != nil {
				t.Errorf("Generate: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := backend.transcriptions.Load(); got != 1 {
		t.Fatalf("expected exactly 1 transcription across %d concurrent callers, got %d", callers, got)
	}
}

func TestGenerateExtractionFailure(t *testing.T) {
	backend := &fakeBackend{result: defaultResult()}
	logger := logging.NewNop()
	workDir := t.TempDir()
	normalizer := media.NewNormalizer("", workDir, logger)
	normalizer.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return errors.New("moov atom not found")
	})
	p := New(normalizer, transcribe.NewRegistry(backend, "", logger), backend, resultcache.New(nil, logger), workDir, logger)

	_, err := p.Generate(context.Background(), Request{
		SourcePath: writeSource(t, "clip.mp4"),
		Tier:       transcribe.TierBase,
	})
	if err == nil {
		t.Fatal("expected extraction error")
	}
	if !errors.Is(err, media.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
	if !strings.Contains(err.Error(), "moov atom not found") {
		t.Fatalf("diagnostic lost: %v", err)
	}
	if got := backend.transcriptions.Load(); got != 0 {
		t.Fatalf("backend must not run after extraction failure, got %d calls", got)
	}
}

func TestGenerateTranscriptionFailureNotCached(t *testing.T) {
	backend := &fakeBackend{
		result:        defaultResult(),
		transcribeErr: transcribe.ErrTranscription,
	}
	p := newTestPipeline(t, backend)
	source := writeSource(t, "talk.wav")
	req := Request{SourcePath: source, Tier: transcribe.TierBase}

	if _, err := p.Generate(context.Background(), req); !errors.Is(err, transcribe.ErrTranscription) {
		t.Fatalf("expected ErrTranscription, got %v", err)
	}

	// A later attempt reaches the backend again.
	backend.transcribeErr = nil
	result, err := p.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if result.CacheHit {
		t.Fatal("failed attempt must not populate the cache")
	}
	if got := backend.transcriptions.Load(); got != 2 {
		t.Fatalf("expected 2 transcription attempts, got %d", got)
	}
}

func TestGenerateInvalidTier(t *testing.T) {
	backend := &fakeBackend{result: defaultResult()}
	p := newTestPipeline(t, backend)

	_, err := p.Generate(context.Background(), Request{
		SourcePath: writeSource(t, "talk.wav"),
		Tier:       transcribe.Tier("enormous"),
	})
	if !errors.Is(err, transcribe.ErrModelLoad) {
		t.Fatalf("expected ErrModelLoad for invalid tier, got %v", err)
	}
}

func TestGenerateReleasesTransientAudio(t *testing.T) {
	backend := &fakeBackend{result: defaultResult()}
	logger := logging.NewNop()
	workDir := t.TempDir()
	normalizer := media.NewNormalizer("", workDir, logger)
	normalizer.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return os.WriteFile(args[len(args)-1], []byte("pcm"), 0o644)
	})
	p := New(normalizer, transcribe.NewRegistry(backend, "", logger), backend, resultcache.New(nil, logger), workDir, logger)

	if _, err := p.Generate(context.Background(), Request{
		SourcePath: writeSource(t, "clip.mp4"),
		Tier:       transcribe.TierBase,
	}); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	entries, err := os.ReadDir(workDir)
	if err != nil {
		t.Fatalf("read work dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "subgen-audio-") {
			t.Fatalf("transient audio left behind: %s", entry.Name())
		}
	}
}

func TestGenerateUploadSpoolsAndCleans(t *testing.T) {
	backend := &fakeBackend{result: defaultResult()}
	p := newTestPipeline(t, backend)

	result, err := p.GenerateUpload(context.Background(), strings.NewReader("uploaded-bytes"), "meeting.mp3", transcribe.TierBase)
	if err != nil {
		t.Fatalf("GenerateUpload: %v", err)
	}
	if result.SRTFileName != "meeting.srt" {
		t.Fatalf("artifact name %q", result.SRTFileName)
	}

	entries, err := os.ReadDir(p.workDir)
	if err != nil {
		t.Fatalf("read work dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "subgen-upload-") {
			t.Fatalf("spooled upload left behind: %s", entry.Name())
		}
	}
}

func TestGenerateUploadSameContentSharesCacheWithFile(t *testing.T) {
	backend := &fakeBackend{result: defaultResult()}
	p := newTestPipeline(t, backend)

	content := "identical-bytes"
	first, err := p.GenerateUpload(context.Background(), strings.NewReader(content), "a.mp3", transcribe.TierBase)
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}
	second, err := p.GenerateUpload(context.Background(), strings.NewReader(content), "b.mp3", transcribe.TierBase)
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}

	if first.Fingerprint != second.Fingerprint {
		t.Fatal("identical content must share a fingerprint regardless of name")
	}
	if !second.CacheHit {
		t.Fatal("second upload must hit the cache")
	}
	if got := backend.transcriptions.Load(); got != 1 {
		t.Fatalf("expected 1 transcription, got %d", got)
	}
}
