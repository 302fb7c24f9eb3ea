package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestKindForPath(t *testing.T) {
	cases := []struct {
		path string
		want Kind
	}{
		{"speech.mp3", KindAudio},
		{"speech.WAV", KindAudio},
		{"clip.mp4", KindVideo},
		{"clip.MP4", KindVideo},
		{"mystery.ogg", KindUnknown},
		{"noext", KindUnknown},
	}
	for _, tc := range cases {
		if got := KindForPath(tc.path); got != tc.want {
			t.Fatalf("KindForPath(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestNormalizeAudioPassThrough(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "speech.mp3")
	if err := os.WriteFile(source, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	n := NewNormalizer("", dir, nil)
	path, transient, err := n.Normalize(context.Background(), source)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if path != source {
		t.Fatalf("expected pass-through path %q, got %q", source, path)
	}
	if transient != nil {
		t.Fatalf("expected nil transient for audio input")
	}
}

func TestNormalizeUnknownExtensionPassThrough(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "mystery.flac")
	if err := os.WriteFile(source, []byte("data"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	n := NewNormalizer("", dir, nil)
	path, transient, err := n.Normalize(context.Background(), source)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if path != source || transient != nil {
		t.Fatalf("unknown extension must pass through, got %q transient=%v", path, transient)
	}
}

func TestNormalizeVideoExtracts(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(source, []byte("video"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	var gotArgs []string
	n := NewNormalizer("", dir, nil)
	n.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		gotArgs = args
		dest := args[len(args)-1]
		return os.WriteFile(dest, []byte("wav"), 0o644)
	})

	path, transient, err := n.Normalize(context.Background(), source)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if path == source {
		t.Fatalf("expected a new audio path for video input")
	}
	if transient == nil {
		t.Fatalf("expected a transient resource for video input")
	}
	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{"-map 0:a:0", "-ac 1", "-ar 16000", "-c:a pcm_s16le"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("ffmpeg args missing %q: %q", want, joined)
		}
	}

	if err := transient.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("transient file should be removed after release")
	}
	// Double release is a no-op.
	if err := transient.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}
}

func TestNormalizeExtractionFailure(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "broken.mp4")
	if err := os.WriteFile(source, []byte("video"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	n := NewNormalizer("", dir, nil)
	n.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return errors.New("no audio track")
	})

	_, _, err := n.Normalize(context.Background(), source)
	if err == nil {
		t.Fatal("expected extraction error")
	}
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
	if !strings.Contains(err.Error(), "no audio track") {
		t.Fatalf("diagnostic message lost: %v", err)
	}

	// No partial temp files remain.
	entries, readErr := os.ReadDir(dir)
	if readErr != nil {
		t.Fatalf("read dir: %v", readErr)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "subgen-audio-") {
			t.Fatalf("partial temp file left behind: %s", entry.Name())
		}
	}
}
