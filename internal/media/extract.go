package media

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// FFmpegCommand is the default extraction binary.
const FFmpegCommand = "ffmpeg"

// TargetSampleRate matches the transcription backend's expected input.
const TargetSampleRate = 16000

func buildExtractArgs(source, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-map", "0:a:0",
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", TargetSampleRate),
		"-c:a", "pcm_s16le",
		dest,
	}
}

// ExtractAudio demuxes the default audio stream of source into dest as a
// mono 16 kHz WAV. Tool stderr is folded into the returned error.
func ExtractAudio(ctx context.Context, ffmpegBinary, source, dest string) error {
	if ffmpegBinary == "" {
		ffmpegBinary = FFmpegCommand
	}
	cmd := exec.CommandContext(ctx, ffmpegBinary, buildExtractArgs(source, dest)...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg extract: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
