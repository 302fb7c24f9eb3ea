package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultWorkDir           = "~/.local/share/subgen/work"
	defaultLogDir            = "~/.local/share/subgen/logs"
	defaultLockDir           = "~/.local/share/subgen/locks"
	defaultTranscriberBinary = "whisper"
	defaultModel             = "base"
	defaultFFmpegBinary      = "ffmpeg"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			OutputDir: ".",
			LogDir:    defaultLogDir,
			LockDir:   defaultLockDir,
		},
		Transcriber: Transcriber{
			Binary: defaultTranscriberBinary,
			Model:  defaultModel,
		},
		FFmpeg: FFmpeg{
			Binary: defaultFFmpegBinary,
		},
		Cache: Cache{
			Enabled: true,
			Path:    defaultCachePath(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultCachePath() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "subgen", "results.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/subgen/results.db"
	}
	return filepath.Join(home, ".cache", "subgen", "results.db")
}
