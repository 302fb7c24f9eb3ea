package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"subgen/internal/fileutil"
	"subgen/internal/language"
	"subgen/internal/media"
	"subgen/internal/pipeline"
	"subgen/internal/resultcache"
	"subgen/internal/transcribe"
)

const timeRounding = 10 * time.Millisecond

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var modelFlag string
	var languageFlag string
	var outputFlag string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "generate <media-file>",
		Short: "Generate an SRT subtitle file and plain transcript",
		Long: `Generate transcribes a media file into a time-aligned .srt subtitle
file and a plain .txt transcript. MP4 inputs have their default audio
track extracted first; audio files are transcribed as-is. Results are
cached by content fingerprint and model tier, so re-running on the same
file is instant.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			source, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve source path: %w", err)
			}
			if _, err := os.Stat(source); err != nil {
				return fmt.Errorf("source file: %w", err)
			}

			model := cfg.Transcriber.Model
			if strings.TrimSpace(modelFlag) != "" {
				model = modelFlag
			}
			tier, err := transcribe.ParseTier(model)
			if err != nil {
				return err
			}

			langHint := cfg.Transcriber.Language
			if strings.TrimSpace(languageFlag) != "" {
				langHint = languageFlag
			}
			langHint = language.Normalize(langHint)

			outputDir := cfg.Paths.OutputDir
			if strings.TrimSpace(outputFlag) != "" {
				outputDir, err = filepath.Abs(outputFlag)
				if err != nil {
					return fmt.Errorf("resolve output directory: %w", err)
				}
			}

			var store *resultcache.Store
			if cfg.Cache.Enabled && !noCache {
				store, err = resultcache.OpenStore(cfg.Cache.Path)
				if err != nil {
					return fmt.Errorf("open result cache: %w", err)
				}
				defer store.Close()
			}

			normalizer := media.NewNormalizer(cfg.FFmpeg.Binary, cfg.Paths.WorkDir, logger)
			backend := transcribe.NewCLIBackend(cfg.Transcriber.Binary, cfg.Paths.WorkDir, langHint)
			registry := transcribe.NewRegistry(backend, cfg.Paths.LockDir, logger)
			cache := resultcache.New(store, logger)
			p := pipeline.New(normalizer, registry, backend, cache, cfg.Paths.WorkDir, logger)

			result, err := p.Generate(cmd.Context(), pipeline.Request{
				SourcePath: source,
				Tier:       tier,
			})
			if err != nil {
				return err
			}

			srtPath := filepath.Join(outputDir, result.SRTFileName)
			txtPath := filepath.Join(outputDir, result.TranscriptFileName)
			if err := fileutil.WriteFileAtomic(srtPath, []byte(result.SRT), 0o644); err != nil {
				return fmt.Errorf("write subtitles: %w", err)
			}
			if err := fileutil.WriteFileAtomic(txtPath, []byte(result.Transcript), 0o644); err != nil {
				return fmt.Errorf("write transcript: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Field", "Value"},
				[][]string{
					{"Subtitles", srtPath},
					{"Transcript", txtPath},
					{"Model", string(result.Tier)},
					{"Language", language.DisplayName(langHint)},
					{"Segments", fmt.Sprintf("%d", result.SegmentCount)},
					{"Duration", srtDuration(result.Duration)},
					{"Cache hit", yesNo(result.CacheHit)},
					{"Elapsed", result.Elapsed.Round(timeRounding).String()},
				},
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Model tier: tiny, base, small, medium, large")
	cmd.Flags().StringVarP(&languageFlag, "language", "l", "", "Language hint (code or name); empty auto-detects")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Directory for generated files")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Skip the persistent result cache for this run")
	return cmd
}

func srtDuration(seconds float64) string {
	if seconds <= 0 {
		return "0s"
	}
	total := int(seconds)
	minutes := total / 60
	secs := total % 60
	if minutes == 0 {
		return fmt.Sprintf("%ds", secs)
	}
	return fmt.Sprintf("%dm%02ds", minutes, secs)
}
