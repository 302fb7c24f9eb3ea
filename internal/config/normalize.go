package config

import "strings"

// normalize expands path fields and trims string values so validation
// and later consumers see canonical forms.
func (c *Config) normalize() error {
	for _, field := range []*string{
		&c.Paths.WorkDir,
		&c.Paths.OutputDir,
		&c.Paths.LogDir,
		&c.Paths.LockDir,
		&c.Cache.Path,
	} {
		expanded, err := expandPath(strings.TrimSpace(*field))
		if err != nil {
			return err
		}
		*field = expanded
	}

	c.Transcriber.Binary = strings.TrimSpace(c.Transcriber.Binary)
	c.Transcriber.Model = strings.ToLower(strings.TrimSpace(c.Transcriber.Model))
	c.Transcriber.Language = strings.ToLower(strings.TrimSpace(c.Transcriber.Language))
	c.FFmpeg.Binary = strings.TrimSpace(c.FFmpeg.Binary)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}
