package config

import "strings"

func (c *Config) normalize() error {
	pathFields := []*string{
		&c.Paths.OutputDir,
		&c.Paths.CharactersDir,
		&c.Paths.EnvironmentsDir,
		&c.Paths.MusicDir,
		&c.Paths.LogDir,
		&c.Upload.CredentialsFile,
		&c.Upload.TokenFile,
	}
	for _, field := range pathFields {
		trimmed := strings.TrimSpace(*field)
		if trimmed == "" {
			*field = ""
			continue
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return err
		}
		*field = expanded
	}

	c.Generation.DriverCommand = strings.TrimSpace(c.Generation.DriverCommand)
	c.Generation.StudioURL = strings.TrimSpace(c.Generation.StudioURL)
	c.Narration.Voice = strings.TrimSpace(c.Narration.Voice)
	c.Narration.Rate = strings.TrimSpace(c.Narration.Rate)
	c.Narration.Command = strings.TrimSpace(c.Narration.Command)
	c.Video.FFmpegBinary = strings.TrimSpace(c.Video.FFmpegBinary)
	c.Upload.Privacy = strings.ToLower(strings.TrimSpace(c.Upload.Privacy))
	c.Upload.CategoryID = strings.TrimSpace(c.Upload.CategoryID)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)

	if c.Generation.MaxRetries < 0 {
		c.Generation.MaxRetries = 0
	}
	if c.Generation.RetryDelay < 0 {
		c.Generation.RetryDelay = 0
	}
	return nil
}
