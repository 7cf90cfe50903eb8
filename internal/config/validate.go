package config

import (
	"fmt"
	"strings"
)

var validPrivacies = map[string]struct{}{
	"public":   {},
	"unlisted": {},
	"private":  {},
}

var validLogFormats = map[string]struct{}{
	"console": {},
	"json":    {},
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		problems = append(problems, "paths.output_dir must be set")
	}
	if c.Generation.ImagesPerScene < 1 {
		problems = append(problems, "generation.images_per_scene must be at least 1")
	}
	if c.Generation.BatchesPerScene < 1 {
		problems = append(problems, "generation.batches_per_scene must be at least 1")
	}
	if c.Generation.MinImageBytes < 0 {
		problems = append(problems, "generation.min_image_bytes must not be negative")
	}
	if c.Generation.DownloadTimeout < 1 {
		problems = append(problems, "generation.download_timeout must be at least 1 second")
	}
	if c.Generation.DriverCommand == "" {
		problems = append(problems, "generation.driver_command must be set")
	}
	if c.Narration.Command == "" {
		problems = append(problems, "narration.command must be set")
	}
	if c.Video.SecondsPerImage <= 0 {
		problems = append(problems, "video.seconds_per_image must be positive")
	}
	if c.Video.FFmpegBinary == "" {
		problems = append(problems, "video.ffmpeg_binary must be set")
	}
	if c.Upload.PublishHourUTC < 0 || c.Upload.PublishHourUTC > 23 {
		problems = append(problems, "upload.publish_hour_utc must be between 0 and 23")
	}
	if _, ok := validPrivacies[c.Upload.Privacy]; !ok {
		problems = append(problems, fmt.Sprintf("upload.privacy %q must be public, unlisted, or private", c.Upload.Privacy))
	}
	if _, ok := validLogFormats[c.Logging.Format]; !ok {
		problems = append(problems, fmt.Sprintf("logging.format %q must be console or json", c.Logging.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}
