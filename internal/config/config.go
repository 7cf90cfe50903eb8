package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir       string `toml:"output_dir"`
	CharactersDir   string `toml:"characters_dir"`
	EnvironmentsDir string `toml:"environments_dir"`
	MusicDir        string `toml:"music_dir"`
	LogDir          string `toml:"log_dir"`
}

// Generation contains scene image generation settings.
type Generation struct {
	ImagesPerScene  int    `toml:"images_per_scene"`
	BatchesPerScene int    `toml:"batches_per_scene"`
	MinImageBytes   int64  `toml:"min_image_bytes"`
	DownloadTimeout int    `toml:"download_timeout"`
	MaxRetries      int    `toml:"max_retries"`
	RetryDelay      int    `toml:"retry_delay"`
	DriverCommand   string `toml:"driver_command"`
	StudioURL       string `toml:"studio_url"`
}

// Narration contains text-to-speech settings.
type Narration struct {
	Voice   string `toml:"voice"`
	Rate    string `toml:"rate"`
	Command string `toml:"command"`
}

// Video contains slideshow assembly settings.
type Video struct {
	SecondsPerImage float64 `toml:"seconds_per_image"`
	MusicGainDB     float64 `toml:"music_gain_db"`
	FFmpegBinary    string  `toml:"ffmpeg_binary"`
}

// Upload contains YouTube upload and scheduling settings.
type Upload struct {
	Enabled         bool   `toml:"enabled"`
	PublishHourUTC  int    `toml:"publish_hour_utc"`
	Privacy         string `toml:"privacy"`
	CredentialsFile string `toml:"credentials_file"`
	TokenFile       string `toml:"token_file"`
	CategoryID      string `toml:"category_id"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Config encapsulates all configuration values for storyreel.
//
// Configuration sections by subsystem:
//   - Paths: project output tree and reference/music/log directories
//   - Generation: image generation batching, timeouts, and retry bounds
//   - Narration: TTS voice, speaking rate, and external command
//   - Video: slideshow timing and ffmpeg invocation
//   - Upload: YouTube publishing and scheduling
//   - Logging: log format and level
//   - Notifications: ntfy push notification settings
type Config struct {
	Paths         Paths         `toml:"paths"`
	Generation    Generation    `toml:"generation"`
	Narration     Narration     `toml:"narration"`
	Video         Video         `toml:"video"`
	Upload        Upload        `toml:"upload"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/storyreel/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("storyreel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a pipeline run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{
		c.Paths.OutputDir,
		c.Paths.CharactersDir,
		c.Paths.EnvironmentsDir,
		c.Paths.LogDir,
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.MusicDir) != "" {
		// Best-effort; a missing music library degrades to narration-only video.
		_ = os.MkdirAll(c.Paths.MusicDir, 0o755)
	}
	return nil
}

// DownloadTimeout returns the bounded wait applied to external downloads.
func (c *Config) DownloadTimeout() time.Duration {
	return time.Duration(c.Generation.DownloadTimeout) * time.Second
}

// RetryDelay returns the pause between retry attempts.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Generation.RetryDelay) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
