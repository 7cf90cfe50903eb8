// Package tts renders narration text to audio through an external
// text-to-speech command (edge-tts by default).
package tts

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"storyreel/internal/config"
	"storyreel/internal/logging"
	"storyreel/internal/services"
)

// Service wraps the TTS command. It satisfies
// pipeline.NarrationSynthesizer.
type Service struct {
	command       string
	voice         string
	rate          string
	logger        *slog.Logger
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService builds the service from configuration.
func NewService(cfg *config.Config, logger *slog.Logger) *Service {
	return &Service{
		command: cfg.Narration.Command,
		voice:   cfg.Narration.Voice,
		rate:    cfg.Narration.Rate,
		logger:  logging.NewComponentLogger(logger, "tts"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Synthesize renders one text segment to the output path. The write
// goes through a temp file so a killed TTS process never leaves a
// half-written artifact behind.
func (s *Service) Synthesize(ctx context.Context, text, outputPath string) error {
	if strings.TrimSpace(text) == "" {
		return services.Wrap(services.ErrValidation, "narration", "synthesize", "narration text is empty", nil)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "narration", "synthesize", "create narration directory", err)
	}

	tempPath := outputPath + ".tmp"
	defer os.Remove(tempPath)

	args := []string{
		"--voice", s.voice,
		"--text", text,
		"--write-media", tempPath,
	}
	if s.rate != "" {
		args = append(args, "--rate", s.rate)
	}
	if err := s.run(ctx, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "narration", "synthesize", fmt.Sprintf("%s failed", s.command), err)
	}

	info, err := os.Stat(tempPath)
	if err != nil || info.Size() == 0 {
		return services.Wrap(services.ErrTransient, "narration", "synthesize", "tts produced no audio", err)
	}
	if err := os.Rename(tempPath, outputPath); err != nil {
		return services.Wrap(services.ErrTransient, "narration", "synthesize", "finalize narration audio", err)
	}

	s.logger.Debug("narration segment rendered",
		logging.String("output", outputPath),
		logging.Int64("bytes", info.Size()),
	)
	return nil
}

func (s *Service) run(ctx context.Context, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, s.command, args...)
	}
	cmd := exec.CommandContext(ctx, s.command, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", s.command, err, strings.TrimSpace(string(output)))
	}
	return nil
}
