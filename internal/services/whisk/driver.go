// Package whisk drives the external browser-automation command that
// generates images through the Whisk studio. The command is expected
// to download artifacts into the paths it is given; the driver's job
// is invocation, bounded waiting for the downloads, and failure
// classification.
package whisk

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"storyreel/internal/config"
	"storyreel/internal/logging"
	"storyreel/internal/pipeline"
	"storyreel/internal/services"
)

// Driver invokes the configured driver command. It satisfies
// pipeline.ImageGenerator.
type Driver struct {
	command       string
	studioURL     string
	cfg           *config.Config
	logger        *slog.Logger
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewDriver builds a driver from configuration.
func NewDriver(cfg *config.Config, logger *slog.Logger) *Driver {
	return &Driver{
		command:   cfg.Generation.DriverCommand,
		studioURL: cfg.Generation.StudioURL,
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "whisk"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (d *Driver) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	d.commandRunner = runner
}

// GenerateReference produces one reference image at the requested path.
func (d *Driver) GenerateReference(ctx context.Context, req pipeline.ReferenceRequest) error {
	if strings.TrimSpace(req.Prompt) == "" {
		return services.Wrap(services.ErrValidation, "references", "generate", fmt.Sprintf("reference %q has no prompt", req.Name), nil)
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "references", "generate", "create output directory", err)
	}

	args := []string{
		"reference",
		"--prompt", req.Prompt,
		"--output", req.OutputPath,
	}
	if d.studioURL != "" {
		args = append(args, "--studio-url", d.studioURL)
	}
	if err := d.run(ctx, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "references", "generate", fmt.Sprintf("driver failed for %q", req.Name), err)
	}

	return d.awaitDownloads(ctx, "references", []string{req.OutputPath}, d.cfg.Generation.MinImageBytes)
}

// GenerateScene produces one batch of scene images into the batch
// directory, uploading the environment and character references first.
func (d *Driver) GenerateScene(ctx context.Context, req pipeline.SceneRequest) error {
	if strings.TrimSpace(req.Prompt) == "" {
		return services.Wrap(services.ErrValidation, "scenes", "generate", fmt.Sprintf("scene %d has no prompt", req.SceneIndex), nil)
	}
	if req.ImageCount < 1 {
		return services.Wrap(services.ErrConfiguration, "scenes", "generate", "image count must be positive", nil)
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "scenes", "generate", "create batch directory", err)
	}

	args := []string{
		"scene",
		"--prompt", req.Prompt,
		"--count", strconv.Itoa(req.ImageCount),
		"--output-dir", req.OutputDir,
	}
	if req.EnvironmentRef != "" {
		args = append(args, "--environment", req.EnvironmentRef)
	}
	for _, ref := range req.CharacterRefs {
		args = append(args, "--character", ref)
	}
	if d.studioURL != "" {
		args = append(args, "--studio-url", d.studioURL)
	}
	if err := d.run(ctx, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "scenes", "generate", fmt.Sprintf("driver failed for scene %d batch %d", req.SceneIndex, req.Batch), err)
	}

	expected := make([]string, 0, req.ImageCount)
	for i := 1; i <= req.ImageCount; i++ {
		expected = append(expected, filepath.Join(req.OutputDir, fmt.Sprintf("image_%02d.png", i)))
	}
	return d.awaitDownloads(ctx, "scenes", expected, d.cfg.Generation.MinImageBytes)
}

// ResetSession restores a clean browser state.
func (d *Driver) ResetSession(ctx context.Context) error {
	if err := d.run(ctx, "reset"); err != nil {
		return services.Wrap(services.ErrExternalTool, "references", "reset", "session reset failed", err)
	}
	return nil
}

func (d *Driver) awaitDownloads(ctx context.Context, stage string, paths []string, minBytes int64) error {
	timeout := d.cfg.DownloadTimeout()
	d.logger.Debug("waiting for downloads",
		logging.String(logging.FieldStage, stage),
		logging.Int("expected", len(paths)),
		logging.Duration("timeout", timeout),
	)
	return awaitFiles(ctx, paths, minBytes, timeout)
}

func (d *Driver) run(ctx context.Context, args ...string) error {
	if d.commandRunner != nil {
		return d.commandRunner(ctx, d.command, args...)
	}
	cmd := exec.CommandContext(ctx, d.command, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", d.command, err, strings.TrimSpace(string(output)))
	}
	return nil
}
