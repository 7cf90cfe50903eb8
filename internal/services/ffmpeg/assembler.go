// Package ffmpeg assembles the narrated slideshow video and its
// thumbnail by invoking the ffmpeg binary.
package ffmpeg

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
	"storyreel/internal/pipeline"
	"storyreel/internal/services"
)

// Assembler satisfies pipeline.VideoAssembler.
type Assembler struct {
	binary        string
	logger        *slog.Logger
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewAssembler builds the assembler from configuration.
func NewAssembler(cfg *config.Config, logger *slog.Logger) *Assembler {
	return &Assembler{
		binary: cfg.Video.FFmpegBinary,
		logger: logging.NewComponentLogger(logger, "ffmpeg"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (a *Assembler) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	a.commandRunner = runner
}

// Assemble renders the slideshow: images shown for a fixed duration,
// narration segments concatenated as the voice track, music mixed
// underneath at the configured gain.
func (a *Assembler) Assemble(ctx context.Context, req pipeline.AssemblyRequest) error {
	if len(req.SceneImages) == 0 {
		return services.Wrap(services.ErrValidation, "video", "assemble", "no scene images", nil)
	}
	if len(req.NarrationFiles) == 0 {
		return services.Wrap(services.ErrValidation, "video", "assemble", "no narration audio", nil)
	}
	if req.SecondsPerImage <= 0 {
		return services.Wrap(services.ErrConfiguration, "video", "assemble", "seconds per image must be positive", nil)
	}
	for _, path := range append(append([]string{}, req.SceneImages...), req.NarrationFiles...) {
		if _, err := os.Stat(path); err != nil {
			return services.Wrap(services.ErrValidation, "video", "assemble", fmt.Sprintf("input %s is missing", path), err)
		}
	}

	workDir, err := os.MkdirTemp(filepath.Dir(req.OutputPath), "assembly-")
	if err != nil {
		return services.Wrap(services.ErrTransient, "video", "assemble", "create working directory", err)
	}
	defer os.RemoveAll(workDir)

	imageList := filepath.Join(workDir, "images.ffconcat")
	if err := writeConcatList(imageList, req.SceneImages, req.SecondsPerImage); err != nil {
		return services.Wrap(services.ErrTransient, "video", "assemble", "write image list", err)
	}
	audioList := filepath.Join(workDir, "narration.ffconcat")
	if err := writeConcatList(audioList, req.NarrationFiles, 0); err != nil {
		return services.Wrap(services.ErrTransient, "video", "assemble", "write narration list", err)
	}

	args := buildAssembleArgs(imageList, audioList, req)
	if err := a.run(ctx, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "video", "assemble", "ffmpeg failed", err)
	}

	if info, err := os.Stat(req.OutputPath); err != nil || info.Size() == 0 {
		return services.Wrap(services.ErrTransient, "video", "assemble", "ffmpeg produced no output", err)
	}
	return nil
}

// Thumbnail scales the given image into a 1280x720 JPEG.
func (a *Assembler) Thumbnail(ctx context.Context, imagePath, outputPath string) error {
	if _, err := os.Stat(imagePath); err != nil {
		return services.Wrap(services.ErrValidation, "metadata", "thumbnail", fmt.Sprintf("source image %s is missing", imagePath), err)
	}
	args := []string{
		"-y",
		"-i", imagePath,
		"-vf", "scale=1280:720:force_original_aspect_ratio=decrease,pad=1280:720:(ow-iw)/2:(oh-ih)/2",
		"-frames:v", "1",
		"-q:v", "2",
		outputPath,
	}
	if err := a.run(ctx, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "metadata", "thumbnail", "ffmpeg failed", err)
	}
	return nil
}

// buildAssembleArgs constructs the ffmpeg invocation. Kept separate so
// tests can assert the command shape without running ffmpeg.
func buildAssembleArgs(imageList, audioList string, req pipeline.AssemblyRequest) []string {
	args := []string{
		"-y",
		"-f", "concat", "-safe", "0", "-i", imageList,
		"-f", "concat", "-safe", "0", "-i", audioList,
	}
	if req.MusicFile != "" {
		args = append(args,
			"-stream_loop", "-1", "-i", req.MusicFile,
			"-filter_complex",
			fmt.Sprintf("[2:a]volume=%.1fdB[bg];[1:a][bg]amix=inputs=2:duration=first:dropout_transition=3[aout]", req.MusicGainDB),
			"-map", "0:v", "-map", "[aout]",
		)
	} else {
		args = append(args, "-map", "0:v", "-map", "1:a")
	}
	args = append(args,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-r", "30",
		"-c:a", "aac",
		"-shortest",
		req.OutputPath,
	)
	return args
}

// writeConcatList emits an ffconcat v1 list. duration <= 0 omits the
// per-entry duration directives (audio lists).
func writeConcatList(path string, files []string, duration float64) error {
	var b strings.Builder
	b.WriteString("ffconcat version 1.0\n")
	for _, file := range files {
		fmt.Fprintf(&b, "file '%s'\n", escapeConcatPath(file))
		if duration > 0 {
			fmt.Fprintf(&b, "duration %.3f\n", duration)
		}
	}
	if duration > 0 && len(files) > 0 {
		// The concat demuxer drops the last duration; repeat the final
		// frame so it holds on screen.
		fmt.Fprintf(&b, "file '%s'\n", escapeConcatPath(files[len(files)-1]))
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func escapeConcatPath(path string) string {
	return strings.ReplaceAll(path, "'", `'\''`)
}

func (a *Assembler) run(ctx context.Context, args ...string) error {
	a.logger.Debug("running ffmpeg", logging.Any("args", args))
	if a.commandRunner != nil {
		return a.commandRunner(ctx, a.binary, args...)
	}
	cmd := exec.CommandContext(ctx, a.binary, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", a.binary, err, strings.TrimSpace(string(output)))
	}
	return nil
}
