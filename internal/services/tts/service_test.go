package tts_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"storyreel/internal/services"
	"storyreel/internal/services/tts"
	"storyreel/internal/testsupport"
)

func newService(t *testing.T) (*tts.Service, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return tts.NewService(cfg, nil), cfg.Paths.OutputDir
}

func mediaTarget(args []string) string {
	for i, arg := range args {
		if arg == "--write-media" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func TestSynthesizeWritesAudio(t *testing.T) {
	svc, outputDir := newService(t)
	target := filepath.Join(outputDir, "narration", "narration_01.mp3")

	svc.WithCommandRunner(func(_ context.Context, _ string, args ...string) error {
		return os.WriteFile(mediaTarget(args), []byte("audio-bytes"), 0o644)
	})

	if err := svc.Synthesize(context.Background(), "Once upon a time.", target); err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected narration artifact: %v", err)
	}
	if _, err := os.Stat(target + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temp file must not survive")
	}
}

func TestSynthesizeRejectsEmptyText(t *testing.T) {
	svc, outputDir := newService(t)
	err := svc.Synthesize(context.Background(), "   ", filepath.Join(outputDir, "n.mp3"))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSynthesizeEmptyOutputIsTransient(t *testing.T) {
	svc, outputDir := newService(t)
	svc.WithCommandRunner(func(_ context.Context, _ string, args ...string) error {
		return os.WriteFile(mediaTarget(args), nil, 0o644)
	})

	err := svc.Synthesize(context.Background(), "text", filepath.Join(outputDir, "n.mp3"))
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestSynthesizeCommandFailure(t *testing.T) {
	svc, outputDir := newService(t)
	svc.WithCommandRunner(func(context.Context, string, ...string) error {
		return errors.New("exit status 1")
	})

	err := svc.Synthesize(context.Background(), "text", filepath.Join(outputDir, "n.mp3"))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if services.IsFatal(err) {
		t.Fatal("tts crashes must stay retryable")
	}
}
