// Package testsupport provides shared fixtures for package tests:
// temp-dir configurations, artifact fabrication, and in-memory fake
// collaborators.
package testsupport

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"storyreel/internal/config"
	"storyreel/internal/pipeline"
	"storyreel/internal/story"
)

// NewConfig returns a validated configuration rooted in temp
// directories, with small limits suited to tests.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()

	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(root, "output")
	cfg.Paths.CharactersDir = filepath.Join(root, "characters")
	cfg.Paths.EnvironmentsDir = filepath.Join(root, "environments")
	cfg.Paths.MusicDir = filepath.Join(root, "music")
	cfg.Paths.LogDir = filepath.Join(root, "logs")
	cfg.Generation.ImagesPerScene = 2
	cfg.Generation.BatchesPerScene = 1
	cfg.Generation.MinImageBytes = 16
	cfg.Generation.MaxRetries = 1
	cfg.Generation.RetryDelay = 0
	cfg.Upload.Enabled = false

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// NewStory returns a small valid story with the given number of scenes.
func NewStory(sceneCount int) *story.Story {
	s := &story.Story{
		Title: "Test Garden",
		Style: "Studio Ghibli style",
		Music: "calm",
		Characters: []story.Character{
			{Name: "grandmother", Prompt: "Elderly woman, kind face"},
		},
		Environments: []story.Environment{
			{Name: "garden", Prompt: "Magical garden at dusk"},
		},
		Narration: []string{"Once upon a time.", "And then night fell."},
	}
	for i := 0; i < sceneCount; i++ {
		s.Scenes = append(s.Scenes, story.Scene{
			Environment: "garden",
			Characters:  []string{"grandmother"},
			Prompt:      fmt.Sprintf("Scene %d in the garden", i+1),
		})
	}
	return s
}

// WriteArtifact fabricates a file of the given size, creating parents.
func WriteArtifact(t *testing.T, path string, size int64) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for artifact %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{'x'}, int(size)), 0o644); err != nil {
		t.Fatalf("write artifact %s: %v", path, err)
	}
}

func writeBytes(path string, size int64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, bytes.Repeat([]byte{'x'}, int(size)), 0o644)
}

// FakeImages satisfies pipeline.ImageGenerator by writing fixed-size
// files. Error hooks let tests inject failures per request.
type FakeImages struct {
	ImageBytes int64
	RefCalls   []pipeline.ReferenceRequest
	SceneCalls []pipeline.SceneRequest
	Resets     int
	RefErr     func(pipeline.ReferenceRequest) error
	SceneErr   func(pipeline.SceneRequest) error
}

func (f *FakeImages) imageBytes() int64 {
	if f.ImageBytes > 0 {
		return f.ImageBytes
	}
	return 4096
}

func (f *FakeImages) GenerateReference(_ context.Context, req pipeline.ReferenceRequest) error {
	f.RefCalls = append(f.RefCalls, req)
	if f.RefErr != nil {
		if err := f.RefErr(req); err != nil {
			return err
		}
	}
	return writeBytes(req.OutputPath, f.imageBytes())
}

func (f *FakeImages) GenerateScene(_ context.Context, req pipeline.SceneRequest) error {
	f.SceneCalls = append(f.SceneCalls, req)
	if f.SceneErr != nil {
		if err := f.SceneErr(req); err != nil {
			return err
		}
	}
	for i := 1; i <= req.ImageCount; i++ {
		if err := writeBytes(filepath.Join(req.OutputDir, fmt.Sprintf("image_%02d.png", i)), f.imageBytes()); err != nil {
			return err
		}
	}
	return nil
}

func (f *FakeImages) ResetSession(context.Context) error {
	f.Resets++
	return nil
}

// FakeNarrator satisfies pipeline.NarrationSynthesizer.
type FakeNarrator struct {
	Calls []string
	Err   func(text, path string) error
}

func (f *FakeNarrator) Synthesize(_ context.Context, text, outputPath string) error {
	f.Calls = append(f.Calls, outputPath)
	if f.Err != nil {
		if err := f.Err(text, outputPath); err != nil {
			return err
		}
	}
	return writeBytes(outputPath, 2048)
}

// FakeAssembler satisfies pipeline.VideoAssembler.
type FakeAssembler struct {
	AssembleCalls  []pipeline.AssemblyRequest
	ThumbnailCalls []string
	AssembleErr    error
	ThumbnailErr   error
}

func (f *FakeAssembler) Assemble(_ context.Context, req pipeline.AssemblyRequest) error {
	f.AssembleCalls = append(f.AssembleCalls, req)
	if f.AssembleErr != nil {
		return f.AssembleErr
	}
	return writeBytes(req.OutputPath, 1<<17)
}

func (f *FakeAssembler) Thumbnail(_ context.Context, imagePath, outputPath string) error {
	f.ThumbnailCalls = append(f.ThumbnailCalls, imagePath)
	if f.ThumbnailErr != nil {
		return f.ThumbnailErr
	}
	return writeBytes(outputPath, 2048)
}

// FakeUploader satisfies pipeline.Uploader.
type FakeUploader struct {
	Requests []pipeline.UploadRequest
	VideoID  string
	Err      error
}

func (f *FakeUploader) Upload(_ context.Context, req pipeline.UploadRequest) (string, error) {
	f.Requests = append(f.Requests, req)
	if f.Err != nil {
		return "", f.Err
	}
	if f.VideoID != "" {
		return f.VideoID, nil
	}
	return "video-test-id", nil
}
