package metadata_test

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"storyreel/internal/metadata"
	"storyreel/internal/services"
	"storyreel/internal/story"
)

func sampleStory() *story.Story {
	scenes := make([]story.Scene, 30)
	for i := range scenes {
		scenes[i] = story.Scene{Prompt: "scene"}
	}
	return &story.Story{
		Title:     "grandmother's magical garden",
		Style:     "Studio Ghibli style",
		Scenes:    scenes,
		Narration: []string{"Once upon a time."},
	}
}

func TestFormatTimestamp(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00"},
		{65 * time.Second, "1:05"},
		{10 * time.Minute, "10:00"},
		{3*time.Hour + 2*time.Minute + 5*time.Second, "3:02:05"},
	}
	for _, tc := range cases {
		if got := metadata.FormatTimestamp(tc.in); got != tc.want {
			t.Fatalf("FormatTimestamp(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	opts := metadata.Options{SecondsPerScene: 4, ScenesPerChapter: 15, CategoryID: "27"}
	first, err := metadata.Build(sampleStory(), opts)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	second, err := metadata.Build(sampleStory(), opts)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if first.Title != second.Title || first.Description != second.Description {
		t.Fatal("metadata must be deterministic per story")
	}
}

func TestBuildTitleCasesAndTemplates(t *testing.T) {
	meta, err := metadata.Build(sampleStory(), metadata.Options{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !strings.Contains(meta.Title, "Grandmother's Magical Garden") {
		t.Fatalf("expected title-cased story title, got %q", meta.Title)
	}
}

func TestBuildChaptersAndStyleTags(t *testing.T) {
	meta, err := metadata.Build(sampleStory(), metadata.Options{SecondsPerScene: 4, ScenesPerChapter: 15})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(meta.Chapters) != 2 {
		t.Fatalf("expected 2 chapters for 30 scenes at 15 per chapter, got %d", len(meta.Chapters))
	}
	if meta.Chapters[1].Timestamp() != "1:00" {
		t.Fatalf("expected second chapter at 1:00, got %q", meta.Chapters[1].Timestamp())
	}
	if !strings.Contains(meta.Description, "[1:00] Part 2") {
		t.Fatalf("chapters missing from description:\n%s", meta.Description)
	}

	found := false
	for _, tag := range meta.Tags {
		if tag == "studio ghibli" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected ghibli style tags, got %v", meta.Tags)
	}
}

func TestBuildRejectsMissingStory(t *testing.T) {
	if _, err := metadata.Build(nil, metadata.Options{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := metadata.Build(&story.Story{}, metadata.Options{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	meta, err := metadata.Build(sampleStory(), metadata.Options{CategoryID: "27"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "metadata.json")
	if err := meta.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := metadata.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Title != meta.Title || loaded.CategoryID != "27" {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := metadata.Load(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}
