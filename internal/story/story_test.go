package story_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"storyreel/internal/services"
	"storyreel/internal/story"
)

func validStory() story.Story {
	return story.Story{
		Title: "Grandmother's Magical Garden",
		Style: "Studio Ghibli style",
		Music: "lullaby",
		Characters: []story.Character{
			{Name: "grandmother_01", Prompt: "Elderly woman with silver hair, kind face"},
		},
		Environments: []story.Environment{
			{Name: "garden_01", Prompt: "Magical garden at twilight, glowing flowers"},
		},
		Scenes: []story.Scene{
			{Environment: "garden_01", Characters: []string{"grandmother_01"}, Prompt: "Grandmother at the garden gate"},
			{Environment: "garden_01", Prompt: "Fireflies over the pond, Studio Ghibli style"},
		},
		Narration: []string{
			"Once upon a time, in a garden touched by moonlight.",
			"The fireflies came out to dance.",
		},
	}
}

func writeStory(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write story file: %v", err)
	}
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeStory(t, "story.json", `{
        "title": "Night Garden",
        "scenes": [{"prompt": "A quiet pond"}],
        "narration": ["The pond was quiet."]
    }`)
	s, err := story.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Title != "Night Garden" || len(s.Scenes) != 1 {
		t.Fatalf("unexpected story %+v", s)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeStory(t, "story.yaml", `
title: Night Garden
environments:
  - name: pond
    prompt: A quiet pond at dusk
scenes:
  - environment: pond
    prompt: Mist over the water
narration:
  - The mist rolled in softly.
`)
	s, err := story.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Scenes[0].Environment != "pond" {
		t.Fatalf("unexpected story %+v", s)
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	path := writeStory(t, "story.toml", `title = "x"`)
	_, err := story.Load(path)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := story.Load(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestValidateCatchesStructuralProblems(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*story.Story)
	}{
		{"missing title", func(s *story.Story) { s.Title = " " }},
		{"no scenes", func(s *story.Story) { s.Scenes = nil }},
		{"no narration", func(s *story.Story) { s.Narration = nil }},
		{"empty narration segment", func(s *story.Story) { s.Narration[1] = "  " }},
		{"scene without prompt", func(s *story.Story) { s.Scenes[0].Prompt = "" }},
		{"unknown environment", func(s *story.Story) { s.Scenes[0].Environment = "void" }},
		{"unknown character", func(s *story.Story) { s.Scenes[0].Characters = []string{"ghost"} }},
		{"character without prompt", func(s *story.Story) { s.Characters[0].Prompt = "" }},
		{"duplicate environment", func(s *story.Story) {
			s.Environments = append(s.Environments, s.Environments[0])
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := validStory()
			tc.mutate(&s)
			err := s.Validate()
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	s := validStory()
	if err := s.Validate(); err != nil {
		t.Fatalf("valid story must validate: %v", err)
	}
}

func TestScenePromptAppendsStyleOnce(t *testing.T) {
	s := validStory()
	if got := s.ScenePrompt(1); got != "Grandmother at the garden gate, Studio Ghibli style" {
		t.Fatalf("unexpected prompt %q", got)
	}
	// Style already present stays unduplicated.
	if got := s.ScenePrompt(2); got != "Fireflies over the pond, Studio Ghibli style" {
		t.Fatalf("unexpected prompt %q", got)
	}
	if got := s.ScenePrompt(99); got != "" {
		t.Fatalf("out-of-range prompt should be empty, got %q", got)
	}
}

func TestReferenceLookups(t *testing.T) {
	s := validStory()
	characters, environments := s.ReferenceNames()
	if len(characters) != 1 || characters[0] != "grandmother_01" {
		t.Fatalf("unexpected characters %v", characters)
	}
	if len(environments) != 1 || environments[0] != "garden_01" {
		t.Fatalf("unexpected environments %v", environments)
	}
	if prompt, ok := s.ReferencePrompt("garden_01"); !ok || prompt == "" {
		t.Fatalf("expected environment prompt, got %q %v", prompt, ok)
	}
	if _, ok := s.ReferencePrompt("nobody"); ok {
		t.Fatal("unknown name must not resolve")
	}
}
