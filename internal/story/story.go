// Package story loads and validates the story definition file that
// drives a pipeline run: characters and environments with their
// reference prompts, ordered scene prompts, and narration text.
package story

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"storyreel/internal/services"
)

// Character is a recurring subject with a reference-image prompt.
type Character struct {
	Name   string `json:"name" yaml:"name"`
	Prompt string `json:"prompt" yaml:"prompt"`
}

// Environment is a backdrop with a reference-image prompt.
type Environment struct {
	Name   string `json:"name" yaml:"name"`
	Prompt string `json:"prompt" yaml:"prompt"`
}

// Scene is one slideshow beat. Characters and Environment reference
// entries declared at the story level by name.
type Scene struct {
	Environment string   `json:"environment" yaml:"environment"`
	Characters  []string `json:"characters,omitempty" yaml:"characters,omitempty"`
	Prompt      string   `json:"prompt" yaml:"prompt"`
}

// Story is the full definition of one video.
type Story struct {
	Title        string        `json:"title" yaml:"title"`
	Description  string        `json:"description,omitempty" yaml:"description,omitempty"`
	Style        string        `json:"style,omitempty" yaml:"style,omitempty"`
	Music        string        `json:"music,omitempty" yaml:"music,omitempty"`
	Characters   []Character   `json:"characters,omitempty" yaml:"characters,omitempty"`
	Environments []Environment `json:"environments,omitempty" yaml:"environments,omitempty"`
	Scenes       []Scene       `json:"scenes" yaml:"scenes"`
	Narration    []string      `json:"narration" yaml:"narration"`
}

// Load reads a story file, decoding by extension (.json, .yaml, .yml),
// and validates it. Unknown extensions are a validation error.
func Load(path string) (*Story, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "story", "load", fmt.Sprintf("story file %s does not exist", path), err)
		}
		return nil, services.Wrap(services.ErrValidation, "story", "load", fmt.Sprintf("read story file %s", path), err)
	}

	var story Story
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &story); err != nil {
			return nil, services.Wrap(services.ErrValidation, "story", "decode", fmt.Sprintf("parse JSON story %s", path), err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &story); err != nil {
			return nil, services.Wrap(services.ErrValidation, "story", "decode", fmt.Sprintf("parse YAML story %s", path), err)
		}
	default:
		return nil, services.Wrap(services.ErrValidation, "story", "decode", fmt.Sprintf("unsupported story file extension %q", filepath.Ext(path)), nil)
	}

	if err := story.Validate(); err != nil {
		return nil, err
	}
	return &story, nil
}

// Validate checks the structural requirements a run depends on. Scene
// indices are 1-based in all reported errors.
func (s *Story) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return validationErr("story title is required")
	}
	if len(s.Scenes) == 0 {
		return validationErr("story has no scenes")
	}
	if len(s.Narration) == 0 {
		return validationErr("story has no narration segments")
	}
	for i, segment := range s.Narration {
		if strings.TrimSpace(segment) == "" {
			return validationErr(fmt.Sprintf("narration segment %d is empty", i+1))
		}
	}

	characters := make(map[string]struct{}, len(s.Characters))
	for i, character := range s.Characters {
		if strings.TrimSpace(character.Name) == "" {
			return validationErr(fmt.Sprintf("character %d has no name", i+1))
		}
		if strings.TrimSpace(character.Prompt) == "" {
			return validationErr(fmt.Sprintf("character %q has no reference prompt", character.Name))
		}
		if _, dup := characters[character.Name]; dup {
			return validationErr(fmt.Sprintf("duplicate character %q", character.Name))
		}
		characters[character.Name] = struct{}{}
	}

	environments := make(map[string]struct{}, len(s.Environments))
	for i, environment := range s.Environments {
		if strings.TrimSpace(environment.Name) == "" {
			return validationErr(fmt.Sprintf("environment %d has no name", i+1))
		}
		if strings.TrimSpace(environment.Prompt) == "" {
			return validationErr(fmt.Sprintf("environment %q has no reference prompt", environment.Name))
		}
		if _, dup := environments[environment.Name]; dup {
			return validationErr(fmt.Sprintf("duplicate environment %q", environment.Name))
		}
		environments[environment.Name] = struct{}{}
	}

	for i, scene := range s.Scenes {
		if strings.TrimSpace(scene.Prompt) == "" {
			return validationErr(fmt.Sprintf("scene %d has no prompt", i+1))
		}
		if scene.Environment != "" {
			if _, ok := environments[scene.Environment]; !ok {
				return validationErr(fmt.Sprintf("scene %d references unknown environment %q", i+1, scene.Environment))
			}
		}
		for _, name := range scene.Characters {
			if _, ok := characters[name]; !ok {
				return validationErr(fmt.Sprintf("scene %d references unknown character %q", i+1, name))
			}
		}
	}
	return nil
}

// ScenePrompt returns the full generation prompt for a 1-based scene
// index, with the story style suffix applied when set.
func (s *Story) ScenePrompt(index int) string {
	if index < 1 || index > len(s.Scenes) {
		return ""
	}
	prompt := s.Scenes[index-1].Prompt
	if s.Style != "" && !strings.Contains(strings.ToLower(prompt), strings.ToLower(s.Style)) {
		prompt = prompt + ", " + s.Style
	}
	return prompt
}

// ReferenceNames returns character then environment names, in declared
// order. These become the reference-image units.
func (s *Story) ReferenceNames() (characters, environments []string) {
	for _, character := range s.Characters {
		characters = append(characters, character.Name)
	}
	for _, environment := range s.Environments {
		environments = append(environments, environment.Name)
	}
	return characters, environments
}

// ReferencePrompt looks up the reference prompt for a character or
// environment name.
func (s *Story) ReferencePrompt(name string) (string, bool) {
	for _, character := range s.Characters {
		if character.Name == name {
			return character.Prompt, true
		}
	}
	for _, environment := range s.Environments {
		if environment.Name == name {
			return environment.Prompt, true
		}
	}
	return "", false
}

func validationErr(message string) error {
	return services.Wrap(services.ErrValidation, "story", "validate", message, nil)
}
