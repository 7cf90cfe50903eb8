package pipeline

import (
	"fmt"
	"strings"

	"storyreel/internal/config"
	"storyreel/internal/job"
	"storyreel/internal/story"
)

// Minimum artifact sizes below the configurable image threshold. Audio
// and video artifacts smaller than these are header-only stubs.
const (
	minAudioBytes    = 1024
	minVideoBytes    = 65536
	minMetadataBytes = 2
)

// UnitBuilder derives the job units for each stage from the story and
// configuration. Unit identities are stable across runs; building the
// same story twice yields identical identities and artifact paths.
type UnitBuilder struct {
	cfg    *config.Config
	story  *story.Story
	layout Layout
}

// NewUnitBuilder wires a builder for one project.
func NewUnitBuilder(cfg *config.Config, s *story.Story, layout Layout) *UnitBuilder {
	return &UnitBuilder{cfg: cfg, story: s, layout: layout}
}

// UnitsFor returns the units of one stage in execution order.
func (b *UnitBuilder) UnitsFor(stage Stage) []job.Unit {
	switch stage {
	case StageReferences:
		return b.ReferenceUnits()
	case StageScenes:
		return b.SceneUnits()
	case StageNarration:
		return b.NarrationUnits()
	case StageMusic:
		return []job.Unit{b.MusicUnit()}
	case StageVideo:
		return []job.Unit{b.VideoUnit()}
	case StageMetadata:
		return []job.Unit{b.MetadataUnit()}
	case StageUpload:
		return []job.Unit{b.UploadUnit()}
	default:
		return nil
	}
}

// ReferenceUnits covers character references ("ref:<name>") then
// environment references ("env:<name>"), in story declaration order.
func (b *UnitBuilder) ReferenceUnits() []job.Unit {
	var units []job.Unit
	for _, character := range b.story.Characters {
		units = append(units, job.Unit{
			Kind:     job.KindReferenceImage,
			Identity: "ref:" + character.Name,
			Inputs: map[string]string{
				"name":   character.Name,
				"prompt": character.Prompt,
			},
			Artifacts: []job.Artifact{{
				Path:     b.layout.CharacterImage(character.Name),
				MinBytes: b.cfg.Generation.MinImageBytes,
			}},
		})
	}
	for _, environment := range b.story.Environments {
		units = append(units, job.Unit{
			Kind:     job.KindReferenceImage,
			Identity: "env:" + environment.Name,
			Inputs: map[string]string{
				"name":   environment.Name,
				"prompt": environment.Prompt,
			},
			Artifacts: []job.Artifact{{
				Path:     b.layout.EnvironmentImage(environment.Name),
				MinBytes: b.cfg.Generation.MinImageBytes,
			}},
		})
	}
	return units
}

// SceneUnits yields one unit per scene ("scene:NNN") whose artifacts
// span every configured batch.
func (b *UnitBuilder) SceneUnits() []job.Unit {
	units := make([]job.Unit, 0, len(b.story.Scenes))
	for i, scene := range b.story.Scenes {
		index := i + 1
		var artifacts []job.Artifact
		for batch := 1; batch <= b.cfg.Generation.BatchesPerScene; batch++ {
			for image := 1; image <= b.cfg.Generation.ImagesPerScene; image++ {
				artifacts = append(artifacts, job.Artifact{
					Path:     b.layout.SceneImage(index, batch, image),
					MinBytes: b.cfg.Generation.MinImageBytes,
				})
			}
		}
		units = append(units, job.Unit{
			Kind:       job.KindSceneBatch,
			Identity:   fmt.Sprintf("scene:%03d", index),
			SceneIndex: index,
			Inputs: map[string]string{
				"prompt":      b.story.ScenePrompt(index),
				"environment": scene.Environment,
				"characters":  strings.Join(scene.Characters, ","),
			},
			Artifacts: artifacts,
		})
	}
	return units
}

// NarrationUnits yields one unit per narration segment
// ("narration:NN") so a flaky TTS call only re-renders its own chunk.
func (b *UnitBuilder) NarrationUnits() []job.Unit {
	units := make([]job.Unit, 0, len(b.story.Narration))
	for i, text := range b.story.Narration {
		segment := i + 1
		units = append(units, job.Unit{
			Kind:     job.KindNarration,
			Identity: fmt.Sprintf("narration:%02d", segment),
			Inputs:   map[string]string{"text": text},
			Artifacts: []job.Artifact{{
				Path:     b.layout.NarrationSegment(segment),
				MinBytes: minAudioBytes,
			}},
		})
	}
	return units
}

// MusicUnit copies the selected library track into the project.
func (b *UnitBuilder) MusicUnit() job.Unit {
	return job.Unit{
		Kind:     job.KindMusic,
		Identity: "music",
		Inputs: map[string]string{
			"category": b.story.Music,
			"seed":     b.story.Title,
		},
		Artifacts: []job.Artifact{{
			Path:     b.layout.MusicFile(),
			MinBytes: minAudioBytes,
		}},
	}
}

// VideoUnit is the final slideshow assembly.
func (b *UnitBuilder) VideoUnit() job.Unit {
	return job.Unit{
		Kind:     job.KindVideoAssembly,
		Identity: "video",
		Artifacts: []job.Artifact{{
			Path:     b.layout.VideoFile(),
			MinBytes: minVideoBytes,
		}},
	}
}

// MetadataUnit produces the upload metadata and the thumbnail.
func (b *UnitBuilder) MetadataUnit() job.Unit {
	return job.Unit{
		Kind:     job.KindMetadata,
		Identity: "metadata",
		Artifacts: []job.Artifact{
			{Path: b.layout.MetadataFile(), MinBytes: minMetadataBytes},
			{Path: b.layout.ThumbnailFile(), MinBytes: minAudioBytes},
		},
	}
}

// UploadUnit publishes the video; its receipt file is the artifact
// that makes the stage idempotent.
func (b *UnitBuilder) UploadUnit() job.Unit {
	return job.Unit{
		Kind:     job.KindUpload,
		Identity: "upload",
		Artifacts: []job.Artifact{{
			Path:     b.layout.UploadReceipt(),
			MinBytes: minMetadataBytes,
		}},
	}
}
