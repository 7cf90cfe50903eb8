package pipeline

import (
	"fmt"
	"path/filepath"

	"storyreel/internal/config"
)

// Layout maps pipeline artifacts to concrete paths under the project
// directories. All resume decisions run through these paths, so they
// must stay stable across releases.
type Layout struct {
	OutputDir       string
	CharactersDir   string
	EnvironmentsDir string
}

// NewLayout derives the layout from configuration.
func NewLayout(cfg *config.Config) Layout {
	return Layout{
		OutputDir:       cfg.Paths.OutputDir,
		CharactersDir:   cfg.Paths.CharactersDir,
		EnvironmentsDir: cfg.Paths.EnvironmentsDir,
	}
}

// CharacterImage is the reference image for a character.
func (l Layout) CharacterImage(name string) string {
	return filepath.Join(l.CharactersDir, name+".png")
}

// EnvironmentImage is the reference image for an environment.
func (l Layout) EnvironmentImage(name string) string {
	return filepath.Join(l.EnvironmentsDir, name+".png")
}

// SceneDir holds one batch of generated images for a scene. Scene
// indices are 1-based, batches start at 1.
func (l Layout) SceneDir(scene, batch int) string {
	return filepath.Join(l.OutputDir, fmt.Sprintf("scene_%03d_batch_%d", scene, batch))
}

// SceneImage is one expected image inside a scene batch, 1-based.
func (l Layout) SceneImage(scene, batch, image int) string {
	return filepath.Join(l.SceneDir(scene, batch), fmt.Sprintf("image_%02d.png", image))
}

// NarrationDir holds the per-segment narration audio.
func (l Layout) NarrationDir() string {
	return filepath.Join(l.OutputDir, "narration")
}

// NarrationSegment is one narration audio chunk, 1-based.
func (l Layout) NarrationSegment(segment int) string {
	return filepath.Join(l.NarrationDir(), fmt.Sprintf("narration_%02d.mp3", segment))
}

// MusicFile is the selected background track copied into the project.
func (l Layout) MusicFile() string {
	return filepath.Join(l.OutputDir, "music.mp3")
}

// VideoFile is the assembled slideshow video.
func (l Layout) VideoFile() string {
	return filepath.Join(l.OutputDir, "final_video.mp4")
}

// MetadataFile is the upload metadata saved next to the video.
func (l Layout) MetadataFile() string {
	return filepath.Join(l.OutputDir, "metadata.json")
}

// ThumbnailFile is the generated video thumbnail.
func (l Layout) ThumbnailFile() string {
	return filepath.Join(l.OutputDir, "thumbnail.jpg")
}

// UploadReceipt records a completed upload; its presence makes the
// upload stage resumable like every other artifact.
func (l Layout) UploadReceipt() string {
	return filepath.Join(l.OutputDir, "upload.json")
}

// ScheduleFile is the local publish-slot history.
func (l Layout) ScheduleFile() string {
	return filepath.Join(l.OutputDir, "schedule.json")
}

// StoryFile is the canonical story definition location inside a project.
func (l Layout) StoryFile() string {
	return filepath.Join(l.OutputDir, "story.json")
}
