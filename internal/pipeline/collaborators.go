package pipeline

import (
	"context"
	"time"
)

// ReferenceRequest asks the image generator for one reference image.
type ReferenceRequest struct {
	Name       string
	Prompt     string
	OutputPath string
}

// SceneRequest asks the image generator for one batch of scene images.
// Reference paths point at already-satisfied reference artifacts.
type SceneRequest struct {
	SceneIndex     int
	Batch          int
	Prompt         string
	EnvironmentRef string
	CharacterRefs  []string
	OutputDir      string
	ImageCount     int
}

// ImageGenerator drives the external browser-automation surface. All
// calls block until the artifacts exist on disk or an error is
// classified; implementations must be safe to call repeatedly with the
// same request.
type ImageGenerator interface {
	GenerateReference(ctx context.Context, req ReferenceRequest) error
	GenerateScene(ctx context.Context, req SceneRequest) error
	// ResetSession restores a clean browser state between reference
	// generations so prior uploads cannot bleed into the next one.
	ResetSession(ctx context.Context) error
}

// NarrationSynthesizer renders one narration text segment to audio.
type NarrationSynthesizer interface {
	Synthesize(ctx context.Context, text, outputPath string) error
}

// AssemblyRequest describes the final slideshow render.
type AssemblyRequest struct {
	SceneImages     []string
	NarrationFiles  []string
	MusicFile       string
	SecondsPerImage float64
	MusicGainDB     float64
	OutputPath      string
}

// VideoAssembler produces the video and its thumbnail.
type VideoAssembler interface {
	Assemble(ctx context.Context, req AssemblyRequest) error
	Thumbnail(ctx context.Context, imagePath, outputPath string) error
}

// UploadRequest carries everything the upload collaborator needs.
type UploadRequest struct {
	VideoPath     string
	ThumbnailPath string
	Title         string
	Description   string
	Tags          []string
	CategoryID    string
	Privacy       string
	// PublishAt schedules the video; zero means publish immediately.
	PublishAt time.Time
}

// Uploader publishes the finished video and returns its platform ID.
type Uploader interface {
	Upload(ctx context.Context, req UploadRequest) (string, error)
}
