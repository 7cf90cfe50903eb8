package pipeline

import "strings"

// Stage is one phase of the video pipeline. Stages run in a fixed
// order; a stage only starts once every unit of the previous stage is
// satisfied on disk.
type Stage string

const (
	StageReferences Stage = "references"
	StageScenes     Stage = "scenes"
	StageNarration  Stage = "narration"
	StageMusic      Stage = "music"
	StageVideo      Stage = "video"
	StageMetadata   Stage = "metadata"
	StageUpload     Stage = "upload"
)

// StageOrder is the canonical execution order.
var StageOrder = []Stage{
	StageReferences,
	StageScenes,
	StageNarration,
	StageMusic,
	StageVideo,
	StageMetadata,
	StageUpload,
}

// Index returns the stage's position in StageOrder, or -1 for an
// unknown stage.
func (s Stage) Index() int {
	for i, stage := range StageOrder {
		if stage == s {
			return i
		}
	}
	return -1
}

// ParseStage converts user input into a known stage.
func ParseStage(value string) (Stage, bool) {
	candidate := Stage(strings.ToLower(strings.TrimSpace(value)))
	if candidate.Index() < 0 {
		return "", false
	}
	return candidate, true
}
