package job

import "strings"

// Kind identifies what a unit produces.
type Kind string

const (
	KindReferenceImage Kind = "reference_image"
	KindSceneBatch     Kind = "scene_batch"
	KindNarration      Kind = "narration"
	KindMusic          Kind = "music"
	KindVideoAssembly  Kind = "video_assembly"
	KindMetadata       Kind = "metadata"
	KindUpload         Kind = "upload"
)

var allKinds = []Kind{
	KindReferenceImage,
	KindSceneBatch,
	KindNarration,
	KindMusic,
	KindVideoAssembly,
	KindMetadata,
	KindUpload,
}

var kindSet = func() map[Kind]struct{} {
	set := make(map[Kind]struct{}, len(allKinds))
	for _, kind := range allKinds {
		set[kind] = struct{}{}
	}
	return set
}()

// ParseKind converts a string into a known Kind.
func ParseKind(value string) (Kind, bool) {
	normalized := Kind(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := kindSet[normalized]
	return normalized, ok
}

// Artifact describes one expected output file. MinBytes guards against
// truncated downloads being counted as done.
type Artifact struct {
	Path     string
	MinBytes int64
}

// Unit is one schedulable piece of pipeline work. Identity is stable
// across runs so idempotence checks hold; units are never mutated after
// construction, only re-created on re-run.
type Unit struct {
	Kind       Kind
	Identity   string
	SceneIndex int // 1-based for scene batches, zero otherwise
	Inputs     map[string]string
	Artifacts  []Artifact
}

// Input returns a named input parameter, or empty when absent.
func (u Unit) Input(key string) string {
	if u.Inputs == nil {
		return ""
	}
	return u.Inputs[key]
}

// ArtifactPaths returns the expected output paths in declared order.
func (u Unit) ArtifactPaths() []string {
	paths := make([]string, 0, len(u.Artifacts))
	for _, artifact := range u.Artifacts {
		paths = append(paths, artifact.Path)
	}
	return paths
}
