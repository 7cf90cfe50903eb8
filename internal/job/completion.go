package job

import "os"

// State is the result of checking a unit's expected artifacts on disk.
type State string

const (
	StateSatisfied State = "satisfied"
	StateMissing   State = "missing"
	StatePartial   State = "partial"
)

// Done reports whether the state counts as complete. Partial never does:
// a half-written unit re-runs in full rather than being patched.
func (s State) Done() bool {
	return s == StateSatisfied
}

// CompletionFunc decides whether a unit's work already exists on disk.
type CompletionFunc func(Unit) State

// Check stats every expected artifact. All present at their minimum size
// is Satisfied; none is Missing; a mix is Partial. A unit with no declared
// artifacts is never satisfied.
func Check(u Unit) State {
	if len(u.Artifacts) == 0 {
		return StateMissing
	}
	present := 0
	for _, artifact := range u.Artifacts {
		if artifactPresent(artifact) {
			present++
		}
	}
	switch present {
	case len(u.Artifacts):
		return StateSatisfied
	case 0:
		return StateMissing
	default:
		return StatePartial
	}
}

func artifactPresent(a Artifact) bool {
	info, err := os.Stat(a.Path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Size() >= a.MinBytes
}
