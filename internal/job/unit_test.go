package job_test

import (
	"testing"

	"storyreel/internal/job"
)

func TestParseKind(t *testing.T) {
	cases := []struct {
		input string
		want  job.Kind
		ok    bool
	}{
		{"scene_batch", job.KindSceneBatch, true},
		{" Reference_Image ", job.KindReferenceImage, true},
		{"upload", job.KindUpload, true},
		{"", "", false},
		{"render", "", false},
	}
	for _, tc := range cases {
		got, ok := job.ParseKind(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseKind(%q) = (%q, %v), want (%q, %v)", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestUnitInput(t *testing.T) {
	unit := job.Unit{
		Kind:     job.KindSceneBatch,
		Identity: "scene:048",
		Inputs:   map[string]string{"prompt": "crystal trees at twilight"},
	}
	if got := unit.Input("prompt"); got != "crystal trees at twilight" {
		t.Fatalf("unexpected input %q", got)
	}
	if got := unit.Input("absent"); got != "" {
		t.Fatalf("expected empty input, got %q", got)
	}
	var empty job.Unit
	if got := empty.Input("anything"); got != "" {
		t.Fatalf("expected empty input on nil map, got %q", got)
	}
}

func TestArtifactPathsOrder(t *testing.T) {
	unit := job.Unit{
		Artifacts: []job.Artifact{
			{Path: "/out/a.png"},
			{Path: "/out/b.png"},
		},
	}
	paths := unit.ArtifactPaths()
	if len(paths) != 2 || paths[0] != "/out/a.png" || paths[1] != "/out/b.png" {
		t.Fatalf("unexpected paths %v", paths)
	}
}

func TestOutcomeFailed(t *testing.T) {
	if job.OutcomeSuccess.Failed() {
		t.Fatal("success is not a failure")
	}
	if !job.OutcomeTransient.Failed() || !job.OutcomeFatal.Failed() {
		t.Fatal("failure outcomes should report Failed")
	}
}
