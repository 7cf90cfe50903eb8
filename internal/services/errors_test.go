package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"storyreel/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	cause := errors.New("boom")
	err := services.Wrap(services.ErrValidation, "scenes", "parse selection", "bad index", cause)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected wrapped error to match marker, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped error to retain cause, got %v", err)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "scenes", "download", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected nil marker to default to transient, got %v", err)
	}
}

func TestClassification(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"transient", services.Wrap(services.ErrTransient, "scenes", "generate", "", nil), false},
		{"timeout", services.Wrap(services.ErrTimeout, "scenes", "download wait", "", nil), false},
		{"external tool", services.Wrap(services.ErrExternalTool, "video", "ffmpeg", "", nil), false},
		{"unclassified", errors.New("mystery"), false},
		{"validation", services.Wrap(services.ErrValidation, "scenes", "selection", "", nil), true},
		{"configuration", services.Wrap(services.ErrConfiguration, "run", "load", "", nil), true},
		{"not found", services.Wrap(services.ErrNotFound, "music", "track", "", nil), true},
		{"prerequisite", services.Wrap(services.ErrPrerequisite, "video", "gate", "scenes unsatisfied", nil), true},
		{"canceled", fmt.Errorf("wait: %w", context.Canceled), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.IsFatal(tc.err); got != tc.fatal {
				t.Fatalf("IsFatal(%v) = %v, want %v", tc.err, got, tc.fatal)
			}
			if got := services.IsTransient(tc.err); got != !tc.fatal {
				t.Fatalf("IsTransient(%v) = %v, want %v", tc.err, got, !tc.fatal)
			}
		})
	}
}

func TestIsFatalNil(t *testing.T) {
	if services.IsFatal(nil) {
		t.Fatal("nil error must not classify as fatal")
	}
	if services.IsTransient(nil) {
		t.Fatal("nil error must not classify as transient")
	}
}
