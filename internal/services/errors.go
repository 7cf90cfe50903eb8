package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransient marks failures worth retrying: UI races, rate limits,
	// flaky downloads.
	ErrTransient = errors.New("transient failure")
	// ErrTimeout marks bounded waits that expired. Retried like ErrTransient.
	ErrTimeout = errors.New("timeout")
	// ErrExternalTool marks a collaborator process that exited abnormally.
	ErrExternalTool = errors.New("external tool error")
	// ErrValidation marks malformed input. Never retried.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks broken run configuration. Never retried.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks a missing required asset. Never retried.
	ErrNotFound = errors.New("not found")
	// ErrPrerequisite marks an unsatisfied upstream stage blocking a
	// downstream-only entry point. Never retried.
	ErrPrerequisite = errors.New("missing prerequisite")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether an error must abort immediately instead of being
// retried. Unclassified errors are treated as transient so that a hiccup in
// an external surface never kills a whole batch.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrConfiguration),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrPrerequisite):
		return true
	case errors.Is(err, context.Canceled):
		return true
	default:
		return false
	}
}

// IsTransient reports whether an error should be retried.
func IsTransient(err error) bool {
	return err != nil && !IsFatal(err)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
