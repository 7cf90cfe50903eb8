package schedule_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"storyreel/internal/schedule"
	"storyreel/internal/services"
)

func newTracker(t *testing.T, now time.Time) *schedule.Tracker {
	t.Helper()
	tracker := schedule.NewTracker(filepath.Join(t.TempDir(), "schedule.json"), 23)
	tracker.Now = func() time.Time { return now }
	return tracker
}

func TestNextBeforePublishHourIsSameDay(t *testing.T) {
	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	tracker := newTracker(t, now)

	next, err := tracker.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	want := time.Date(2026, 8, 24, 23, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("expected %v, got %v", want, next)
	}
}

func TestNextAfterPublishHourRollsOver(t *testing.T) {
	now := time.Date(2026, 8, 24, 23, 30, 0, 0, time.UTC)
	tracker := newTracker(t, now)

	next, err := tracker.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	want := time.Date(2026, 8, 25, 23, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("expected %v, got %v", want, next)
	}
}

func TestNextSkipsBookedDays(t *testing.T) {
	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	tracker := newTracker(t, now)

	first, err := tracker.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if err := tracker.Record(first, "vid-1", "Episode 1"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	second, err := tracker.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if !second.Equal(first.AddDate(0, 0, 1)) {
		t.Fatalf("expected next free day %v, got %v", first.AddDate(0, 0, 1), second)
	}
}

func TestHistorySortedOldestFirst(t *testing.T) {
	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	tracker := newTracker(t, now)

	later := time.Date(2026, 8, 30, 23, 0, 0, 0, time.UTC)
	earlier := time.Date(2026, 8, 26, 23, 0, 0, 0, time.UTC)
	if err := tracker.Record(later, "vid-2", "Episode 2"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := tracker.Record(earlier, "vid-1", "Episode 1"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	history, err := tracker.History()
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 || history[0].VideoID != "vid-1" {
		t.Fatalf("expected oldest first, got %+v", history)
	}
}

func TestCorruptTrackerIsValidationError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tracker := schedule.NewTracker(path, 23)
	_, err := tracker.Next()
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
