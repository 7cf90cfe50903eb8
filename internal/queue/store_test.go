package queue_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"storyreel/internal/job"
	"storyreel/internal/queue"
)

func openStore(t *testing.T) *queue.Store {
	t.Helper()
	store, err := queue.OpenPath(filepath.Join(t.TempDir(), "attempts.db"))
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func appendAttempt(t *testing.T, store *queue.Store, runID, identity string, number int, outcome job.Outcome) {
	t.Helper()
	now := time.Now().UTC()
	unit := job.Unit{Kind: job.KindSceneBatch, Identity: identity}
	attempt := job.Attempt{
		Identity:   identity,
		Number:     number,
		Outcome:    outcome,
		StartedAt:  now.Add(-time.Second),
		FinishedAt: now,
	}
	if err := store.Append(context.Background(), runID, "scenes", unit, attempt); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
}

func TestAppendAndListRun(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	appendAttempt(t, store, "run-1", "scene:001", 1, job.OutcomeTransient)
	appendAttempt(t, store, "run-1", "scene:001", 2, job.OutcomeSuccess)
	appendAttempt(t, store, "run-2", "scene:002", 1, job.OutcomeSuccess)

	records, err := store.ListRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("ListRun failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Number != 1 || records[1].Number != 2 {
		t.Fatalf("expected insertion order, got %+v", records)
	}
	if records[0].Kind != job.KindSceneBatch || records[0].Stage != "scenes" {
		t.Fatalf("unexpected record %+v", records[0])
	}
}

func TestListUnitNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	appendAttempt(t, store, "run-1", "scene:048", 1, job.OutcomeTransient)
	appendAttempt(t, store, "run-2", "scene:048", 1, job.OutcomeSuccess)

	records, err := store.ListUnit(ctx, "scene:048", 10)
	if err != nil {
		t.Fatalf("ListUnit failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].RunID != "run-2" {
		t.Fatalf("expected newest first, got %+v", records)
	}
}

func TestLastRunID(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	last, err := store.LastRunID(ctx)
	if err != nil {
		t.Fatalf("LastRunID failed: %v", err)
	}
	if last != "" {
		t.Fatalf("expected empty run id on fresh store, got %q", last)
	}

	appendAttempt(t, store, "run-1", "scene:001", 1, job.OutcomeSuccess)
	appendAttempt(t, store, "run-2", "scene:002", 1, job.OutcomeSuccess)

	last, err = store.LastRunID(ctx)
	if err != nil {
		t.Fatalf("LastRunID failed: %v", err)
	}
	if last != "run-2" {
		t.Fatalf("expected run-2, got %q", last)
	}
}

func TestStatsGroupsByOutcome(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	appendAttempt(t, store, "run-1", "scene:001", 1, job.OutcomeTransient)
	appendAttempt(t, store, "run-1", "scene:001", 2, job.OutcomeTransient)
	appendAttempt(t, store, "run-1", "scene:001", 3, job.OutcomeSuccess)
	appendAttempt(t, store, "run-1", "scene:002", 1, job.OutcomeFatal)

	stats, err := store.Stats(ctx, "run-1")
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[job.OutcomeTransient] != 2 || stats[job.OutcomeSuccess] != 1 || stats[job.OutcomeFatal] != 1 {
		t.Fatalf("unexpected stats %v", stats)
	}
}

func TestPrune(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	appendAttempt(t, store, "run-1", "scene:001", 1, job.OutcomeSuccess)

	removed, err := store.Prune(ctx, time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 pruned row, got %d", removed)
	}
}
