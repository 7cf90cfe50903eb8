// Package report accumulates per-unit outcomes for one pipeline run and
// reduces them into a summary plus a process exit code.
package report

import (
	"sort"
	"time"

	"storyreel/internal/job"
)

// Entry is one unit's terminal record for a run: either a skip, or the
// terminal attempt of an execution.
type Entry struct {
	Stage    string
	Unit     job.Unit
	Skipped  bool
	Attempt  job.Attempt
	Recorded time.Time
}

// Summary is the reduced view of a run.
type Summary struct {
	Succeeded        int
	Skipped          int
	Retried          int
	Failed           int
	FailedIdentities []string
	Duration         time.Duration
}

// Clean reports whether every executed unit ended in success.
func (s Summary) Clean() bool {
	return s.Failed == 0
}

// ExitCode maps the summary to the process exit status. Any terminal
// failure, escalated or fatal, makes the run non-zero.
func (s Summary) ExitCode() int {
	if s.Failed > 0 {
		return 1
	}
	return 0
}

// Report collects entries during a run. It is not safe for concurrent
// use; the sequencer owns it and records from one goroutine.
type Report struct {
	RunID   string
	Started time.Time
	entries []Entry
}

// New starts a report for a run.
func New(runID string) *Report {
	return &Report{RunID: runID, Started: time.Now().UTC()}
}

// Record stores the terminal attempt for an executed unit.
func (r *Report) Record(stage string, unit job.Unit, attempt job.Attempt) {
	r.entries = append(r.entries, Entry{
		Stage:    stage,
		Unit:     unit,
		Attempt:  attempt,
		Recorded: time.Now().UTC(),
	})
}

// RecordSkip stores a unit whose artifacts were already satisfied.
func (r *Report) RecordSkip(stage string, unit job.Unit) {
	r.entries = append(r.entries, Entry{
		Stage:    stage,
		Unit:     unit,
		Skipped:  true,
		Recorded: time.Now().UTC(),
	})
}

// Entries returns the recorded entries in arrival order.
func (r *Report) Entries() []Entry {
	return r.entries
}

// Summary reduces the entries. A unit counts as retried when its
// terminal attempt needed more than one invocation, regardless of
// final outcome.
func (r *Report) Summary() Summary {
	summary := Summary{Duration: time.Since(r.Started)}
	for _, entry := range r.entries {
		if entry.Skipped {
			summary.Skipped++
			continue
		}
		if entry.Attempt.Number > 1 {
			summary.Retried++
		}
		if entry.Attempt.Outcome.Failed() {
			summary.Failed++
			summary.FailedIdentities = append(summary.FailedIdentities, entry.Unit.Identity)
			continue
		}
		summary.Succeeded++
	}
	sort.Strings(summary.FailedIdentities)
	return summary
}
