package queue

import (
	"fmt"

	"storyreel/internal/job"
	"storyreel/internal/services"
)

// Resumable is an ordered collection of job units with skip/run/mark
// semantics. It never writes to the filesystem; completion is evaluated
// through the supplied check at call time.
type Resumable struct {
	check  job.CompletionFunc
	units  []job.Unit
	index  map[string]int
	marked map[string]job.Attempt
	forced map[string]struct{}
}

// NewResumable builds a queue around a completion check. A nil check is a
// configuration error, surfaced immediately rather than at execution time.
func NewResumable(check job.CompletionFunc) (*Resumable, error) {
	if check == nil {
		return nil, services.Wrap(services.ErrConfiguration, "queue", "new", "completion check is required", nil)
	}
	return &Resumable{
		check:  check,
		index:  make(map[string]int),
		marked: make(map[string]job.Attempt),
		forced: make(map[string]struct{}),
	}, nil
}

// Enqueue appends units in order. Duplicate identities are a configuration
// error: identity is the idempotence key and must be unique per run.
func (q *Resumable) Enqueue(units ...job.Unit) error {
	for _, unit := range units {
		if unit.Identity == "" {
			return services.Wrap(services.ErrConfiguration, "queue", "enqueue", fmt.Sprintf("unit of kind %s has no identity", unit.Kind), nil)
		}
		if _, exists := q.index[unit.Identity]; exists {
			return services.Wrap(services.ErrConfiguration, "queue", "enqueue", fmt.Sprintf("duplicate unit identity %q", unit.Identity), nil)
		}
		q.index[unit.Identity] = len(q.units)
		q.units = append(q.units, unit)
	}
	return nil
}

// Force marks an identity for execution even when its artifacts are already
// satisfied. Used by explicit scene-selection overrides.
func (q *Resumable) Force(identity string) {
	q.forced[identity] = struct{}{}
}

// Pending returns, in enqueue order, every unit that still needs to run:
// not yet marked this run, and either forced or unsatisfied on disk at
// call time.
func (q *Resumable) Pending() []job.Unit {
	var pending []job.Unit
	for _, unit := range q.units {
		if _, done := q.marked[unit.Identity]; done {
			continue
		}
		if _, forced := q.forced[unit.Identity]; !forced && q.check(unit).Done() {
			continue
		}
		pending = append(pending, unit)
	}
	return pending
}

// Satisfied returns the units whose completion check passes and which are
// not forced to re-run. The sequencer records these as skips.
func (q *Resumable) Satisfied() []job.Unit {
	var satisfied []job.Unit
	for _, unit := range q.units {
		if _, forced := q.forced[unit.Identity]; forced {
			continue
		}
		if _, done := q.marked[unit.Identity]; done {
			continue
		}
		if q.check(unit).Done() {
			satisfied = append(satisfied, unit)
		}
	}
	return satisfied
}

// Mark records the terminal attempt for an identity. A unit executes at
// most once per run, so marking twice is a programming error.
func (q *Resumable) Mark(identity string, attempt job.Attempt) error {
	if _, known := q.index[identity]; !known {
		return services.Wrap(services.ErrConfiguration, "queue", "mark", fmt.Sprintf("unknown unit identity %q", identity), nil)
	}
	if _, already := q.marked[identity]; already {
		return services.Wrap(services.ErrConfiguration, "queue", "mark", fmt.Sprintf("unit %q already marked this run", identity), nil)
	}
	q.marked[identity] = attempt
	return nil
}

// Marked returns the terminal attempt recorded for an identity, if any.
func (q *Resumable) Marked(identity string) (job.Attempt, bool) {
	attempt, ok := q.marked[identity]
	return attempt, ok
}

// Len returns the number of enqueued units.
func (q *Resumable) Len() int {
	return len(q.units)
}
