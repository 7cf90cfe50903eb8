// Package queue holds the resumable unit queue and the append-only
// attempt log.
//
// The queue is in-memory bookkeeping for one run: it filters out units
// whose artifacts already exist and guarantees each identity executes at
// most once. The attempt log is a SQLite side channel for diagnostics
// across runs; it is never consulted to decide whether work is done.
// The filesystem is.
package queue
