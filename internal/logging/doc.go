// Package logging configures slog output for storyreel.
//
// Two formats are supported: a compact console format for interactive
// runs and JSON for log shipping. Context helpers attach run, stage,
// and unit attributes so every record can be traced back to the
// pipeline step that produced it.
package logging
