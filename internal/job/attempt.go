package job

import "time"

// Outcome classifies how an attempt ended.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeTransient Outcome = "transient_failure"
	OutcomeFatal     Outcome = "fatal_failure"
)

// Failed reports whether the outcome is any kind of failure.
func (o Outcome) Failed() bool {
	return o == OutcomeTransient || o == OutcomeFatal
}

// Attempt records one invocation of a unit's action. Number is 1-based.
// Escalated marks a transient failure promoted to terminal after the
// retry budget ran out; reports use it to distinguish "gave up" from
// "bad input".
type Attempt struct {
	Identity   string
	Number     int
	Outcome    Outcome
	Error      string
	Escalated  bool
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns the wall time the attempt took.
func (a Attempt) Duration() time.Duration {
	if a.FinishedAt.IsZero() || a.StartedAt.IsZero() {
		return 0
	}
	return a.FinishedAt.Sub(a.StartedAt)
}
