// Package retry wraps a single unit-of-work execution with bounded retry
// and failure classification. Transient failures are retried with a
// delay; fatal failures abort immediately; an exhausted retry budget
// escalates the last transient failure to a terminal failed attempt.
package retry

import (
	"context"
	"log/slog"
	"time"

	"storyreel/internal/job"
	"storyreel/internal/logging"
	"storyreel/internal/services"
)

// Action is the external collaborator call executed for one unit.
type Action func(ctx context.Context) error

// Policy bounds how often and how patiently a unit is retried.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// Delay is the pause before each retry.
	Delay time.Duration
	// Linear grows the delay with the retry count (delay, 2*delay, ...).
	Linear bool
	// OnAttempt observes every attempt, terminal or not. Used to feed the
	// attempt log.
	OnAttempt func(job.Attempt)
	// Sleep allows tests to intercept waiting. Defaults to a
	// context-aware sleep.
	Sleep func(ctx context.Context, d time.Duration) error

	Logger *slog.Logger
}

// Execute runs the action for a unit, retrying transient failures, and
// returns the terminal attempt. The terminal attempt's Number is the
// total number of invocations made. Errors never escape: failures are
// classified and recorded so sibling units keep executing.
func (p Policy) Execute(ctx context.Context, unit job.Unit, action Action) job.Attempt {
	logger := logging.WithContext(ctx, p.Logger)
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	maxAttempts := p.MaxRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var last job.Attempt
	for number := 1; number <= maxAttempts; number++ {
		attempt := job.Attempt{
			Identity:  unit.Identity,
			Number:    number,
			StartedAt: time.Now().UTC(),
		}

		err := ctx.Err()
		if err == nil {
			err = action(ctx)
		}
		attempt.FinishedAt = time.Now().UTC()

		switch {
		case err == nil:
			attempt.Outcome = job.OutcomeSuccess
		case services.IsFatal(err):
			attempt.Outcome = job.OutcomeFatal
			attempt.Error = err.Error()
		default:
			attempt.Outcome = job.OutcomeTransient
			attempt.Error = err.Error()
		}

		if p.OnAttempt != nil {
			p.OnAttempt(attempt)
		}
		last = attempt

		switch attempt.Outcome {
		case job.OutcomeSuccess:
			if number > 1 {
				logger.Info("unit recovered after retry",
					logging.String(logging.FieldEventType, "unit_recovered"),
					logging.Int(logging.FieldAttempt, number),
				)
			}
			return attempt
		case job.OutcomeFatal:
			logger.Error("unit failed fatally",
				logging.String(logging.FieldEventType, "unit_fatal"),
				logging.Int(logging.FieldAttempt, number),
				logging.Error(err),
			)
			return attempt
		}

		if number == maxAttempts {
			break
		}

		delay := p.Delay
		if p.Linear {
			delay = time.Duration(number) * p.Delay
		}
		logger.Warn("unit attempt failed, retrying",
			logging.String(logging.FieldEventType, "unit_retry"),
			logging.Int(logging.FieldAttempt, number),
			logging.Duration("retry_delay", delay),
			logging.Error(err),
		)
		if delay > 0 {
			if err := sleep(ctx, delay); err != nil {
				// Interrupted mid-wait: escalate what we have.
				break
			}
		}
	}

	// Retry budget exhausted: the terminal attempt stays a failure but is
	// flagged so reports can tell "gave up" from "bad input".
	last.Escalated = true
	logger.Error("unit failed after exhausting retries",
		logging.String(logging.FieldEventType, "unit_exhausted"),
		logging.Int(logging.FieldAttempt, last.Number),
		logging.String("error", last.Error),
	)
	return last
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
