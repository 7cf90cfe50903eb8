package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"storyreel/internal/job"
	"storyreel/internal/retry"
	"storyreel/internal/services"
)

func noSleep(context.Context, time.Duration) error { return nil }

func testUnit() job.Unit {
	return job.Unit{Kind: job.KindSceneBatch, Identity: "scene:001"}
}

func TestExecuteSucceedsFirstAttempt(t *testing.T) {
	policy := retry.Policy{MaxRetries: 3, Sleep: noSleep}
	calls := 0
	attempt := policy.Execute(context.Background(), testUnit(), func(context.Context) error {
		calls++
		return nil
	})
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if attempt.Outcome != job.OutcomeSuccess || attempt.Number != 1 {
		t.Fatalf("unexpected attempt %+v", attempt)
	}
	if attempt.Escalated {
		t.Fatal("successful attempt must not be escalated")
	}
}

func TestExecuteRetriesTransientThenSucceeds(t *testing.T) {
	policy := retry.Policy{MaxRetries: 3, Delay: time.Second, Sleep: noSleep}
	calls := 0
	attempt := policy.Execute(context.Background(), testUnit(), func(context.Context) error {
		calls++
		if calls <= 3 {
			return services.Wrap(services.ErrTransient, "scenes", "generate", "download stalled", nil)
		}
		return nil
	})
	if calls != 4 {
		t.Fatalf("expected max_retries+1 = 4 calls, got %d", calls)
	}
	if attempt.Outcome != job.OutcomeSuccess || attempt.Number != 4 {
		t.Fatalf("unexpected terminal attempt %+v", attempt)
	}
}

func TestExecuteEscalatesAfterExhaustion(t *testing.T) {
	var observed []job.Attempt
	policy := retry.Policy{
		MaxRetries: 3,
		Delay:      time.Second,
		Sleep:      noSleep,
		OnAttempt:  func(a job.Attempt) { observed = append(observed, a) },
	}
	calls := 0
	attempt := policy.Execute(context.Background(), testUnit(), func(context.Context) error {
		calls++
		return services.Wrap(services.ErrTimeout, "scenes", "download", "no file appeared", nil)
	})
	if calls != 4 {
		t.Fatalf("expected 4 calls, got %d", calls)
	}
	if attempt.Outcome != job.OutcomeTransient || !attempt.Escalated {
		t.Fatalf("expected escalated transient terminal attempt, got %+v", attempt)
	}
	if len(observed) != 4 {
		t.Fatalf("expected 4 observed attempts, got %d", len(observed))
	}
	for i, a := range observed {
		if a.Number != i+1 {
			t.Fatalf("attempt numbers must be sequential, got %+v", observed)
		}
	}
}

func TestExecuteFatalStopsImmediately(t *testing.T) {
	policy := retry.Policy{MaxRetries: 3, Sleep: noSleep}
	calls := 0
	attempt := policy.Execute(context.Background(), testUnit(), func(context.Context) error {
		calls++
		return services.Wrap(services.ErrValidation, "scenes", "prompt", "scene has no prompt", nil)
	})
	if calls != 1 {
		t.Fatalf("fatal error must not retry, got %d calls", calls)
	}
	if attempt.Outcome != job.OutcomeFatal || attempt.Escalated {
		t.Fatalf("unexpected attempt %+v", attempt)
	}
}

func TestExecuteUnclassifiedErrorIsTransient(t *testing.T) {
	policy := retry.Policy{MaxRetries: 1, Sleep: noSleep}
	calls := 0
	attempt := policy.Execute(context.Background(), testUnit(), func(context.Context) error {
		calls++
		return errors.New("something odd")
	})
	if calls != 2 {
		t.Fatalf("unclassified errors retry, got %d calls", calls)
	}
	if attempt.Outcome != job.OutcomeTransient {
		t.Fatalf("unexpected outcome %q", attempt.Outcome)
	}
}

func TestExecuteHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := retry.Policy{MaxRetries: 3, Sleep: noSleep}
	calls := 0
	attempt := policy.Execute(ctx, testUnit(), func(context.Context) error {
		calls++
		return nil
	})
	if calls != 0 {
		t.Fatalf("cancelled context must not invoke the action, got %d calls", calls)
	}
	if attempt.Outcome != job.OutcomeFatal {
		t.Fatalf("cancellation is terminal, got %+v", attempt)
	}
}

func TestExecuteLinearDelayGrowth(t *testing.T) {
	var delays []time.Duration
	policy := retry.Policy{
		MaxRetries: 3,
		Delay:      time.Second,
		Linear:     true,
		Sleep: func(_ context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		},
	}
	policy.Execute(context.Background(), testUnit(), func(context.Context) error {
		return services.Wrap(services.ErrTransient, "scenes", "generate", "flaky", nil)
	})
	want := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("expected %d sleeps, got %v", len(want), delays)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Fatalf("expected delays %v, got %v", want, delays)
		}
	}
}
