package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

// testExecutor returns an executor with no real sleeping and zero
// jitter, recording every wait it was asked for.
func testExecutor(waits *[]time.Duration) *Executor {
	e := New()
	e.Sleep = func(_ context.Context, d time.Duration) {
		*waits = append(*waits, d)
	}
	e.Jitter = func() time.Duration { return 0 }
	return e
}

func TestRunSucceedsFirstAttempt(t *testing.T) {
	var waits []time.Duration
	e := testExecutor(&waits)

	calls := 0
	err := e.Run(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if len(waits) != 0 {
		t.Errorf("expected no waits, got %v", waits)
	}
}

func TestRunRetriesTransientThenSucceeds(t *testing.T) {
	var waits []time.Duration
	e := testExecutor(&waits)

	calls := 0
	err := e.Run(context.Background(), func(ctx context.Context) error {
		calls++
		if calls <= 2 {
			return errors.New("connection reset by peer")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	// Backoff doubles: 1s before retry 1, 2s before retry 2.
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(waits) != len(want) {
		t.Fatalf("expected %d waits, got %v", len(want), waits)
	}
	for i := range want {
		if waits[i] != want[i] {
			t.Errorf("wait[%d] = %v, want %v", i, waits[i], want[i])
		}
	}
}

func TestRunNonRetryableFailsImmediately(t *testing.T) {
	var waits []time.Duration
	e := testExecutor(&waits)

	calls := 0
	err := e.Run(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("404 Not Found")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if len(waits) != 0 {
		t.Errorf("expected no waits, got %v", waits)
	}
}

func TestRunExhaustsBudgetReturnsLastError(t *testing.T) {
	var waits []time.Duration
	e := testExecutor(&waits)
	e.Policy.Retries = 2

	calls := 0
	err := e.Run(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("still broken")
	})
	if err == nil || err.Error() != "still broken" {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls (1 + 2 retries), got %d", calls)
	}
	if len(waits) != 2 {
		t.Errorf("expected 2 waits, got %v", waits)
	}
}

func TestRunRateLimitedUsesRetryAfterHint(t *testing.T) {
	var waits []time.Duration
	e := testExecutor(&waits)

	calls := 0
	err := e.Run(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("rate limit exceeded, retry-after: 7")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(waits) != 1 || waits[0] != 7*time.Second {
		t.Errorf("expected one 7s wait, got %v", waits)
	}
}

func TestRunJitterAddedToTransientWait(t *testing.T) {
	var waits []time.Duration
	e := testExecutor(&waits)
	e.Jitter = func() time.Duration { return 250 * time.Millisecond }

	calls := 0
	_ = e.Run(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("transient")
		}
		return nil
	})
	if len(waits) != 1 || waits[0] != time.Second+250*time.Millisecond {
		t.Errorf("expected 1.25s wait, got %v", waits)
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := New()
	calls := 0
	err := e.Run(ctx, func(ctx context.Context) error {
		calls++
		return nil
	})
	if err == nil {
		t.Fatal("expected context error")
	}
	if calls != 0 {
		t.Errorf("expected no calls, got %d", calls)
	}
}

func TestTransition(t *testing.T) {
	p := Policy{Retries: 5, BaseDelay: time.Second}

	tests := []struct {
		name      string
		attempt   int
		err       error
		jitter    time.Duration
		wantState State
		wantWait  time.Duration
	}{
		{"transient first", 0, errors.New("boom"), 0, StateWaiting, time.Second},
		{"transient second", 1, errors.New("boom"), 0, StateWaiting, 2 * time.Second},
		{"transient third with jitter", 2, errors.New("boom"), 100 * time.Millisecond, StateWaiting, 4*time.Second + 100*time.Millisecond},
		{"transient exhausted", 5, errors.New("boom"), 0, StateFailed, 0},
		{"non-retryable", 0, errors.New("404 Not Found"), 0, StateFailed, 0},
		{"rate limited fallback first", 0, errors.New("403 Forbidden"), 0, StateRateLimited, 2 * time.Second},
		{"rate limited fallback second", 1, errors.New("403 Forbidden"), 0, StateRateLimited, 4 * time.Second},
		{"rate limited hint", 0, errors.New("rate limit, retry-after: 12"), 0, StateRateLimited, 12 * time.Second},
		{"rate limited exhausted", 5, errors.New("403 Forbidden"), 0, StateFailed, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, wait := Transition(p, tt.attempt, tt.err, tt.jitter)
			if state != tt.wantState {
				t.Errorf("state = %v, want %v", state, tt.wantState)
			}
			if wait != tt.wantWait {
				t.Errorf("wait = %v, want %v", wait, tt.wantWait)
			}
		})
	}
}

func TestGet(t *testing.T) {
	var waits []time.Duration
	e := testExecutor(&waits)

	calls := 0
	got, err := Get(context.Background(), e, func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("flaky")
		}
		return "value", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "value" {
		t.Errorf("got %q, want %q", got, "value")
	}
}

func TestGetNonRetryable(t *testing.T) {
	var waits []time.Duration
	e := testExecutor(&waits)

	got, err := Get(context.Background(), e, func(ctx context.Context) (int, error) {
		return 0, errors.New("401 Bad credentials")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if got != 0 {
		t.Errorf("expected zero value, got %d", got)
	}
}
