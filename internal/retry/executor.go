// Package retry executes external calls with classification-aware
// retries: transient failures back off exponentially, rate-limited
// failures wait for the quota window, auth and not-found failures
// surface immediately.
package retry

import (
	"context"
	"math/rand"
	"time"

	"github.com/adoptersbot/adopters/internal/log"
)

// State is one node of the retry state machine.
type State int

const (
	// StateAttempting means a call is in flight.
	StateAttempting State = iota
	// StateWaiting means the executor is backing off before a transient retry.
	StateWaiting
	// StateRateLimited means the executor is waiting out a quota window.
	StateRateLimited
	// StateFailed is terminal: the last error is surfaced to the caller.
	StateFailed
	// StateSucceeded is terminal: the call completed.
	StateSucceeded
)

// Policy holds the retry budget and backoff base.
type Policy struct {
	Retries   int           // additional attempts after the first (default 5)
	BaseDelay time.Duration // backoff base (default 1s)
}

// DefaultPolicy returns the standard retry policy: 5 retries, 1s base.
func DefaultPolicy() Policy {
	return Policy{Retries: 5, BaseDelay: time.Second}
}

// maxJitter bounds the uniform jitter added to transient backoff.
const maxJitter = 500 * time.Millisecond

// Transition is the pure retry state machine. Given the policy, the
// zero-based index of the attempt that just failed, the failure, and a
// pre-sampled jitter value, it returns the next state and how long to
// wait before re-entering StateAttempting. Jitter is sampled by the
// caller so the transition stays deterministic under test.
//
// The transient backoff before retry k (1-based) is base*2^(k-1)+jitter.
// The rate-limit fallback uses the raw attempt count, one doubling
// ahead of the transient curve; a retry-after hint in the error text
// overrides it.
func Transition(p Policy, attempt int, err error, jitter time.Duration) (State, time.Duration) {
	switch Classify(err) {
	case ClassNonRetryable:
		return StateFailed, 0
	case ClassRateLimited:
		if attempt >= p.Retries {
			return StateFailed, 0
		}
		if d, ok := parseRetryAfter(ErrorText(err)); ok {
			return StateRateLimited, d
		}
		return StateRateLimited, p.BaseDelay * (1 << (attempt + 1))
	default:
		if attempt >= p.Retries {
			return StateFailed, 0
		}
		return StateWaiting, p.BaseDelay*(1<<attempt) + jitter
	}
}

// Executor runs external calls under a retry policy. Call, sleep, and
// jitter are injectable so timing and outcomes are fully controllable
// under test.
type Executor struct {
	Policy  Policy
	Timeout time.Duration // per-attempt timeout; 0 disables

	// Sleep blocks for the given duration. Defaults to a
	// context-aware time.Sleep.
	Sleep func(ctx context.Context, d time.Duration)
	// Jitter samples the transient backoff jitter, uniform in
	// [0, 500ms). Defaults to math/rand.
	Jitter func() time.Duration
}

// New returns an Executor with the default policy and timing functions.
func New() *Executor {
	return &Executor{
		Policy:  DefaultPolicy(),
		Timeout: 30 * time.Second,
	}
}

func (e *Executor) sleep(ctx context.Context, d time.Duration) {
	if e.Sleep != nil {
		e.Sleep(ctx, d)
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (e *Executor) jitter() time.Duration {
	if e.Jitter != nil {
		return e.Jitter()
	}
	return time.Duration(rand.Int63n(int64(maxJitter)))
}

// Run executes call until it succeeds, fails non-retryably, or the
// retry budget is exhausted, in which case the last error is returned.
// No wait precedes the first attempt. Each attempt receives a context
// bounded by the per-attempt timeout.
func (e *Executor) Run(ctx context.Context, call func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= e.Policy.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		err := e.attempt(ctx, call)
		if err == nil {
			return nil
		}
		lastErr = err

		state, wait := Transition(e.Policy, attempt, err, e.jitter())
		if state == StateFailed {
			return lastErr
		}
		log.Debug("call failed, retrying",
			"attempt", attempt+1,
			"class", Classify(err).String(),
			"wait", wait,
			"error", err)
		e.sleep(ctx, wait)
	}
	return lastErr
}

func (e *Executor) attempt(ctx context.Context, call func(ctx context.Context) error) error {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}
	return call(ctx)
}

// Get runs call under the executor's retry policy and returns its result.
func Get[T any](ctx context.Context, e *Executor, call func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := e.Run(ctx, func(ctx context.Context) error {
		v, err := call(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
