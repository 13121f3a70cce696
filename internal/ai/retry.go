package ai

import (
	"context"
	"errors"
	"time"

	"github.com/critique-dev/critique/internal/domain"
)

// transientError wraps a failure that is worth retrying: timeouts, 5xx
// responses and rate-limit signals from the service.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func transient(err error) error {
	return &transientError{err: err}
}

func isTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// retryState is one phase of a call's retry lifecycle.
type retryState int

const (
	stateIdle retryState = iota
	stateAttempting
	stateBackoff
	stateSuccess
	stateExhausted
)

// Retryer drives an operation through an explicit retry state machine
// with exponential backoff. Non-transient errors end the run immediately;
// transient ones back off until maxAttempts is spent.
type Retryer struct {
	maxAttempts int
	baseDelay   time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewRetryer builds a Retryer. maxAttempts below one is treated as one.
func NewRetryer(maxAttempts int, baseDelay time.Duration) *Retryer {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return &Retryer{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		sleep:       sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do runs fn until it succeeds, fails permanently, or attempts are
// exhausted. Exhaustion surfaces as a *domain.ServiceError wrapping the
// last transient failure. Cancellation during backoff returns ctx.Err().
func (r *Retryer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	state := stateIdle
	attempt := 0
	var lastErr error

	for {
		switch state {
		case stateIdle:
			state = stateAttempting

		case stateAttempting:
			if err := ctx.Err(); err != nil {
				return err
			}
			attempt++
			lastErr = fn(ctx)
			switch {
			case lastErr == nil:
				state = stateSuccess
			case !isTransient(lastErr):
				return lastErr
			case attempt >= r.maxAttempts:
				state = stateExhausted
			default:
				state = stateBackoff
			}

		case stateBackoff:
			delay := r.baseDelay * time.Duration(1<<uint(attempt-1))
			if err := r.sleep(ctx, delay); err != nil {
				return err
			}
			state = stateAttempting

		case stateSuccess:
			return nil

		case stateExhausted:
			return &domain.ServiceError{Attempts: attempt, Last: lastErr}
		}
	}
}
