package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ExhaustedError is returned when an action keeps failing after every
// allowed attempt. It wraps the last underlying error.
type ExhaustedError struct {
	Action   string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("action %q failed after %d attempts: %v", e.Action, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// IsExhausted reports whether err is (or wraps) an ExhaustedError.
func IsExhausted(err error) bool {
	var ex *ExhaustedError
	return errors.As(err, &ex)
}

// Retrier re-runs a fallible action with exponential backoff. Each retry
// re-runs the whole action from scratch. Every failed attempt is written to
// the durable error log before any delay.
type Retrier struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64

	errlog *ErrorLog
	logger *zap.Logger
}

// NewRetrier creates a retry executor. errlog may be nil in tests.
func NewRetrier(maxRetries int, initial, max time.Duration, factor float64, errlog *ErrorLog, logger *zap.Logger) *Retrier {
	return &Retrier{
		MaxRetries:    maxRetries,
		InitialDelay:  initial,
		MaxDelay:      max,
		BackoffFactor: factor,
		errlog:        errlog,
		logger:        logger,
	}
}

// Do runs fn until it succeeds or MaxRetries retries are exhausted, meaning
// at most MaxRetries+1 invocations. The delay between attempts grows by
// BackoffFactor per round and never exceeds MaxDelay. The wait is cancelled
// by ctx, in which case the context error is returned.
func (r *Retrier) Do(ctx context.Context, description string, fn func(ctx context.Context) error) error {
	delay := min(r.InitialDelay, r.MaxDelay)

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		if r.errlog != nil {
			r.errlog.ActionFailure(description, attempt, err)
		}

		if attempt >= r.MaxRetries {
			return &ExhaustedError{Action: description, Attempts: attempt + 1, Err: err}
		}

		r.logger.Warn("action failed, retrying",
			zap.String("action", description),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = min(time.Duration(float64(delay)*r.BackoffFactor), r.MaxDelay)
	}
}

// RetryValue is Do for actions that produce a value.
func RetryValue[T any](ctx context.Context, r *Retrier, description string, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := r.Do(ctx, description, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
