package monitor

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrier_SucceedsFirstTry(t *testing.T) {
	r := fastRetrier(t, 3)

	calls := 0
	err := r.Do(context.Background(), "noop", func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetrier_RecoversAfterFailures(t *testing.T) {
	r := fastRetrier(t, 5)

	calls := 0
	err := r.Do(context.Background(), "flaky", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetrier_ExhaustionAfterMaxRetriesPlusOne(t *testing.T) {
	r := fastRetrier(t, 4)

	calls := 0
	cause := errors.New("persistent")
	err := r.Do(context.Background(), "doomed", func(ctx context.Context) error {
		calls++
		return cause
	})

	require.Error(t, err)
	assert.Equal(t, 5, calls, "maxRetries retries means maxRetries+1 invocations")

	var ex *ExhaustedError
	require.ErrorAs(t, err, &ex)
	assert.Equal(t, "doomed", ex.Action)
	assert.Equal(t, 5, ex.Attempts)
	assert.ErrorIs(t, err, cause, "last cause stays unwrappable")
	assert.True(t, IsExhausted(err))
}

func TestRetrier_ZeroRetriesMeansSingleAttempt(t *testing.T) {
	r := fastRetrier(t, 0)

	calls := 0
	err := r.Do(context.Background(), "once", func(ctx context.Context) error {
		calls++
		return errors.New("nope")
	})

	assert.Equal(t, 1, calls)
	assert.True(t, IsExhausted(err))
}

func TestRetrier_ContextCancelDuringBackoff(t *testing.T) {
	r := NewRetrier(5, time.Hour, time.Hour, 2.0, nil, testLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- r.Do(ctx, "slow", func(ctx context.Context) error {
			return errors.New("fail")
		})
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, IsExhausted(err), "cancellation is not exhaustion")
	case <-time.After(5 * time.Second):
		t.Fatal("Do did not return after context cancellation")
	}
}

func TestRetrier_BackoffGrowsAndCaps(t *testing.T) {
	// Observe waits indirectly through wall-clock spacing of attempts using
	// tiny units so the test stays fast. initial=1ms, factor=4, cap=4ms:
	// waits should be 1ms, 4ms, 4ms.
	r := NewRetrier(3, time.Millisecond, 4*time.Millisecond, 4.0, nil, testLogger(t))

	var stamps []time.Time
	_ = r.Do(context.Background(), "timed", func(ctx context.Context) error {
		stamps = append(stamps, time.Now())
		return errors.New("fail")
	})

	require.Len(t, stamps, 4)
	// Later gaps must never exceed the cap by a wide margin. Generous upper
	// bounds keep this stable on loaded CI hosts; the key property is that
	// the third gap did not grow to 16ms-order.
	gap3 := stamps[3].Sub(stamps[2])
	assert.GreaterOrEqual(t, gap3, 4*time.Millisecond)
	assert.Less(t, gap3, 500*time.Millisecond)
}

func TestRetrier_WritesDurableLogPerAttempt(t *testing.T) {
	dir := t.TempDir()
	errlog, err := NewErrorLog(dir, "scrape-log", testLogger(t))
	require.NoError(t, err)

	// 2ms spacing keeps the millisecond-resolution log file names distinct.
	r := NewRetrier(2, 2*time.Millisecond, 2*time.Millisecond, 1.0, errlog, testLogger(t))
	_ = r.Do(context.Background(), "logged", func(ctx context.Context) error {
		return errors.New("fail")
	})

	// 2 retries = 3 attempts = 3 durable log files.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	for _, e := range entries {
		assert.Contains(t, e.Name(), "scrape-log-action-error-")
	}
}

func TestRetryValue(t *testing.T) {
	r := fastRetrier(t, 2)

	calls := 0
	v, err := RetryValue(context.Background(), r, "value", func(ctx context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", errors.New("not yet")
		}
		return "payload", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "payload", v)

	_, err = RetryValue(context.Background(), r, "never", func(ctx context.Context) (int, error) {
		return 0, errors.New("always")
	})
	assert.True(t, IsExhausted(err))
}
