package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetrier(attempts int) *Retrier {
	return New(
		WithMaxAttempts(attempts),
		WithInitialDelay(time.Millisecond),
		WithMaxDelay(2*time.Millisecond),
		WithJitter(0),
	)
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := fastRetrier(3).Do(context.Background(), func(_ context.Context) error {
		calls++
		if calls < 3 {
			return Retryable(errors.New("transient"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustionReturnsUnwrappedError(t *testing.T) {
	base := errors.New("still down")
	calls := 0
	err := fastRetrier(2).Do(context.Background(), func(_ context.Context) error {
		calls++
		return Retryable(base)
	})

	assert.Equal(t, base, err)
	assert.Equal(t, 2, calls)
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	base := errors.New("logged out")
	calls := 0
	err := fastRetrier(5).Do(context.Background(), func(_ context.Context) error {
		calls++
		return Permanent(base)
	})

	assert.Equal(t, base, err)
	assert.Equal(t, 1, calls)
}

func TestDo_UnmarkedErrorIsNotRetried(t *testing.T) {
	calls := 0
	err := fastRetrier(5).Do(context.Background(), func(_ context.Context) error {
		calls++
		return errors.New("plain failure")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := fastRetrier(3).Do(ctx, func(_ context.Context) error {
		t.Fatal("operation must not run with a dead context")
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestErrorMarks(t *testing.T) {
	base := errors.New("x")

	assert.True(t, IsRetryable(Retryable(base)))
	assert.True(t, IsPermanent(Permanent(base)))
	assert.False(t, IsRetryable(base))
	assert.ErrorIs(t, Retryable(base), base)

	assert.NoError(t, Retryable(nil))
	assert.NoError(t, Permanent(nil))
}

func TestBackoff_CapAndGrowth(t *testing.T) {
	r := New(
		WithInitialDelay(10*time.Millisecond),
		WithMaxDelay(25*time.Millisecond),
		WithMultiplier(2.0),
		WithJitter(0),
	)

	assert.Equal(t, 10*time.Millisecond, r.backoff(1))
	assert.Equal(t, 20*time.Millisecond, r.backoff(2))
	assert.Equal(t, 25*time.Millisecond, r.backoff(3), "capped at max delay")
}
