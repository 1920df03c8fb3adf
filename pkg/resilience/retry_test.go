package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetry_SucceedsWithoutExhaustingAttempts(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), Config{MaxAttempts: 5, InitialDelay: time.Millisecond}, func() error {
		calls++
		if calls == 2 {
			return nil
		}
		return errors.New("transient")
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetry_ReturnsWrappedErrorAfterExhaustion(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), Config{MaxAttempts: 3, InitialDelay: time.Millisecond}, func() error {
		calls++
		return errors.New("boom")
	})
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxRetriesExceeded)
	assert.Equal(t, 3, calls)
}

func TestRetry_RespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, Config{MaxAttempts: 5, InitialDelay: time.Millisecond}, func() error {
		return errors.New("should not matter")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBoundedBackoff_CapsAtMax(t *testing.T) {
	d := BoundedBackoff(1000*time.Millisecond, 10, 10*time.Second)
	assert.Equal(t, 10*time.Second, d)
}

func TestBoundedBackoff_GrowsExponentially(t *testing.T) {
	d0 := BoundedBackoff(time.Second, 0, time.Minute)
	d1 := BoundedBackoff(time.Second, 1, time.Minute)
	assert.Equal(t, time.Second, d0)
	assert.Equal(t, 2*time.Second, d1)
}
