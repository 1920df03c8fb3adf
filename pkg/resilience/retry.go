// Package resilience provides the retry-with-backoff and circuit-breaker
// primitives shared by the Tool Executor (spec §4.9) and the Broker
// (spec §4.10). Retry is grounded on resilience/retry.go's cancellable
// exponential backoff loop; CircuitBreaker is a smaller closed/open/
// half-open state machine in the same spirit as the CircuitBreaker
// embedded in pkg/orchestration/orchestrator.go, sized to what the
// executor and broker actually need rather than the teacher's full
// sliding-window implementation.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrMaxRetriesExceeded is returned by Retry when fn never succeeds.
var ErrMaxRetriesExceeded = errors.New("max retry attempts exceeded")

// Config configures Retry's backoff schedule.
type Config struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterEnabled bool
}

// DefaultConfig mirrors the teacher's sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}
}

// Retry runs fn up to config.MaxAttempts times, sleeping an exponentially
// growing, optionally jittered delay between attempts. It returns
// immediately on success or on ctx cancellation.
func Retry(ctx context.Context, config Config, fn func() error) error {
	if config.MaxAttempts <= 0 {
		config = DefaultConfig()
	}

	var lastErr error
	delay := config.InitialDelay

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == config.MaxAttempts {
			break
		}

		if attempt > 1 {
			delay = time.Duration(float64(delay) * config.BackoffFactor)
			if delay > config.MaxDelay {
				delay = config.MaxDelay
			}
		}

		if config.JitterEnabled {
			jitter := time.Duration(float64(delay) * 0.1 * math.Sin(float64(attempt)))
			delay += jitter
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("%w after %d attempts: %v", ErrMaxRetriesExceeded, config.MaxAttempts, lastErr)
}

// BoundedBackoff computes min(base*2^attempt, cap) — the formula used
// directly by the Tool Executor (spec §4.9) and the Broker (spec §4.10)
// for their own retry loops, which don't go through Retry because they
// need to observe and react to each attempt's result (cache writes,
// peer load adjustments) between tries.
func BoundedBackoff(base time.Duration, attempt int, cap time.Duration) time.Duration {
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if d > cap {
		return cap
	}
	return d
}
