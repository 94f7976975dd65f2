package services

import (
	"context"
	"time"
)

// backoffDelay computes the delay before retry number attempt (0-based):
// base doubling per attempt, capped.
func backoffDelay(base, cap time.Duration, attempt int) time.Duration {
	delay := base
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= cap {
			return cap
		}
	}
	if delay > cap {
		return cap
	}
	return delay
}

// sleepBackoff waits for the computed delay or until ctx is cancelled.
func sleepBackoff(ctx context.Context, base, cap time.Duration, attempt int) error {
	timer := time.NewTimer(backoffDelay(base, cap, attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
