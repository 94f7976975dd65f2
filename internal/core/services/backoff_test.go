package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelay_DoublesPerAttempt(t *testing.T) {
	base := 100 * time.Millisecond
	cap := 10 * time.Second

	assert.Equal(t, 100*time.Millisecond, backoffDelay(base, cap, 0))
	assert.Equal(t, 200*time.Millisecond, backoffDelay(base, cap, 1))
	assert.Equal(t, 400*time.Millisecond, backoffDelay(base, cap, 2))
	assert.Equal(t, 800*time.Millisecond, backoffDelay(base, cap, 3))
}

func TestBackoffDelay_Capped(t *testing.T) {
	base := time.Second
	cap := 3 * time.Second

	assert.Equal(t, 3*time.Second, backoffDelay(base, cap, 5))
	assert.Equal(t, 3*time.Second, backoffDelay(base, cap, 50))
}

func TestSleepBackoff_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sleepBackoff(ctx, time.Hour, time.Hour, 0)

	assert.ErrorIs(t, err, context.Canceled)
}
