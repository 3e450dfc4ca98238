package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowLimiterAllowsBurst(t *testing.T) {
	l := newWindowLimiter(5, time.Second)

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond, "first window fills without blocking")
}

func TestWindowLimiterDelaysSixth(t *testing.T) {
	const window = 300 * time.Millisecond
	l := newWindowLimiter(5, window)

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
	require.NoError(t, l.Wait(context.Background()))
	elapsed := time.Since(start)

	// The sixth submission waits out the remainder of the window opened by
	// the first.
	assert.GreaterOrEqual(t, elapsed, window-20*time.Millisecond)
	assert.Less(t, elapsed, 2*window)
}

func TestWindowLimiterSlidesForward(t *testing.T) {
	const window = 200 * time.Millisecond
	l := newWindowLimiter(2, window)

	require.NoError(t, l.Wait(context.Background()))
	require.NoError(t, l.Wait(context.Background()))

	time.Sleep(window + 20*time.Millisecond)

	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))
	assert.Less(t, time.Since(start), 50*time.Millisecond, "aged-out stamps free the window")
}

func TestWindowLimiterHonoursContext(t *testing.T) {
	l := newWindowLimiter(1, time.Minute)
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
