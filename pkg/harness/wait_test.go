package harness

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwaitSucceedsAfterPolling(t *testing.T) {
	calls := 0
	err := Await(context.Background(), WaitOptions{Timeout: time.Second, Interval: time.Millisecond}, func(ctx context.Context) (bool, error) {
		calls++
		return calls == 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestAwaitImmediateSuccessDoesNotSleep(t *testing.T) {
	start := time.Now()
	err := Await(context.Background(), WaitOptions{Timeout: time.Second, Interval: 500 * time.Millisecond}, func(ctx context.Context) (bool, error) {
		return true, nil
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 250*time.Millisecond)
}

func TestAwaitTimeout(t *testing.T) {
	calls := 0
	err := Await(context.Background(), WaitOptions{Timeout: 50 * time.Millisecond, Interval: 10 * time.Millisecond, Description: "password field"},
		func(ctx context.Context) (bool, error) {
			calls++
			return false, nil
		})
	require.Error(t, err)

	var failure *Failure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, KindTiming, failure.Kind)
	assert.Equal(t, "timed out waiting for password field", failure.Message)
	assert.Equal(t, calls, failure.Details["attempts"])
	assert.Greater(t, calls, 1)
	assert.Nil(t, failure.Err)
}

func TestAwaitStopsOnError(t *testing.T) {
	boom := errors.New("page crashed")
	calls := 0
	err := Await(context.Background(), WaitOptions{Timeout: time.Second, Interval: time.Millisecond}, func(ctx context.Context) (bool, error) {
		calls++
		return false, boom
	})
	assert.Equal(t, boom, err)
	assert.Equal(t, 1, calls)
}

func TestAwaitContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Await(ctx, WaitOptions{Timeout: time.Second}, func(ctx context.Context) (bool, error) {
		return true, nil
	})
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindTiming, kind)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestWaitOptionsDefaults(t *testing.T) {
	opts := WaitOptions{}.withDefaults()
	assert.Equal(t, DefaultWaitTimeout, opts.Timeout)
	assert.Equal(t, DefaultPollInterval, opts.Interval)
	assert.Equal(t, "condition", opts.Description)

	opts = WaitOptions{Timeout: 10 * time.Millisecond, Interval: time.Second}.withDefaults()
	assert.Equal(t, 10*time.Millisecond, opts.Interval)
}
