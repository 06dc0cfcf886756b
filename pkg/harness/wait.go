package harness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
)

// Default bounds for Await.
const (
	DefaultWaitTimeout  = 5 * time.Second
	DefaultPollInterval = 100 * time.Millisecond
)

// WaitOptions bounds a single Await call.
type WaitOptions struct {
	Timeout     time.Duration
	Interval    time.Duration
	Description string
}

func (o WaitOptions) withDefaults() WaitOptions {
	if o.Timeout <= 0 {
		o.Timeout = DefaultWaitTimeout
	}
	if o.Interval <= 0 {
		o.Interval = DefaultPollInterval
	}
	if o.Interval > o.Timeout {
		o.Interval = o.Timeout
	}
	if o.Description == "" {
		o.Description = "condition"
	}
	return o
}

// Condition reports whether the awaited state has been reached. A non-nil
// error stops the wait immediately.
type Condition func(ctx context.Context) (bool, error)

var errNotYet = errors.New("condition not met")

// Await evaluates cond immediately and then every Interval until it holds,
// Timeout elapses or ctx is done. Expiry is reported as a timing Failure.
func Await(ctx context.Context, opts WaitOptions, cond Condition) error {
	opts = opts.withDefaults()
	start := time.Now()
	attempts := 0

	backoff := retry.WithMaxDuration(opts.Timeout, retry.NewConstant(opts.Interval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		ok, err := cond(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return retry.RetryableError(errNotYet)
		}
		return nil
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, errNotYet), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		cause := err
		if errors.Is(err, errNotYet) {
			cause = nil
		}
		return Timing(fmt.Sprintf("timed out waiting for %s", opts.Description), cause).
			WithDetail("timeout", opts.Timeout.String()).
			WithDetail("elapsed", time.Since(start).Round(time.Millisecond).String()).
			WithDetail("attempts", attempts)
	default:
		return err
	}
}
