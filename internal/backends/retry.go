// internal/backends/retry.go
package backends

import (
	"context"
	"time"
)

// Retry defaults: two extra attempts with a half-second backoff base.
const (
	DefaultRetries = 2
	DefaultBackoff = 500 * time.Millisecond
)

// RetryPolicy wraps one logical "send request" operation with a bounded
// retry budget and linear backoff. Only transient failures are retried;
// malformed responses surface immediately.
type RetryPolicy struct {
	// Retries is the number of extra attempts after the first.
	Retries int
	// Backoff is multiplied by the attempt index for each sleep.
	Backoff time.Duration

	// sleep is a test seam; nil means time.Sleep.
	sleep func(time.Duration)
}

// DefaultRetryPolicy returns the policy adapters use for buffered requests.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Retries: DefaultRetries, Backoff: DefaultBackoff}
}

// Do invokes fn until it succeeds or the budget is exhausted, sleeping
// Backoff*attemptIndex between attempts. The last error is returned without
// a trailing sleep.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	sleep := p.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var last error
	for attempt := 0; attempt <= p.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		last = fn()
		if last == nil {
			return nil
		}
		if !IsTransient(last) || attempt == p.Retries {
			return last
		}
		sleep(p.Backoff * time.Duration(attempt+1))
	}
	return last
}
