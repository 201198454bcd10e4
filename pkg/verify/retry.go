package verify

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy bounds the backoff the orchestrator applies to store errors.
// Rate-limit and replay errors are never retried (spec.md §7); only
// transport/connection-class store failures are.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy matches the "bounded backoff" language of spec.md §7
// without making the orchestrator block for long on a degraded store.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 3,
	BaseDelay:   20 * time.Millisecond,
	MaxDelay:    200 * time.Millisecond,
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.BaseDelay << attempt
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(d)/2 + 1))
	return d/2 + jitter
}

// withRetry calls fn up to policy.MaxAttempts times, sleeping a jittered
// backoff between attempts, stopping early if ctx is done or shouldRetry
// says the error is not retryable.
func withRetry(ctx context.Context, policy RetryPolicy, m *Metrics, shouldRetry func(error) bool, fn func() error) error {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	var err error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		err = fn()
		if err == nil || !shouldRetry(err) {
			return err
		}
		if attempt == policy.MaxAttempts-1 {
			return err
		}
		m.incStoreRetry()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(policy.delay(attempt)):
		}
	}
	return err
}
