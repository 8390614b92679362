package fault

import (
	"context"
	"time"

	"github.com/studyforge/studyforge-backend/internal/pkg/httpx"
)

type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration

	// ShouldRetry overrides the default transient-only classification.
	ShouldRetry func(error) bool

	// Sleep is swappable for tests; nil means time.Sleep with jitter.
	Sleep func(time.Duration)
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     10 * time.Second,
	}
}

// Retry runs fn up to MaxRetries+1 times, doubling the delay between
// attempts up to MaxDelay. Non-retryable errors propagate immediately.
func Retry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.InitialDelay <= 0 {
		policy.InitialDelay = 1 * time.Second
	}
	shouldRetry := policy.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = IsTransient
	}
	sleep := policy.Sleep
	if sleep == nil {
		sleep = func(d time.Duration) { time.Sleep(httpx.JitterSleep(d)) }
	}

	backoff := policy.InitialDelay
	var last error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		last = fn()
		if last == nil {
			return nil
		}
		if !shouldRetry(last) {
			return last
		}
		if attempt == policy.MaxRetries {
			break
		}
		sleep(backoff)
		backoff *= 2
		if policy.MaxDelay > 0 && backoff > policy.MaxDelay {
			backoff = policy.MaxDelay
		}
	}
	return last
}
