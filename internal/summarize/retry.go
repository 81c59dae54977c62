package summarize

import (
	"errors"
	"math/rand/v2"
	"time"
)

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// RetryConfig tunes how retryable LLM errors are retried.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration // first delay, doubled on each attempt
	MaxDelay   time.Duration // cap before jitter; zero means uncapped
	Jitter     float64       // random extra, as a fraction of the delay
}

// DefaultRetryConfig retries three times starting at one second.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		Jitter:     0.5,
	}
}

// Backoff returns the delay before retry attempt n (0-indexed).
func (c RetryConfig) Backoff(attempt int) time.Duration {
	d := c.BaseDelay
	for i := 0; i < attempt && (c.MaxDelay <= 0 || d < c.MaxDelay); i++ {
		d *= 2
	}
	if c.MaxDelay > 0 && d > c.MaxDelay {
		d = c.MaxDelay
	}
	if c.Jitter > 0 && d > 0 {
		d += time.Duration(rand.Float64() * c.Jitter * float64(d))
	}
	return d
}
