package sqlite

import (
	"math/rand/v2"
	"strings"
	"time"
)

// retryConfig controls exponential backoff on "database is locked" errors.
type retryConfig struct {
	maxRetries int
	baseDelay  time.Duration
	jitterPct  float64
}

func defaultRetryConfig() retryConfig {
	return retryConfig{maxRetries: 5, baseDelay: 25 * time.Millisecond, jitterPct: 0.25}
}

// RetryOnDBLock retries fn with backoff while it returns a lock error.
// Any other error is returned immediately.
func RetryOnDBLock(fn func() error) error {
	return retryOnDBLock(defaultRetryConfig(), fn, time.Sleep)
}

func retryOnDBLock(cfg retryConfig, fn func() error, sleep func(time.Duration)) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !isDBLocked(err) || attempt == cfg.maxRetries {
			return err
		}
		delay := cfg.baseDelay * (1 << attempt)
		jitter := time.Duration(float64(delay) * rand.Float64() * cfg.jitterPct)
		sleep(delay + jitter)
	}
}

func isDBLocked(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "database is locked")
}
