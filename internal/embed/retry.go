package embed

import (
	"context"
	"time"
)

// RetryConfig configures exponential backoff for a retried operation.
type RetryConfig struct {
	MaxRetries   int           // retry attempts beyond the initial try
	InitialDelay time.Duration // delay before the first retry
	MaxDelay     time.Duration // cap on backoff delay
	Multiplier   float64       // backoff growth factor
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     4 * time.Second,
		Multiplier:   2.0,
	}
}

// withRetry runs fn with exponential backoff, retrying up to cfg.MaxRetries
// times. It stops immediately on context cancellation and does not retry
// once fn returns a *Error of kind ProviderUnconfigured, since retrying a
// configuration problem cannot succeed.
func withRetry(ctx context.Context, cfg RetryConfig, fn func(attempt int) error) error {
	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err
		if IsKind(err, KindProviderUnconfigured) {
			return err
		}
		if attempt >= cfg.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return lastErr
}
