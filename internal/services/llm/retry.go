package llm

import (
	"context"
	"math/rand"
	"regexp"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"
)

// RetryConfig defines retry behavior for provider calls.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first.
	MaxAttempts int

	// InitialBackoff is the base wait before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff caps the wait between retries.
	MaxBackoff time.Duration

	// Multiplier is applied to the backoff on each retry.
	Multiplier float64

	// Jitter adds up to 25% random slack to each wait so concurrent
	// callers don't retry in lockstep.
	Jitter bool
}

// NewDefaultRetryConfig returns the standard pipeline retry budget:
// three attempts with 1s exponential backoff capped at a minute.
func NewDefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		MaxBackoff:     time.Minute,
		Multiplier:     2.0,
		Jitter:         true,
	}
}

// retryDelayRegex matches "Please retry in Xs" or "retryDelay:Xs" patterns
var retryDelayRegex = regexp.MustCompile(`(?i)(?:Please retry in |retryDelay[:\s]+)(\d+(?:\.\d+)?)\s*s`)

// ExtractRetryDelay parses the API-suggested retry delay from a provider
// error. Returns 0 if no delay is found in the error message.
//
// Example error message:
// "Error 429, Message: ... Please retry in 45.387061394s., Status: RESOURCE_EXHAUSTED"
func ExtractRetryDelay(err error) time.Duration {
	if err == nil {
		return 0
	}

	matches := retryDelayRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0
	}

	seconds, parseErr := strconv.ParseFloat(matches[1], 64)
	if parseErr != nil {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}

// Backoff computes the wait before retry number `retry` (1-based).
// An API-provided delay overrides the exponential base.
func (c RetryConfig) Backoff(retry int, apiDelay time.Duration) time.Duration {
	base := c.InitialBackoff
	if apiDelay > 0 {
		base = apiDelay
	}

	multiplier := 1.0
	for i := 1; i < retry; i++ {
		multiplier *= c.Multiplier
	}

	backoff := time.Duration(float64(base) * multiplier)
	if backoff > c.MaxBackoff {
		backoff = c.MaxBackoff
	}
	if c.Jitter {
		backoff += time.Duration(rand.Int63n(int64(backoff)/4 + 1))
	}
	return backoff
}

// Do runs fn up to MaxAttempts times, backing off between attempts.
// Non-retryable errors and context cancellation end the loop early.
func (c RetryConfig) Do(ctx context.Context, logger arbor.ILogger, op string, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= c.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) || attempt == c.MaxAttempts {
			break
		}

		wait := c.Backoff(attempt, ExtractRetryDelay(lastErr))
		logger.Warn().
			Str("operation", op).
			Int("attempt", attempt).
			Int("max_attempts", c.MaxAttempts).
			Dur("backoff", wait).
			Err(lastErr).
			Msg("Provider call failed, retrying")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}
