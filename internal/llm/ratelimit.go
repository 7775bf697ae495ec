package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// newRateLimiter creates a limiter allowing requestsPerMinute requests with a
// burst of one so calls are spread evenly across the minute.
func newRateLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
}

// waitForToken blocks until the limiter admits a request or ctx is done.
func waitForToken(ctx context.Context, limiter *rate.Limiter) error {
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter canceled: %w", err)
	}
	return nil
}
