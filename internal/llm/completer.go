package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/invoice-mapper/internal/common"
	"github.com/Veraticus/invoice-mapper/internal/model"
	"golang.org/x/time/rate"
)

// Completer sends mapping requests to a provider with rate limiting and
// retries on transport failures. It never inspects or repairs the output.
type Completer struct {
	client      Client
	logger      *slog.Logger
	rateLimiter *rate.Limiter
	retryOpts   common.RetryOptions
}

// NewCompleter creates a completer for the configured provider.
func NewCompleter(cfg Config, logger *slog.Logger) (*Completer, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return NewCompleterWithClient(client, cfg, logger), nil
}

// NewCompleterWithClient wraps an existing client.
func NewCompleterWithClient(client Client, cfg Config, logger *slog.Logger) *Completer {
	if logger == nil {
		logger = slog.Default()
	}

	retryOpts := common.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &Completer{
		client:      client,
		logger:      logger,
		retryOpts:   retryOpts,
		rateLimiter: newRateLimiter(cfg.RateLimit),
	}
}

// Complete returns the raw completion text for req.
func (c *Completer) Complete(ctx context.Context, req model.CompletionRequest) (string, error) {
	var raw string
	err := common.WithRetry(ctx, func() error {
		if err := waitForToken(ctx, c.rateLimiter); err != nil {
			return err
		}

		start := time.Now()
		text, err := c.client.Complete(ctx, req)
		if err != nil {
			return err
		}

		c.logger.Debug("completion received",
			"chars", len(text),
			"duration", time.Since(start))
		raw = text
		return nil
	}, c.retryOpts)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrCompletionUnavailable, err)
	}

	return raw, nil
}
