package llm

import (
	"context"
	"time"

	"github.com/Veraticus/invoice-mapper/internal/model"
)

// Client defines the interface for LLM providers.
// Implementations send a system and a user message with temperature pinned at
// zero and return the raw text of the first choice.
type Client interface {
	Complete(ctx context.Context, req model.CompletionRequest) (string, error)
}

// Config holds configuration for the LLM completer.
type Config struct {
	Provider   string
	APIKey     string
	Model      string
	BaseURL    string
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
	RateLimit  int
	MaxTokens  int
}

// Provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Default models per provider.
const (
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
	defaultMaxTokens      = 4096
	defaultTimeout        = 2 * time.Minute
)
