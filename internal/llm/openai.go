package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/Veraticus/invoice-mapper/internal/common"
	"github.com/Veraticus/invoice-mapper/internal/model"
	"github.com/sashabaranov/go-openai"
)

// zeroTemperature stands in for 0 because the request type drops a literal
// zero as an omitted field, which the API reads as its default of 1.
const zeroTemperature = math.SmallestNonzeroFloat32

// openAIClient implements the Client interface for the OpenAI chat API.
type openAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// newOpenAIClient creates a new OpenAI API client.
func newOpenAIClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is required", common.ErrMissingConfig)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeoutOrDefault(cfg.Timeout)}

	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultOpenAIModel
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	return &openAIClient{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     modelName,
		maxTokens: maxTokens,
	}, nil
}

// Complete sends a chat completion request constrained to a JSON object response.
func (c *openAIClient) Complete(ctx context.Context, req model.CompletionRequest) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: req.System,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.User,
			},
		},
		Temperature: zeroTemperature,
		MaxTokens:   c.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenAI response")
	}

	return resp.Choices[0].Message.Content, nil
}

// classifyOpenAIError marks throttling and server errors as retryable.
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &common.RetryableError{
			Err:       fmt.Errorf("openai API error (status %d): %w", apiErr.HTTPStatusCode, err),
			Retryable: retryableStatus(apiErr.HTTPStatusCode),
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &common.RetryableError{
			Err:       fmt.Errorf("openai request error (status %d): %w", reqErr.HTTPStatusCode, err),
			Retryable: retryableStatus(reqErr.HTTPStatusCode),
		}
	}

	return fmt.Errorf("openai request failed: %w", err)
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultTimeout
	}
	return d
}
