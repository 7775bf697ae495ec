package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/invoice-mapper/internal/common"
	"github.com/Veraticus/invoice-mapper/internal/llm"
)

// LoadLLMConfig builds the completer configuration. API keys fall back to
// OPENAI_API_KEY and ANTHROPIC_API_KEY.
func LoadLLMConfig() (llm.Config, error) {
	provider := viper.GetString("llm.provider")
	if provider == "" {
		provider = llm.ProviderOpenAI
	}

	config := llm.Config{
		Provider:   provider,
		Model:      viper.GetString("llm.model"),
		BaseURL:    viper.GetString("llm.base_url"),
		MaxTokens:  viper.GetInt("llm.max_tokens"),
		MaxRetries: viper.GetInt("llm.max_retries"),
		RetryDelay: viper.GetDuration("llm.retry_delay"),
		Timeout:    viper.GetDuration("llm.timeout"),
		RateLimit:  viper.GetInt("llm.rate_limit"),
	}

	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 60 // requests per minute
	}

	switch provider {
	case llm.ProviderOpenAI:
		config.APIKey = firstNonEmpty(viper.GetString("llm.openai_api_key"), os.Getenv("OPENAI_API_KEY"))
		if config.APIKey == "" {
			return llm.Config{}, fmt.Errorf("%w: OpenAI API key not found in config or OPENAI_API_KEY environment variable", common.ErrMissingConfig)
		}
		if config.Model == "" {
			config.Model = llm.DefaultOpenAIModel
		}

	case llm.ProviderAnthropic:
		config.APIKey = firstNonEmpty(viper.GetString("llm.anthropic_api_key"), os.Getenv("ANTHROPIC_API_KEY"))
		if config.APIKey == "" {
			return llm.Config{}, fmt.Errorf("%w: anthropic API key not found in config or ANTHROPIC_API_KEY environment variable", common.ErrMissingConfig)
		}
		if config.Model == "" {
			config.Model = llm.DefaultAnthropicModel
		}

	default:
		return llm.Config{}, fmt.Errorf("%w: unsupported LLM provider: %s", common.ErrInvalidConfig, provider)
	}

	return config, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
