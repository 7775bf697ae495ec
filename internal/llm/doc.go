// Package llm builds mapping prompts, talks to chat completion providers and
// validates their output. It supports OpenAI and Anthropic, with retry logic
// for transport failures and request rate limiting.
package llm
