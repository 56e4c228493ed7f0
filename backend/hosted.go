package backend

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/chapterwise/chapterwise"
)

// HostedConfig holds configuration for the hosted backend.
type HostedConfig struct {
	APIKey      string  // API key (required)
	Model       string  // Default model (default: "gpt-4o-mini")
	Temperature float32 // Sampling temperature (default: 0.3)
	BaseURL     string  // Custom base URL for OpenAI-compatible servers
}

// HostedBackend translates single sentences through a hosted chat completion
// API. It deliberately skips the marker protocol: the service is instructed
// to answer with the bare translation, so there is nothing to parse and no
// glossary to learn.
type HostedBackend struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewHostedBackend creates a hosted backend.
func NewHostedBackend(cfg HostedConfig) *HostedBackend {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	return &HostedBackend{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
	}
}

// Name implements Backend.
func (b *HostedBackend) Name() string {
	return "hosted"
}

// TranslateSentence implements DirectTranslator.
func (b *HostedBackend) TranslateSentence(ctx context.Context, sentence, model, targetLang string) (string, error) {
	if model == "" {
		model = b.model
	}

	targetName := chapterwise.LanguageName(targetLang)
	system := fmt.Sprintf(
		"You are a literary translator. Translate the user's text to %s. Output only the translation, nothing else.",
		targetName,
	)

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: sentence},
		},
		Temperature: b.temperature,
	})
	if err != nil {
		return "", &chapterwise.BackendError{
			Backend:   b.Name(),
			Message:   "chat completion failed",
			Cause:     err,
			Retryable: isRetryableError(err),
		}
	}

	if len(resp.Choices) == 0 {
		return "", &chapterwise.BackendError{
			Backend:   b.Name(),
			Message:   "empty response",
			Retryable: true,
		}
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func isRetryableError(err error) bool {
	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"rate limit",
		"timeout",
		"connection refused",
		"temporary",
		"503",
		"502",
		"429",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

var _ chapterwise.DirectTranslator = (*HostedBackend)(nil)
