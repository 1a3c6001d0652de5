package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/comigor/portfolio-assistant/internal/config"
)

const ProviderOpenAI = "openai"

// ChatCompleter is the subset of openai.Client used here; it is easy to mock
// in tests.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIAdapter sends the system prompt, windowed history and user message
// as a chat-completions request.
type OpenAIAdapter struct {
	client ChatCompleter
	cfg    config.ProviderConfig
}

// NewOpenAI creates an adapter. Without an API key no client is built and
// every Complete fails with ErrCredentialMissing.
func NewOpenAI(cfg config.ProviderConfig) *OpenAIAdapter {
	if cfg.APIKey == "" {
		return &OpenAIAdapter{cfg: cfg}
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &OpenAIAdapter{client: openai.NewClientWithConfig(oc), cfg: cfg}
}

// NewOpenAIWithClient wraps an existing completer.
func NewOpenAIWithClient(c ChatCompleter, cfg config.ProviderConfig) *OpenAIAdapter {
	return &OpenAIAdapter{client: c, cfg: cfg}
}

func (a *OpenAIAdapter) Provider() string { return ProviderOpenAI }

func (a *OpenAIAdapter) Available() bool { return a.client != nil }

func (a *OpenAIAdapter) Complete(ctx context.Context, systemPrompt string, history []Turn, userMessage string) (string, error) {
	if a.client == nil {
		return "", fmt.Errorf("openai: %w", ErrCredentialMissing)
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	for _, t := range history {
		role := openai.ChatMessageRoleUser
		if t.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: t.Content})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: userMessage})

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:            a.cfg.Model,
		Messages:         msgs,
		MaxTokens:        a.cfg.MaxTokens,
		Temperature:      a.cfg.Temperature,
		PresencePenalty:  a.cfg.PresencePenalty,
		FrequencyPenalty: a.cfg.FrequencyPenalty,
	})
	if err != nil {
		return "", classifyOpenAI(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: %w: no choices", ErrEmptyResponse)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("openai: %w", ErrEmptyResponse)
	}
	return text, nil
}

func classifyOpenAI(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	default:
		return fmt.Errorf("openai: %w: %w", ErrNetwork, err)
	}
	if status == http.StatusTooManyRequests {
		return fmt.Errorf("openai: %w: %w", ErrRateLimited, err)
	}
	return fmt.Errorf("openai: %w: %w", ErrProvider, err)
}
