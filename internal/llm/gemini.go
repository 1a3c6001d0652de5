package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"google.golang.org/genai"

	"github.com/comigor/portfolio-assistant/internal/config"
)

const ProviderGemini = "gemini"

// ContentGenerator is the subset of genai.Models used here.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiAdapter sends one concatenated prompt per request (see GeminiPrompt).
type GeminiAdapter struct {
	models ContentGenerator
	cfg    config.ProviderConfig
}

// NewGemini creates an adapter on the Gemini API backend. Without an API key
// no client is built and every Complete fails with ErrCredentialMissing.
func NewGemini(ctx context.Context, cfg config.ProviderConfig) (*GeminiAdapter, error) {
	if cfg.APIKey == "" {
		return &GeminiAdapter{cfg: cfg}, nil
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	return &GeminiAdapter{models: client.Models, cfg: cfg}, nil
}

// NewGeminiWithClient wraps an existing generator.
func NewGeminiWithClient(g ContentGenerator, cfg config.ProviderConfig) *GeminiAdapter {
	return &GeminiAdapter{models: g, cfg: cfg}
}

func (a *GeminiAdapter) Provider() string { return ProviderGemini }

func (a *GeminiAdapter) Available() bool { return a.models != nil }

func (a *GeminiAdapter) Complete(ctx context.Context, systemPrompt string, history []Turn, userMessage string) (string, error) {
	if a.models == nil {
		return "", fmt.Errorf("gemini: %w", ErrCredentialMissing)
	}

	temp := a.cfg.Temperature
	gc := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(a.cfg.MaxTokens),
	}

	res, err := a.models.GenerateContent(ctx, a.cfg.Model, genai.Text(GeminiPrompt(systemPrompt, history, userMessage)), gc)
	if err != nil {
		return "", classifyGemini(err)
	}
	if res == nil {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	text := strings.TrimSpace(res.Text())
	if text == "" {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	return text, nil
}

// GeminiPrompt flattens the conversation into the single text prompt the
// Gemini adapter sends.
func GeminiPrompt(systemPrompt string, history []Turn, userMessage string) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\nConversation History:\n")
	for i, t := range history {
		if i > 0 {
			b.WriteString("\n")
		}
		if t.Role == RoleAssistant {
			b.WriteString("Assistant: ")
		} else {
			b.WriteString("User: ")
		}
		b.WriteString(t.Content)
	}
	b.WriteString("\n\nUser: ")
	b.WriteString(userMessage)
	b.WriteString("\n\nAssistant:")
	return b.String()
}

func classifyGemini(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("gemini: %w: %w", ErrNetwork, err)
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return fmt.Errorf("gemini: %w: %w", ErrRateLimited, err)
	}
	return fmt.Errorf("gemini: %w: %w", ErrProvider, err)
}
