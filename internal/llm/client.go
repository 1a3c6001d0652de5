// Package llm talks to the remote chat-completion providers. Every provider
// sits behind Client; callers never see provider types.
package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/comigor/portfolio-assistant/internal/config"
	"github.com/comigor/portfolio-assistant/internal/logger"
)

// Role of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one prior message as sent to a provider.
type Turn struct {
	Role    Role
	Content string
}

var (
	// ErrCredentialMissing is returned without any network I/O when the
	// adapter was built without an API key.
	ErrCredentialMissing = errors.New("credential missing")
	ErrRateLimited       = errors.New("rate limited")
	ErrProvider          = errors.New("provider error")
	ErrEmptyResponse     = errors.New("empty response")
	ErrNetwork           = errors.New("network error")
)

// Client is the remote model seen by the chat session. Implementations never
// retry.
type Client interface {
	Provider() string
	Available() bool
	Complete(ctx context.Context, systemPrompt string, history []Turn, userMessage string) (string, error)
}

// Window returns the trailing n turns, oldest first, as a new slice.
func Window(turns []Turn, n int) []Turn {
	if n <= 0 || len(turns) == 0 {
		return nil
	}
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// New builds the client selected by cfg.Provider. "auto" picks the first
// provider with a credential and otherwise returns an OpenAI adapter without
// a key, which is permanently unavailable.
func New(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" || provider == "auto" {
		switch {
		case cfg.OpenAI.APIKey != "":
			provider = ProviderOpenAI
		case cfg.Gemini.APIKey != "":
			provider = ProviderGemini
		default:
			provider = ProviderOpenAI
		}
	}

	var (
		c   Client
		err error
	)
	switch provider {
	case ProviderOpenAI:
		c = NewOpenAI(cfg.OpenAI)
	case ProviderGemini:
		c, err = NewGemini(ctx, cfg.Gemini)
	default:
		return nil, errors.New("llm: unknown provider " + cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	logger.L.Info("LLM client ready", "provider", c.Provider(), "available", c.Available())
	return c, nil
}
