package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/comigor/portfolio-assistant/internal/config"
)

func openAIConfig(baseURL, key string) config.ProviderConfig {
	return config.ProviderConfig{
		APIKey:           key,
		BaseURL:          baseURL,
		Model:            "gpt-3.5-turbo",
		MaxTokens:        200,
		Temperature:      0.7,
		PresencePenalty:  0.1,
		FrequencyPenalty: 0.1,
	}
}

func TestWindow(t *testing.T) {
	var turns []Turn
	for i := range 10 {
		turns = append(turns, Turn{Role: RoleUser, Content: string(rune('a' + i))})
	}

	w := Window(turns, 6)
	require.Len(t, w, 6)
	require.Equal(t, "e", w[0].Content)
	require.Equal(t, "j", w[5].Content)

	w[0].Content = "changed"
	require.Equal(t, "e", turns[4].Content, "window is a copy")

	require.Len(t, Window(turns[:3], 6), 3)
	require.Nil(t, Window(nil, 6))
	require.Nil(t, Window(turns, 0))
}

func TestOpenAI_Complete(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  Chirag knows React.  "},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	a := NewOpenAI(openAIConfig(srv.URL+"/v1", "sk-test"))
	require.True(t, a.Available())

	history := []Turn{{Role: RoleUser, Content: "hi"}, {Role: RoleAssistant, Content: "hello"}}
	text, err := a.Complete(context.Background(), "SYSTEM", history, "skills?")
	require.NoError(t, err)
	require.Equal(t, "Chirag knows React.", text)

	require.Equal(t, "gpt-3.5-turbo", got.Model)
	require.Equal(t, 200, got.MaxTokens)
	require.InDelta(t, 0.7, got.Temperature, 1e-6)
	require.InDelta(t, 0.1, got.PresencePenalty, 1e-6)
	require.InDelta(t, 0.1, got.FrequencyPenalty, 1e-6)
	require.Len(t, got.Messages, 4)
	require.Equal(t, openai.ChatMessageRoleSystem, got.Messages[0].Role)
	require.Equal(t, "SYSTEM", got.Messages[0].Content)
	require.Equal(t, openai.ChatMessageRoleAssistant, got.Messages[2].Role)
	require.Equal(t, "skills?", got.Messages[3].Content)
}

func TestOpenAI_NoKeyMakesNoRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	a := NewOpenAI(openAIConfig(srv.URL, ""))
	require.False(t, a.Available())

	_, err := a.Complete(context.Background(), "s", nil, "hi")
	require.ErrorIs(t, err, ErrCredentialMissing)
	require.Zero(t, hits.Load())
}

func TestOpenAI_ErrorClassification(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down","type":"requests"}}`, ErrRateLimited},
		{"server error", http.StatusInternalServerError, `{"error":{"message":"boom","type":"server_error"}}`, ErrProvider},
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key","type":"invalid_request_error"}}`, ErrProvider},
		{"no choices", http.StatusOK, `{"id":"c1","choices":[]}`, ErrEmptyResponse},
		{"blank content", http.StatusOK, `{"id":"c1","choices":[{"index":0,"message":{"role":"assistant","content":"   "}}]}`, ErrEmptyResponse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewOpenAI(openAIConfig(srv.URL, "sk")).Complete(context.Background(), "s", nil, "hi")
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestOpenAI_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewOpenAI(openAIConfig(url, "sk")).Complete(context.Background(), "s", nil, "hi")
	require.ErrorIs(t, err, ErrNetwork)
}

type fakeGenerator struct {
	prompt string
	model  string
	resp   *genai.GenerateContentResponse
	err    error
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func geminiResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func TestGeminiPrompt(t *testing.T) {
	history := []Turn{{Role: RoleUser, Content: "hi"}, {Role: RoleAssistant, Content: "hello"}}
	got := GeminiPrompt("SYS", history, "skills?")
	require.Equal(t, "SYS\n\nConversation History:\nUser: hi\nAssistant: hello\n\nUser: skills?\n\nAssistant:", got)
}

func TestGemini_Complete(t *testing.T) {
	f := &fakeGenerator{resp: geminiResponse("He builds web apps.")}
	a := NewGeminiWithClient(f, config.ProviderConfig{Model: "gemini-1.5-flash", MaxTokens: 200, Temperature: 0.7})
	require.True(t, a.Available())
	require.Equal(t, ProviderGemini, a.Provider())

	text, err := a.Complete(context.Background(), "SYS", nil, "what?")
	require.NoError(t, err)
	require.Equal(t, "He builds web apps.", text)
	require.Equal(t, "gemini-1.5-flash", f.model)
	require.Contains(t, f.prompt, "User: what?")
}

func TestGemini_Errors(t *testing.T) {
	cases := []struct {
		name string
		f    *fakeGenerator
		want error
	}{
		{"empty text", &fakeGenerator{resp: geminiResponse("")}, ErrEmptyResponse},
		{"nil response", &fakeGenerator{}, ErrEmptyResponse},
		{"quota", &fakeGenerator{err: genai.APIError{Code: 429, Message: "quota", Status: "RESOURCE_EXHAUSTED"}}, ErrRateLimited},
		{"wrapped quota", &fakeGenerator{err: fmt.Errorf("generate: %w", genai.APIError{Code: 429})}, ErrRateLimited},
		{"bad request", &fakeGenerator{err: genai.APIError{Code: 400, Message: "bad request"}}, ErrProvider},
		{"untyped", &fakeGenerator{err: errors.New("Error 429 mentioned in text")}, ErrProvider},
		{"deadline", &fakeGenerator{err: context.DeadlineExceeded}, ErrNetwork},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewGeminiWithClient(tc.f, config.ProviderConfig{Model: "m"}).Complete(context.Background(), "s", nil, "u")
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestGemini_NoKey(t *testing.T) {
	a, err := NewGemini(context.Background(), config.ProviderConfig{})
	require.NoError(t, err)
	require.False(t, a.Available())

	_, err = a.Complete(context.Background(), "s", nil, "u")
	require.ErrorIs(t, err, ErrCredentialMissing)
}

func TestGemini_OverHTTP(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Remote answer"}]}}]}`))
	}))
	defer srv.Close()

	a, err := NewGemini(context.Background(), config.ProviderConfig{APIKey: "g-key", BaseURL: srv.URL + "/", Model: "gemini-1.5-flash", MaxTokens: 200})
	require.NoError(t, err)

	text, err := a.Complete(context.Background(), "SYS", nil, "hello")
	require.NoError(t, err)
	require.Equal(t, "Remote answer", text)
	require.EqualValues(t, 1, hits.Load())
}

func TestGemini_RateLimitedOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	a, err := NewGemini(context.Background(), config.ProviderConfig{APIKey: "g-key", BaseURL: srv.URL + "/", Model: "gemini-1.5-flash"})
	require.NoError(t, err)

	_, err = a.Complete(context.Background(), "SYS", nil, "hello")
	require.ErrorIs(t, err, ErrRateLimited)
}

func TestNew_SelectsProvider(t *testing.T) {
	ctx := context.Background()

	c, err := New(ctx, config.LLMConfig{Provider: "auto"})
	require.NoError(t, err)
	require.Equal(t, ProviderOpenAI, c.Provider())
	require.False(t, c.Available())

	c, err = New(ctx, config.LLMConfig{Provider: "auto", Gemini: config.ProviderConfig{APIKey: "g"}})
	require.NoError(t, err)
	require.Equal(t, ProviderGemini, c.Provider())
	require.True(t, c.Available())

	c, err = New(ctx, config.LLMConfig{Provider: "OpenAI", OpenAI: config.ProviderConfig{APIKey: "o"}, Gemini: config.ProviderConfig{APIKey: "g"}})
	require.NoError(t, err)
	require.Equal(t, ProviderOpenAI, c.Provider())

	_, err = New(ctx, config.LLMConfig{Provider: "claude"})
	require.Error(t, err)
}
