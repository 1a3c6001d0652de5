package config

import (
	"os"
	"testing"
	"time"
)

const sampleConfig = `
llm:
  provider: gemini
  gemini:
    api_key: dummy
    model: gemini-test
server:
  port: "9090"
  admin_token: secret
chat:
  history_window: 4
  session_ttl: 5m
  greet_fallback: true
profile:
  name: Ada
  role: Engineer
  skills: ["Go", "SQL"]
  projects:
    - name: Engine
      description: Analytical engine
      tech: ["brass"]
  contact:
    github: https://github.com/ada
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	tmp, err := os.CreateTemp(t.TempDir(), "cfg-*.yaml")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	if _, err := tmp.WriteString(body); err != nil {
		t.Fatalf("write: %v", err)
	}
	tmp.Close()
	return tmp.Name()
}

// TestLoad_File verifies that Load unmarshals the file named by CONFIG_PATH.
func TestLoad_File(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, sampleConfig))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.Provider != "gemini" || cfg.LLM.Gemini.APIKey != "dummy" || cfg.LLM.Gemini.Model != "gemini-test" {
		t.Fatalf("unexpected llm config: %+v", cfg.LLM)
	}
	if cfg.Server.Port != "9090" || cfg.Server.AdminToken != "secret" {
		t.Fatalf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Chat.HistoryWindow != 4 || cfg.Chat.SessionTTL != 5*time.Minute || !cfg.Chat.GreetFallback {
		t.Fatalf("unexpected chat config: %+v", cfg.Chat)
	}
	// defaults survive for keys the file does not mention
	if cfg.LLM.OpenAI.Model != "gpt-3.5-turbo" || cfg.Voice.Speaker != "arjun" {
		t.Fatalf("defaults lost: %+v %+v", cfg.LLM.OpenAI, cfg.Voice)
	}

	p := cfg.ProfileOrDefault()
	if p.Name != "Ada" || len(p.Skills) != 2 || p.Projects[0].Tech[0] != "brass" {
		t.Fatalf("unexpected profile: %+v", p)
	}
	if p.Contact["github"] != "https://github.com/ada" {
		t.Fatalf("contact not parsed: %v", p.Contact)
	}
}

// TestLoad_Defaults verifies the built-in values when no file is present.
func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Chat.HistoryWindow != 6 {
		t.Fatalf("history window = %d, want 6", cfg.Chat.HistoryWindow)
	}
	if cfg.LLM.OpenAI.MaxTokens != 200 || cfg.LLM.OpenAI.Temperature != 0.7 {
		t.Fatalf("unexpected openai defaults: %+v", cfg.LLM.OpenAI)
	}
	if cfg.Voice.SampleRate != 8000 || cfg.Voice.MaxChars != 500 || cfg.Voice.TTSModel != "bulbul:v1" {
		t.Fatalf("unexpected voice defaults: %+v", cfg.Voice)
	}
	if cfg.History.DSN != ":memory:" {
		t.Fatalf("dsn = %q", cfg.History.DSN)
	}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Fatalf("addr = %q", cfg.Addr())
	}
	if cfg.ProfileOrDefault().Name != "Chirag" {
		t.Fatalf("expected built-in profile")
	}
}

// TestLoad_EnvAliases verifies the provider key variables are honoured.
func TestLoad_EnvAliases(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("VITE_OPENAI_API_KEY", "sk-vite")
	t.Setenv("SARVAM_API_KEY", "sarvam")
	t.Setenv("PORTFOLIO_CHAT_HISTORY_WINDOW", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.OpenAI.APIKey != "sk-vite" {
		t.Fatalf("openai key = %q", cfg.LLM.OpenAI.APIKey)
	}
	if cfg.Voice.APIKey != "sarvam" {
		t.Fatalf("voice key = %q", cfg.Voice.APIKey)
	}
	if cfg.Chat.HistoryWindow != 10 {
		t.Fatalf("history window = %d", cfg.Chat.HistoryWindow)
	}
}

// TestLoad_MissingExplicitFile verifies an explicit path must exist.
func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := LoadFile("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}
