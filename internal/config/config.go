package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/comigor/portfolio-assistant/internal/profile"
)

// Config holds the application configuration
type Config struct {
	Server  ServerConfig     `mapstructure:"server"`
	Log     LogConfig        `mapstructure:"log"`
	LLM     LLMConfig        `mapstructure:"llm"`
	Voice   VoiceConfig      `mapstructure:"voice"`
	Chat    ChatConfig       `mapstructure:"chat"`
	History HistoryConfig    `mapstructure:"history"`
	Profile *profile.Profile `mapstructure:"profile"`
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Host       string `mapstructure:"host"`
	Port       string `mapstructure:"port"`
	AdminToken string `mapstructure:"admin_token"`
}

// LogConfig holds the logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// LLMConfig selects and configures the remote model provider.
// Provider is one of "openai", "gemini" or "auto".
type LLMConfig struct {
	Provider string         `mapstructure:"provider"`
	OpenAI   ProviderConfig `mapstructure:"openai"`
	Gemini   ProviderConfig `mapstructure:"gemini"`
}

// ProviderConfig holds the settings shared by all chat-completion providers.
type ProviderConfig struct {
	APIKey           string  `mapstructure:"api_key"`
	BaseURL          string  `mapstructure:"base_url"`
	Model            string  `mapstructure:"model"`
	MaxTokens        int     `mapstructure:"max_tokens"`
	Temperature      float32 `mapstructure:"temperature"`
	PresencePenalty  float32 `mapstructure:"presence_penalty"`
	FrequencyPenalty float32 `mapstructure:"frequency_penalty"`
}

// VoiceConfig holds the Sarvam text-to-speech / speech-to-text settings.
type VoiceConfig struct {
	APIKey        string  `mapstructure:"api_key"`
	BaseURL       string  `mapstructure:"base_url"`
	Language      string  `mapstructure:"language"`
	Speaker       string  `mapstructure:"speaker"`
	Pitch         float64 `mapstructure:"pitch"`
	Pace          float64 `mapstructure:"pace"`
	Loudness      float64 `mapstructure:"loudness"`
	SampleRate    int     `mapstructure:"sample_rate"`
	Preprocessing bool    `mapstructure:"preprocessing"`
	TTSModel      string  `mapstructure:"tts_model"`
	STTModel      string  `mapstructure:"stt_model"`
	MaxChars      int     `mapstructure:"max_chars"`
	AutoSpeak     bool    `mapstructure:"auto_speak"`
}

// ChatConfig holds session behaviour.
type ChatConfig struct {
	HistoryWindow int           `mapstructure:"history_window"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	Greeting      string        `mapstructure:"greeting"`
	// GreetFallback lets the keyword fallback answer hellos.
	GreetFallback bool `mapstructure:"greet_fallback"`
}

// HistoryConfig holds the transcript log settings. The default DSN keeps the
// log in memory.
type HistoryConfig struct {
	DSN string `mapstructure:"dsn"`
}

// envAliases maps config keys to the conventional variable names used by the
// provider SDKs and the original web build.
var envAliases = map[string][]string{
	"llm.openai.api_key": {"OPENAI_API_KEY", "VITE_OPENAI_API_KEY"},
	"llm.gemini.api_key": {"GEMINI_API_KEY", "VITE_GEMINI_API_KEY"},
	"voice.api_key":      {"SARVAM_API_KEY", "VITE_SARVAM_API_KEY"},
	"server.port":        {"PORT"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("log.level", "info")

	v.SetDefault("llm.provider", "auto")
	v.SetDefault("llm.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.openai.model", "gpt-3.5-turbo")
	v.SetDefault("llm.openai.max_tokens", 200)
	v.SetDefault("llm.openai.temperature", 0.7)
	v.SetDefault("llm.openai.presence_penalty", 0.1)
	v.SetDefault("llm.openai.frequency_penalty", 0.1)
	v.SetDefault("llm.gemini.model", "gemini-1.5-flash")
	v.SetDefault("llm.gemini.max_tokens", 200)
	v.SetDefault("llm.gemini.temperature", 0.7)

	v.SetDefault("voice.base_url", "https://api.sarvam.ai")
	v.SetDefault("voice.language", "en-IN")
	v.SetDefault("voice.speaker", "arjun")
	v.SetDefault("voice.pitch", 0)
	v.SetDefault("voice.pace", 1.0)
	v.SetDefault("voice.loudness", 1.0)
	v.SetDefault("voice.sample_rate", 8000)
	v.SetDefault("voice.preprocessing", true)
	v.SetDefault("voice.tts_model", "bulbul:v1")
	v.SetDefault("voice.stt_model", "saarika:v2")
	v.SetDefault("voice.max_chars", 500)
	v.SetDefault("voice.auto_speak", true)

	v.SetDefault("chat.history_window", 6)
	v.SetDefault("chat.session_ttl", 30*time.Minute)
	v.SetDefault("chat.sweep_interval", time.Minute)
	v.SetDefault("chat.greeting", "")
	v.SetDefault("chat.greet_fallback", false)

	v.SetDefault("history.dsn", ":memory:")
}

// Load reads config.yaml (from CONFIG_PATH, ".", or "./config") and applies
// PORTFOLIO_* environment overrides. A missing file is not an error.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("CONFIG_PATH"))
}

// LoadFile is Load with an explicit config path; an empty path searches the
// default locations.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("PORTFOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		args := append([]string{key, "PORTFOLIO_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, names...)
		if err := v.BindEnv(args...); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ProfileOrDefault returns the configured profile, or the built-in one.
func (c *Config) ProfileOrDefault() profile.Profile {
	if c.Profile == nil || c.Profile.Name == "" {
		return profile.Default()
	}
	return c.Profile.Clone()
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}
