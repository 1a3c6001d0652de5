// Package voice is the speech bridge to a Sarvam-compatible TTS/STT API.
package voice

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/comigor/portfolio-assistant/internal/config"
	"github.com/comigor/portfolio-assistant/internal/logger"
)

var (
	ErrUnavailable   = errors.New("voice unavailable")
	ErrProvider      = errors.New("voice provider error")
	ErrNoSpeech      = errors.New("no speech recognized")
	ErrEmptyText     = errors.New("nothing to synthesize")
	ErrAlreadyPlayed = errors.New("audio already played")
)

// transcriptKeys are tried in order; the first non-empty string wins.
var transcriptKeys = [][]string{
	{"transcript"},
	{"text"},
	{"result"},
	{"data", "transcript"},
	{"data", "text"},
}

// Bridge converts text to speech and speech to text. Whether it is enabled
// is decided once, from the API key it was built with.
type Bridge struct {
	cfg  config.VoiceConfig
	http *http.Client
}

// New returns a Bridge using a default HTTP client.
func New(cfg config.VoiceConfig) *Bridge {
	return NewWithHTTPClient(cfg, &http.Client{Timeout: 30 * time.Second})
}

// NewWithHTTPClient returns a Bridge that sends requests through hc.
func NewWithHTTPClient(cfg config.VoiceConfig, hc *http.Client) *Bridge {
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = 500
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 8000
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Bridge{cfg: cfg, http: hc}
}

// Enabled reports whether the bridge has a credential.
func (b *Bridge) Enabled() bool { return b != nil && b.cfg.APIKey != "" }

// AutoSpeak reports whether replies should be synthesized without being asked.
func (b *Bridge) AutoSpeak() bool { return b.Enabled() && b.cfg.AutoSpeak }

type ttsRequest struct {
	Inputs              []string `json:"inputs"`
	TargetLanguageCode  string   `json:"target_language_code"`
	Speaker             string   `json:"speaker"`
	Pitch               float64  `json:"pitch"`
	Pace                float64  `json:"pace"`
	Loudness            float64  `json:"loudness"`
	SpeechSampleRate    int      `json:"speech_sample_rate"`
	EnablePreprocessing bool     `json:"enable_preprocessing"`
	Model               string   `json:"model"`
}

type ttsResponse struct {
	Audios []string `json:"audios"`
}

// Truncate shortens text to max runes, marking the cut with "...".
func Truncate(text string, max int) string {
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	return string(r[:max]) + "..."
}

// Synthesize turns text into a playable WAV clip.
func (b *Bridge) Synthesize(ctx context.Context, text string) (*Audio, error) {
	if !b.Enabled() {
		return nil, ErrUnavailable
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	text = Truncate(text, b.cfg.MaxChars)

	body, err := json.Marshal(ttsRequest{
		Inputs:              []string{text},
		TargetLanguageCode:  b.cfg.Language,
		Speaker:             b.cfg.Speaker,
		Pitch:               b.cfg.Pitch,
		Pace:                b.cfg.Pace,
		Loudness:            b.cfg.Loudness,
		SpeechSampleRate:    b.cfg.SampleRate,
		EnablePreprocessing: b.cfg.Preprocessing,
		Model:               b.cfg.TTSModel,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding tts request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.BaseURL+"/text-to-speech", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProvider, err)
	}
	req.Header.Set("Content-Type", "application/json")

	raw, err := b.do(req)
	if err != nil {
		return nil, err
	}

	var out ttsResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: decoding tts response: %w", ErrProvider, err)
	}
	if len(out.Audios) == 0 || out.Audios[0] == "" {
		return nil, fmt.Errorf("%w: no audio returned", ErrProvider)
	}
	pcm, err := base64.StdEncoding.DecodeString(out.Audios[0])
	if err != nil {
		return nil, fmt.Errorf("%w: decoding audio: %w", ErrProvider, err)
	}

	logger.L.Debug("synthesized speech", "chars", len([]rune(text)), "bytes", len(pcm))
	return NewAudio(text, EnsureWAV(pcm, b.cfg.SampleRate))
}

// Transcribe sends a WAV recording to the speech-to-text endpoint.
func (b *Bridge) Transcribe(ctx context.Context, wav []byte) (string, error) {
	if !b.Enabled() {
		return "", ErrUnavailable
	}
	if len(wav) == 0 {
		return "", ErrNoSpeech
	}

	var buf bytes.Buffer
	contentType, err := writeRecordingForm(&buf, wav, b.cfg.STTModel, b.cfg.Language)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrProvider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.BaseURL+"/speech-to-text", &buf)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrProvider, err)
	}
	req.Header.Set("Content-Type", contentType)

	raw, err := b.do(req)
	if err != nil {
		return "", err
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("%w: decoding stt response: %w", ErrProvider, err)
	}
	if text := extractTranscript(payload); text != "" {
		return text, nil
	}
	return "", ErrNoSpeech
}

// writeRecordingForm encodes the STT multipart form and returns its content type.
func writeRecordingForm(w io.Writer, wav []byte, model, language string) (string, error) {
	mw := multipart.NewWriter(w)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="recording.wav"`)
	h.Set("Content-Type", "audio/wav")
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(wav); err != nil {
		return "", err
	}
	if err := mw.WriteField("model", model); err != nil {
		return "", err
	}
	if err := mw.WriteField("language_code", language); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}
	return mw.FormDataContentType(), nil
}

// Check exercises the TTS endpoint with a one-word synthesis.
func (b *Bridge) Check(ctx context.Context) error {
	_, err := b.Synthesize(ctx, "test")
	return err
}

func (b *Bridge) do(req *http.Request) ([]byte, error) {
	req.Header.Set("API-Subscription-Key", b.cfg.APIKey)

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProvider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrProvider, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.L.Warn("voice provider returned error", "path", req.URL.Path, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: %s: status %d: %s", ErrProvider, req.URL.Path, resp.StatusCode, snippet(raw))
	}
	return raw, nil
}

func extractTranscript(payload map[string]any) string {
	for _, path := range transcriptKeys {
		var cur any = payload
		for _, key := range path {
			m, ok := cur.(map[string]any)
			if !ok {
				cur = nil
				break
			}
			cur = m[key]
		}
		if s, ok := cur.(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func snippet(b []byte) string {
	const max = 200
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		return s[:max]
	}
	return s
}
