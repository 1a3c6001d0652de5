package chat

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/comigor/portfolio-assistant/internal/fallback"
	"github.com/comigor/portfolio-assistant/internal/llm"
	"github.com/comigor/portfolio-assistant/internal/voice"
)

// Source records where a message's text came from.
type Source string

const (
	SourceGreeting Source = "greeting"
	SourceUser     Source = "user"
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
	SourceApology  Source = "apology"
)

// Message is one entry of the visible conversation.
type Message struct {
	ID        string    `json:"id"`
	Role      llm.Role  `json:"role"`
	Content   string    `json:"content"`
	Source    Source    `json:"source"`
	AudioRef  string    `json:"audio_ref,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Exchange is the outcome of one Submit.
type Exchange struct {
	User     Message        `json:"user"`
	Reply    Message        `json:"reply"`
	Topic    fallback.Topic `json:"topic,omitempty"`
	Provider string         `json:"provider,omitempty"`
	// VoiceNotice is set when the reply could not be spoken.
	VoiceNotice string `json:"voice_notice,omitempty"`
}

func newMessage(role llm.Role, content string, src Source, now time.Time) Message {
	return Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Role:      role,
		Content:   content,
		Source:    src,
		Timestamp: now,
	}
}

func turns(msgs []Message) []llm.Turn {
	out := make([]llm.Turn, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, llm.Turn{Role: m.Role, Content: m.Content})
	}
	return out
}

// VoiceNotice returns the user-facing note for a failed synthesis.
func VoiceNotice(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, voice.ErrUnavailable):
		return "Voice is not configured; the reply is shown as text only."
	case errors.Is(err, voice.ErrEmptyText):
		return ""
	default:
		return "Voice playback failed; the reply is shown as text only."
	}
}
