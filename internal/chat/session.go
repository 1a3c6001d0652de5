// Package chat runs conversations: one Session per visitor, each a small
// state machine that allows a single in-flight reply at a time.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qmuntal/stateless"

	"github.com/comigor/portfolio-assistant/internal/fallback"
	"github.com/comigor/portfolio-assistant/internal/history"
	"github.com/comigor/portfolio-assistant/internal/llm"
	"github.com/comigor/portfolio-assistant/internal/logger"
	"github.com/comigor/portfolio-assistant/internal/profile"
	"github.com/comigor/portfolio-assistant/internal/voice"
)

// State of a session.
type State string

const (
	StateIdle     State = "Idle"
	StateAwaiting State = "Awaiting"
)

// Trigger moves a session between states.
type Trigger string

const (
	TriggerSubmit  Trigger = "Submit"
	TriggerResolve Trigger = "Resolve"
	TriggerClear   Trigger = "Clear"
)

var (
	ErrEmptyInput = errors.New("empty message")
	ErrBusy       = errors.New("a reply is already pending")
	// ErrDiscarded is returned by Submit when the conversation was cleared
	// while the reply was being produced.
	ErrDiscarded = errors.New("reply discarded: conversation was cleared")
	ErrClosed    = errors.New("session closed")
)

// DefaultGreeting is used when no greeting is configured. {name} is replaced
// with the profile's display name.
const DefaultGreeting = "Hi! I'm {name}'s AI assistant. I can answer questions about their skills, experience, projects, and background. What would you like to know?"

// ProfileSource supplies the profile and its prompt; *profile.Store
// implements it.
type ProfileSource interface {
	Snapshot() profile.Snapshot
}

// Synthesizer speaks replies; *voice.Bridge implements it.
type Synthesizer interface {
	AutoSpeak() bool
	Synthesize(ctx context.Context, text string) (*voice.Audio, error)
}

// Recorder keeps the transcript; *history.Store implements it.
type Recorder interface {
	Save(ctx context.Context, e history.Entry)
	Delete(ctx context.Context, sessionID string)
}

// Deps are shared by every session of a Manager.
type Deps struct {
	Profiles ProfileSource
	Remote   llm.Client
	Fallback *fallback.Responder
	Voice    Synthesizer // optional
	Recorder Recorder    // optional
	Window   int
	Greeting string
	Now      func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Fallback == nil {
		d.Fallback = fallback.New()
	}
	if d.Window <= 0 {
		d.Window = 6
	}
	if d.Greeting == "" {
		d.Greeting = DefaultGreeting
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// Session is one conversation.
type Session struct {
	id   string
	deps Deps
	log  *slog.Logger

	mu         sync.Mutex
	sm         *stateless.StateMachine
	messages   []Message
	audio      map[string]*voice.Audio
	gen        uint64
	cancel     context.CancelFunc
	lastActive time.Time
	closed     bool
}

// NewSession starts a conversation holding only the greeting.
func NewSession(deps Deps) (*Session, error) {
	if deps.Profiles == nil {
		return nil, errors.New("chat: profile source is required")
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating session id: %w", err)
	}
	deps = deps.withDefaults()

	s := &Session{
		id:    id.String(),
		deps:  deps,
		log:   logger.ForSession(id.String()),
		audio: make(map[string]*voice.Audio),
	}

	s.sm = stateless.NewStateMachine(StateIdle)
	s.sm.Configure(StateIdle).
		Permit(TriggerSubmit, StateAwaiting).
		PermitReentry(TriggerClear)
	s.sm.Configure(StateAwaiting).
		Permit(TriggerResolve, StateIdle).
		Permit(TriggerClear, StateIdle)

	greeting := s.greeting(deps.Profiles.Snapshot().Profile)
	s.messages = []Message{greeting}
	s.lastActive = deps.Now()
	s.record(context.Background(), greeting)
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// History returns a copy of the visible conversation, oldest first.
func (s *Session) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Pending reports whether a reply is being produced.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state() == StateAwaiting
}

// Audio looks up a clip attached to a reply in this conversation.
func (s *Session) Audio(ref string) (*voice.Audio, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.audio[ref]
	return a, ok
}

// LastActive is the time of the last Submit or Clear.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) state() State {
	return s.sm.MustState().(State)
}

// Submit sends text and waits for the reply. A reply always arrives unless
// the input is blank (ErrEmptyInput), another reply is pending (ErrBusy), or
// Clear ran in the meantime (ErrDiscarded). Remote failures are answered by
// the fallback responder.
func (s *Session) Submit(ctx context.Context, text string) (Exchange, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Exchange{}, ErrEmptyInput
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Exchange{}, ErrClosed
	}
	if s.state() == StateAwaiting {
		s.mu.Unlock()
		s.log.Debug("dropping message while awaiting reply")
		return Exchange{}, ErrBusy
	}
	window := llm.Window(turns(s.messages), s.deps.Window)
	user := newMessage(llm.RoleUser, text, SourceUser, s.deps.Now())
	s.messages = append(s.messages, user)
	if err := s.sm.Fire(TriggerSubmit); err != nil {
		s.messages = s.messages[:len(s.messages)-1]
		s.mu.Unlock()
		return Exchange{}, fmt.Errorf("chat: %w", err)
	}
	gen := s.gen
	reqCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.lastActive = s.deps.Now()
	s.mu.Unlock()
	defer cancel()

	s.record(ctx, user)

	ex := Exchange{User: user}
	snap := s.deps.Profiles.Snapshot()
	reply, src := s.resolve(reqCtx, snap, window, text, &ex)

	var clip *voice.Audio
	if s.deps.Voice != nil && s.deps.Voice.AutoSpeak() && reqCtx.Err() == nil {
		a, err := s.deps.Voice.Synthesize(reqCtx, reply)
		if err != nil {
			s.log.Warn("speech synthesis failed", "error", err)
			ex.VoiceNotice = VoiceNotice(err)
		} else {
			clip = a
		}
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.log.Info("discarding reply for cleared conversation")
		return ex, ErrDiscarded
	}
	msg := newMessage(llm.RoleAssistant, reply, src, s.deps.Now())
	if clip != nil {
		msg.AudioRef = clip.ID
		s.audio[clip.ID] = clip
	}
	s.messages = append(s.messages, msg)
	s.cancel = nil
	if err := s.sm.Fire(TriggerResolve); err != nil {
		s.log.Error("failed to resolve session state", "error", err)
	}
	s.mu.Unlock()

	s.record(ctx, msg)
	ex.Reply = msg
	return ex, nil
}

func (s *Session) resolve(ctx context.Context, snap profile.Snapshot, window []llm.Turn, text string, ex *Exchange) (string, Source) {
	if s.deps.Remote != nil {
		out, err := s.deps.Remote.Complete(ctx, snap.Prompt, window, text)
		if err == nil {
			ex.Provider = s.deps.Remote.Provider()
			return out, SourceRemote
		}
		if errors.Is(err, llm.ErrCredentialMissing) {
			s.log.Debug("remote model unavailable; using fallback", "provider", s.deps.Remote.Provider())
		} else {
			s.log.Warn("remote model failed; using fallback", "provider", s.deps.Remote.Provider(), "error", err)
		}
	}
	reply, topic, src := s.fallbackReply(snap.Profile, text)
	ex.Topic = topic
	return reply, src
}

func (s *Session) fallbackReply(p profile.Profile, text string) (reply string, topic fallback.Topic, src Source) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("fallback responder panicked", "panic", r)
			reply, topic, src = fallback.Apology, fallback.TopicDefault, SourceApology
		}
	}()
	reply, topic = s.deps.Fallback.Match(p, text)
	return reply, topic, SourceFallback
}

// Clear drops the conversation back to a single fresh greeting. Any reply
// still being produced is cancelled and will be discarded.
func (s *Session) Clear() Message {
	greeting := s.greeting(s.deps.Profiles.Snapshot().Profile)

	s.mu.Lock()
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if err := s.sm.Fire(TriggerClear); err != nil {
		s.log.Error("failed to clear session state", "error", err)
	}
	s.messages = []Message{greeting}
	s.audio = make(map[string]*voice.Audio)
	s.lastActive = s.deps.Now()
	s.mu.Unlock()

	s.log.Info("conversation cleared")
	s.record(context.Background(), greeting)
	return greeting
}

// Close cancels any pending reply; later Submits fail with ErrClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) greeting(p profile.Profile) Message {
	text := strings.ReplaceAll(s.deps.Greeting, "{name}", p.DisplayName())
	return newMessage(llm.RoleAssistant, text, SourceGreeting, s.deps.Now())
}

func (s *Session) record(ctx context.Context, m Message) {
	if s.deps.Recorder == nil {
		return
	}
	s.deps.Recorder.Save(context.WithoutCancel(ctx), history.Entry{
		SessionID: s.id,
		MessageID: m.ID,
		Role:      string(m.Role),
		Content:   m.Content,
		Source:    string(m.Source),
		CreatedAt: m.Timestamp,
	})
}
