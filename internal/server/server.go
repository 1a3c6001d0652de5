// Package server is the HTTP front end used by the portfolio's chat widget.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/comigor/portfolio-assistant/internal/chat"
	"github.com/comigor/portfolio-assistant/internal/history"
	"github.com/comigor/portfolio-assistant/internal/llm"
	"github.com/comigor/portfolio-assistant/internal/profile"
	"github.com/comigor/portfolio-assistant/internal/voice"
)

const (
	maxRequestBodySize = 1 << 20  // 1MB
	maxAudioBodySize   = 16 << 20 // 16MB
)

// TranscriptLister reads a session's full transcript; *history.Store
// implements it.
type TranscriptLister interface {
	List(ctx context.Context, sessionID string) []history.Entry
}

// Deps holds everything the handlers need.
type Deps struct {
	Profiles    *profile.Store
	Sessions    *chat.Manager
	Remote      llm.Client
	Voice       *voice.Bridge
	Transcripts TranscriptLister // optional
	MCP         http.Handler     // optional, mounted at /mcp
	AdminToken  string           // PATCH /profile is mounted only when set
	SampleRate  int              // assumed rate of raw PCM uploads
}

// New returns the router.
func New(deps Deps) http.Handler {
	if deps.SampleRate <= 0 {
		deps.SampleRate = 8000
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(withLogging)
	r.Use(withCORS)

	r.Get("/health", handleHealth(deps))
	r.Get("/starters", handleStarters(deps))

	r.Route("/profile", func(r chi.Router) {
		r.Get("/", handleGetProfile(deps))
		if deps.AdminToken != "" {
			r.With(BearerAuth(deps.AdminToken)).Patch("/", handlePatchProfile(deps))
		}
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", handleCreateSession(deps))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", handleGetSession(deps))
			r.Delete("/", handleDeleteSession(deps))
			r.Post("/messages", handleSubmit(deps))
			r.Delete("/messages", handleClear(deps))
			r.Get("/audio/{ref}", handleAudio(deps))
			r.Get("/transcript", handleTranscript(deps))
		})
	})

	r.Route("/voice", func(r chi.Router) {
		r.Post("/transcribe", handleTranscribe(deps))
		r.Post("/synthesize", handleSynthesize(deps))
	})

	if deps.MCP != nil {
		r.Handle("/mcp", deps.MCP)
	}

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
