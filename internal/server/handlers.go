package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/comigor/portfolio-assistant/internal/chat"
	"github.com/comigor/portfolio-assistant/internal/history"
	"github.com/comigor/portfolio-assistant/internal/logger"
	"github.com/comigor/portfolio-assistant/internal/profile"
	"github.com/comigor/portfolio-assistant/internal/voice"
)

type healthResponse struct {
	Status   string `json:"status"`
	Provider string `json:"provider"`
	Remote   bool   `json:"remote"`
	Voice    bool   `json:"voice"`
	Sessions int    `json:"sessions"`
}

func handleHealth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok", Voice: deps.Voice.Enabled(), Sessions: deps.Sessions.Len()}
		if deps.Remote != nil {
			resp.Provider = deps.Remote.Provider()
			resp.Remote = deps.Remote.Available()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleStarters(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		starters := deps.Profiles.Profile().Starters
		if starters == nil {
			starters = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"starters": starters})
	}
}

func handleGetProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Profiles.Profile())
	}
}

func handlePatchProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var patch profile.Patch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if patch.Empty() {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "patch changes nothing")
			return
		}
		snap := deps.Profiles.Update(patch)
		logger.L.Info("profile updated", "name", snap.Profile.Name)
		writeJSON(w, http.StatusOK, snap.Profile)
	}
}

type sessionResponse struct {
	ID       string         `json:"id"`
	Pending  bool           `json:"pending"`
	Messages []chat.Message `json:"messages"`
}

func sessionView(s *chat.Session) sessionResponse {
	return sessionResponse{ID: s.ID(), Pending: s.Pending(), Messages: s.History()}
}

func handleCreateSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := deps.Sessions.Create()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to create session: %v", err)
			return
		}
		writeJSON(w, http.StatusCreated, sessionView(s))
	}
}

// lookup writes a 404 and returns false when the session does not exist.
func lookup(deps Deps, w http.ResponseWriter, r *http.Request) (*chat.Session, bool) {
	id := chi.URLParam(r, "id")
	s, ok := deps.Sessions.Get(id)
	if !ok {
		httpError(w, http.StatusNotFound, "not_found", "session %s not found", id)
	}
	return s, ok
}

func handleGetSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s, ok := lookup(deps, w, r); ok {
			writeJSON(w, http.StatusOK, sessionView(s))
		}
	}
}

func handleDeleteSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !deps.Sessions.Delete(chi.URLParam(r, "id")) {
			httpError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type submitRequest struct {
	Text string `json:"text"`
}

func handleSubmit(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookup(deps, w, r)
		if !ok {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		ex, err := s.Submit(r.Context(), req.Text)
		switch {
		case errors.Is(err, chat.ErrEmptyInput):
			httpError(w, http.StatusBadRequest, "invalid_request_error", "text is required")
		case errors.Is(err, chat.ErrBusy):
			httpError(w, http.StatusConflict, "busy", "a reply is already pending")
		case errors.Is(err, chat.ErrDiscarded), errors.Is(err, chat.ErrClosed):
			httpError(w, http.StatusGone, "discarded", "%v", err)
		case err != nil:
			httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
		default:
			writeJSON(w, http.StatusOK, ex)
		}
	}
}

func handleClear(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s, ok := lookup(deps, w, r); ok {
			s.Clear()
			writeJSON(w, http.StatusOK, sessionView(s))
		}
	}
}

func handleAudio(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookup(deps, w, r)
		if !ok {
			return
		}
		clip, ok := s.Audio(chi.URLParam(r, "ref"))
		if !ok {
			httpError(w, http.StatusNotFound, "not_found", "audio not found")
			return
		}
		if clip.Played() {
			httpError(w, http.StatusGone, "already_played", "audio already played")
			return
		}
		w.Header().Set("Content-Type", "audio/wav")
		w.Header().Set("Content-Length", strconv.Itoa(len(clip.WAV)))
		err := clip.Play(r.Context(), voice.WriterPlayer{W: w})
		if errors.Is(err, voice.ErrAlreadyPlayed) {
			// lost a race with a concurrent request; headers are not sent yet
			w.Header().Del("Content-Length")
			httpError(w, http.StatusGone, "already_played", "audio already played")
			return
		}
		if err != nil {
			logger.ForSession(s.ID()).Warn("audio playback interrupted", "error", err)
		}
	}
}

func handleTranscript(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if deps.Transcripts == nil {
			httpError(w, http.StatusNotFound, "not_found", "transcripts are not recorded")
			return
		}
		entries := deps.Transcripts.List(r.Context(), id)
		if len(entries) == 0 {
			httpError(w, http.StatusNotFound, "not_found", "no transcript for session %s", id)
			return
		}
		writeJSON(w, http.StatusOK, map[string][]history.Entry{"entries": entries})
	}
}

func voiceStatus(err error) (int, string) {
	switch {
	case errors.Is(err, voice.ErrUnavailable):
		return http.StatusServiceUnavailable, "voice_unavailable"
	case errors.Is(err, voice.ErrNoSpeech):
		return http.StatusUnprocessableEntity, "no_speech"
	case errors.Is(err, voice.ErrEmptyText):
		return http.StatusBadRequest, "invalid_request_error"
	default:
		return http.StatusBadGateway, "voice_provider_error"
	}
}

func handleTranscribe(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !deps.Voice.Enabled() {
			httpError(w, http.StatusServiceUnavailable, "voice_unavailable", "voice is not configured")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxAudioBodySize)
		defer r.Body.Close()

		raw, err := io.ReadAll(r.Body)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "reading audio: %v", err)
			return
		}
		rate := deps.SampleRate
		if v := r.URL.Query().Get("rate"); v != "" {
			if rate, err = strconv.Atoi(v); err != nil || rate <= 0 {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid rate %q", v)
				return
			}
		}

		text, err := deps.Voice.Transcribe(r.Context(), voice.EnsureWAV(raw, rate))
		if err != nil {
			code, typ := voiceStatus(err)
			httpError(w, code, typ, "%v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"transcript": text})
	}
}

func handleSynthesize(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		clip, err := deps.Voice.Synthesize(r.Context(), req.Text)
		if err != nil {
			code, typ := voiceStatus(err)
			httpError(w, code, typ, "%v", err)
			return
		}
		w.Header().Set("Content-Type", "audio/wav")
		if err := clip.Play(r.Context(), voice.WriterPlayer{W: w}); err != nil {
			logger.L.Warn("synthesized audio write failed", "error", err)
		}
	}
}
