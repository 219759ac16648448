package apihttp

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"mediastream/internal/dispatch"
	"mediastream/internal/domain"
)

type startRequest struct {
	StreamID string `json:"streamId"`
	Magnet   string `json:"magnet"`
}

type startResponse struct {
	ID        string `json:"id"`
	StatusURL string `json:"statusUrl"`
}

type streamsResponse struct {
	Streams []domain.StreamState `json:"streams"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}
	if s.dispatcher == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "dispatcher not configured")
		return
	}

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	id := domain.StreamID(strings.TrimSpace(req.StreamID))
	if err := s.dispatcher.Start(r.Context(), id, strings.TrimSpace(req.Magnet)); err != nil {
		if errors.Is(err, dispatch.ErrMissingStreamID) || errors.Is(err, dispatch.ErrMissingMagnet) {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		s.logger.Error("start dispatch failed", slog.String("streamId", string(id)), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "dispatch_error", "failed to publish start command")
		return
	}

	writeJSON(w, http.StatusOK, startResponse{
		ID:        string(id),
		StatusURL: "/streams/status/" + string(id),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}
	id := domain.StreamID(pathTail(r.URL.Path, "/streams/status/"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "stream id is required")
		return
	}

	ctx := r.Context()
	status, ok, err := s.sessions.Status(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "registry_error", "registry unavailable")
		return
	}
	if !ok {
		// The worker may not have written anything yet. Report the
		// stream as pending so clients keep polling.
		status = domain.StreamPending
	}

	writeJSON(w, http.StatusOK, domain.StreamState{
		ID:       id,
		Progress: s.sessions.Progress(ctx, id),
		Status:   status,
	})
}

func (s *Server) handleListStreams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}
	streams, err := s.sessions.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "registry_error", "registry unavailable")
		return
	}
	if streams == nil {
		streams = []domain.StreamState{}
	}
	writeJSON(w, http.StatusOK, streamsResponse{Streams: streams})
}
