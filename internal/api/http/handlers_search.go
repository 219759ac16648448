package apihttp

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"mediastream/internal/search"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}
	if s.search == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "search not configured")
		return
	}

	title := pathTail(r.URL.Path, "/torrents/")
	if decoded, err := url.PathUnescape(title); err == nil {
		title = decoded
	}

	results, err := s.search.Search(r.Context(), title)
	if err != nil {
		if errors.Is(err, search.ErrInvalidTitle) {
			writeError(w, http.StatusBadRequest, "invalid_request", "title is required")
			return
		}
		if errors.Is(err, search.ErrNoProviders) {
			writeError(w, http.StatusServiceUnavailable, "unavailable", "no search providers configured")
			return
		}
		s.logger.Error("search failed", slog.String("title", title), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "search failed")
		return
	}

	// One slot per provider: either the parsed descriptor list or a
	// one-element error descriptor.
	payload := make(map[string]interface{}, len(results))
	for name, result := range results {
		payload[name] = result.Payload()
	}
	writeJSON(w, http.StatusOK, payload)
}
