package apihttp

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"

	"mediastream/internal/domain"
	"mediastream/internal/metrics"
)

const (
	manifestFileName     = "stream.m3u8"
	subtitlePlaylistName = "subtitles.m3u8"
	subtitleExt          = ".vtt"
	segmentExt           = ".ts"
)

type subtitlesListResponse struct {
	Subtitles []string `json:"subtitles"`
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET or HEAD")
		return
	}
	id := domain.StreamID(pathTail(r.URL.Path, "/streams/manifest/"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "stream id is required")
		return
	}

	path, err := resolveChildPath(s.hlsDir, string(id), manifestFileName)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid stream id")
		return
	}

	s.serveStreamFile(w, r, id, path, "application/vnd.apple.mpegurl", "manifest not ready")
}

func (s *Server) handleSegment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET or HEAD")
		return
	}
	tail := pathTail(r.URL.Path, "/streams/segment/")
	idPart, segment, found := strings.Cut(tail, "/")
	if !found || idPart == "" || segment == "" || strings.Contains(segment, "/") {
		writeError(w, http.StatusBadRequest, "invalid_request", "expected /streams/segment/{id}/{segment}")
		return
	}
	id := domain.StreamID(idPart)
	if !strings.HasSuffix(segment, segmentExt) {
		segment += segmentExt
	}

	path, err := resolveChildPath(s.hlsDir, string(id), segment)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid segment path")
		return
	}

	s.serveStreamFile(w, r, id, path, "video/MP2T", "segment "+segment+" not found")
}

func (s *Server) handleSubtitles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET or HEAD")
		return
	}
	tail := pathTail(r.URL.Path, "/streams/subtitles/")
	idPart, file, found := strings.Cut(tail, "/")
	if idPart == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "stream id is required")
		return
	}
	id := domain.StreamID(idPart)

	if !found || file == "" {
		path, err := resolveChildPath(s.dataDir, string(id), subtitlePlaylistName)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid stream id")
			return
		}
		s.serveStreamFile(w, r, id, path, "application/vnd.apple.mpegurl", "subtitle playlist not ready")
		return
	}

	if strings.Contains(file, "/") || !strings.HasSuffix(file, subtitleExt) {
		writeError(w, http.StatusBadRequest, "invalid_request", "subtitle file must be a "+subtitleExt+" track")
		return
	}
	path, err := resolveChildPath(s.dataDir, string(id), file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid subtitle path")
		return
	}
	s.serveStreamFile(w, r, id, path, "text/vtt", "subtitle "+file+" not found")
}

func (s *Server) handleSubtitlesList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}
	id := domain.StreamID(pathTail(r.URL.Path, "/streams/subtitles-list/"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "stream id is required")
		return
	}

	dir, err := resolveChildPath(s.dataDir, string(id))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid stream id")
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Error("subtitle listing failed", slog.String("streamId", string(id)), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "filesystem_error", "failed to list subtitles")
		return
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), subtitleExt) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	writeJSON(w, http.StatusOK, subtitlesListResponse{Subtitles: names})
}

// serveStreamFile serves one worker-produced file with CDN-style
// headers, translating an absent file into a not-ready response with
// the stream's current progress.
func (s *Server) serveStreamFile(w http.ResponseWriter, r *http.Request, id domain.StreamID, path, contentType, missingMessage string) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			metrics.NotReadyTotal.WithLabelValues("absent").Inc()
			writeNotReady(w, "not_ready", missingMessage, s.sessions.Progress(r.Context(), id))
			return
		}
		s.logger.Error("stat failed", slog.String("path", path), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "filesystem_error", "failed to stat file")
		return
	}

	file, err := os.Open(path)
	if err != nil {
		s.logger.Error("open failed", slog.String("path", path), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "filesystem_error", "failed to open file")
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Accept-Ranges", "bytes")
	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
}
