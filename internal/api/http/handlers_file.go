package apihttp

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"mediastream/internal/domain"
	"mediastream/internal/metrics"
)

const primaryFileName = "video.mp4"

// handleFile serves the primary media file for a stream with byte-range
// semantics while the external worker may still be appending to it.
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET or HEAD")
		return
	}
	id := domain.StreamID(pathTail(r.URL.Path, "/streams/file/"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "stream id is required")
		return
	}

	ctx := r.Context()

	path, err := resolveChildPath(s.dataDir, string(id), primaryFileName)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid stream id")
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			metrics.NotReadyTotal.WithLabelValues("absent").Inc()
			writeNotReady(w, "not_ready", "stream file not ready", s.sessions.Progress(ctx, id))
			return
		}
		s.logger.Error("stat failed", slog.String("streamId", string(id)), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "filesystem_error", "failed to stat stream file")
		return
	}
	size := info.Size()

	// File-growth watermark: if the file grew since the previous
	// observation it is still being written, so the trailing region
	// cannot be trusted as final. The watermark is advanced either way.
	watermark, hadWatermark, err := s.sessions.FileSize(ctx, id)
	if err != nil {
		s.logger.Warn("watermark read failed", slog.String("streamId", string(id)), slog.String("error", err.Error()))
	}
	grew := err == nil && hadWatermark && watermark < size
	if setErr := s.sessions.SetFileSize(ctx, id, size); setErr != nil {
		s.logger.Warn("watermark update failed", slog.String("streamId", string(id)), slog.String("error", setErr.Error()))
	}
	if grew {
		if markErr := s.sessions.MarkDownloading(ctx, id); markErr != nil {
			s.logger.Warn("downloading flag failed", slog.String("streamId", string(id)), slog.String("error", markErr.Error()))
		}
		metrics.NotReadyTotal.WithLabelValues("still_downloading").Inc()
		writeNotReady(w, "still_downloading", "file is still downloading", s.sessions.Progress(ctx, id))
		return
	}

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Cache-Control", "no-cache")

	rangeHeader := r.Header.Get("Range")
	if rangeHeader == "" {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		s.copyFileRange(w, path, id, 0, size)
		return
	}

	start, end, err := parseByteRange(rangeHeader, size)
	if err != nil {
		if errors.Is(err, errRangeNotSatisfiable) {
			w.Header().Set("Content-Range", "bytes */"+strconv.FormatInt(size, 10))
			writeError(w, http.StatusRequestedRangeNotSatisfiable, "invalid_range", "range start past end of file")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed range header")
		return
	}

	chunkSize := end - start + 1
	w.Header().Set("Content-Range", "bytes "+strconv.FormatInt(start, 10)+"-"+strconv.FormatInt(end, 10)+"/"+strconv.FormatInt(size, 10))
	w.Header().Set("Content-Length", strconv.FormatInt(chunkSize, 10))
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusPartialContent)
		return
	}
	w.WriteHeader(http.StatusPartialContent)
	s.streamFileWindow(w, path, id, start, chunkSize)
}

// copyFileRange writes the whole file with a 200 response.
func (s *Server) copyFileRange(w http.ResponseWriter, path string, id domain.StreamID, offset, length int64) {
	w.WriteHeader(http.StatusOK)
	s.streamFileWindow(w, path, id, offset, length)
}

func (s *Server) streamFileWindow(w io.Writer, path string, id domain.StreamID, offset, length int64) {
	file, err := os.Open(path)
	if err != nil {
		// Headers are already written, all we can do is log.
		s.logger.Error("open failed", slog.String("streamId", string(id)), slog.String("error", err.Error()))
		return
	}
	defer file.Close()

	if offset > 0 {
		if _, err := file.Seek(offset, io.SeekStart); err != nil {
			s.logger.Error("seek failed", slog.String("streamId", string(id)), slog.String("error", err.Error()))
			return
		}
	}

	written, err := io.CopyN(w, file, length)
	metrics.FileBytesServed.Add(float64(written))
	if err != nil && !errors.Is(err, io.EOF) {
		s.logger.Debug("stream interrupted",
			slog.String("streamId", string(id)),
			slog.Int64("written", written),
			slog.String("error", err.Error()),
		)
	}
}
