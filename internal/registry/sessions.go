package registry

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"mediastream/internal/domain"
)

const (
	progressPrefix    = "progress:"
	statusPrefix      = "status:"
	fileSizePrefix    = "file-size:"
	downloadingPrefix = "downloading:"
)

const defaultDownloadingTTL = 3 * time.Second

// Sessions exposes the per-stream registry keys as typed operations.
// The external download worker owns progress and status; this layer
// writes only the file-size watermark and the short-lived downloading
// flag, both pure client heuristics.
type Sessions struct {
	store          Store
	downloadingTTL time.Duration
}

func NewSessions(store Store, downloadingTTL time.Duration) *Sessions {
	if downloadingTTL <= 0 {
		downloadingTTL = defaultDownloadingTTL
	}
	return &Sessions{store: store, downloadingTTL: downloadingTTL}
}

// Progress returns the last reported percent complete, or 0 when absent.
// The worker may write either a bare integer or a "42%" style string.
func (s *Sessions) Progress(ctx context.Context, id domain.StreamID) int {
	raw, ok, err := s.store.Get(ctx, progressPrefix+string(id))
	if err != nil || !ok {
		return 0
	}
	value := strings.TrimSuffix(strings.TrimSpace(raw), "%")
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	if parsed < 0 {
		return 0
	}
	if parsed > 100 {
		return 100
	}
	return parsed
}

func (s *Sessions) Status(ctx context.Context, id domain.StreamID) (domain.StreamStatus, bool, error) {
	raw, ok, err := s.store.Get(ctx, statusPrefix+string(id))
	if err != nil || !ok {
		return "", false, err
	}
	return domain.NormalizeStatus(strings.TrimSpace(raw)), true, nil
}

func (s *Sessions) SetStatus(ctx context.Context, id domain.StreamID, status domain.StreamStatus) error {
	return s.store.Set(ctx, statusPrefix+string(id), string(status), 0)
}

// FileSize returns the watermark recorded by the previous observation.
func (s *Sessions) FileSize(ctx context.Context, id domain.StreamID) (int64, bool, error) {
	raw, ok, err := s.store.Get(ctx, fileSizePrefix+string(id))
	if err != nil || !ok {
		return 0, false, err
	}
	size, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || size < 0 {
		return 0, false, nil
	}
	return size, true, nil
}

func (s *Sessions) SetFileSize(ctx context.Context, id domain.StreamID, size int64) error {
	return s.store.Set(ctx, fileSizePrefix+string(id), strconv.FormatInt(size, 10), 0)
}

// MarkDownloading raises the short-TTL "file still growing" flag.
func (s *Sessions) MarkDownloading(ctx context.Context, id domain.StreamID) error {
	return s.store.Set(ctx, downloadingPrefix+string(id), "1", s.downloadingTTL)
}

// Downloading reports whether the growing-file flag is currently raised.
func (s *Sessions) Downloading(ctx context.Context, id domain.StreamID) (bool, error) {
	_, ok, err := s.store.Get(ctx, downloadingPrefix+string(id))
	return ok, err
}

// List enumerates known streams via a status key scan, sorted by id.
// Streams without a progress key report 0.
func (s *Sessions) List(ctx context.Context) ([]domain.StreamState, error) {
	keys, err := s.store.Keys(ctx, statusPrefix+"*")
	if err != nil {
		return nil, err
	}
	states := make([]domain.StreamState, 0, len(keys))
	for _, key := range keys {
		id := domain.StreamID(strings.TrimPrefix(key, statusPrefix))
		if id == "" {
			continue
		}
		status, ok, err := s.Status(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Key expired between the scan and the read.
			status = domain.StreamPending
		}
		states = append(states, domain.StreamState{
			ID:       id,
			Progress: s.Progress(ctx, id),
			Status:   status,
		})
	}
	sort.Slice(states, func(i, j int) bool { return states[i].ID < states[j].ID })
	return states, nil
}

// Ping reports whether the backing store is reachable.
func (s *Sessions) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
