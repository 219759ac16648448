// Package apihttp exposes the streaming and search surface over HTTP.
package apihttp

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"mediastream/internal/domain"
	"mediastream/internal/registry"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Dispatcher publishes start-download commands to the external worker.
type Dispatcher interface {
	Start(ctx context.Context, id domain.StreamID, magnet string) error
}

// SearchService fans a title query out across the configured providers.
type SearchService interface {
	Search(ctx context.Context, title string) (map[string]domain.ProviderResult, error)
}

type Server struct {
	sessions   *registry.Sessions
	dispatcher Dispatcher
	search     SearchService
	dataDir    string
	hlsDir     string
	logger     *slog.Logger
	handler    http.Handler
	wsHub      *wsHub
	rateRPS    int
	rateBurst  int
}

const (
	defaultRateLimitRPS   = 100
	defaultRateLimitBurst = 200
)

type ServerOption func(*Server)

func WithDispatcher(d Dispatcher) ServerOption {
	return func(s *Server) {
		s.dispatcher = d
	}
}

func WithSearch(svc SearchService) ServerOption {
	return func(s *Server) {
		s.search = svc
	}
}

// WithDataDirs sets the roots the worker writes into: dataDir holds
// <id>/video.mp4 and subtitle tracks, hlsDir holds <id>/stream.m3u8
// and segments.
func WithDataDirs(dataDir, hlsDir string) ServerOption {
	return func(s *Server) {
		s.dataDir = cleanAbs(dataDir)
		s.hlsDir = cleanAbs(hlsDir)
	}
}

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRateLimit overrides the global token-bucket limits. Non-positive
// values keep the defaults.
func WithRateLimit(rps, burst int) ServerOption {
	return func(s *Server) {
		if rps > 0 {
			s.rateRPS = rps
		}
		if burst > 0 {
			s.rateBurst = burst
		}
	}
}

func cleanAbs(dir string) string {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return ""
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return filepath.Clean(dir)
}

func NewServer(sessions *registry.Sessions, opts ...ServerOption) *Server {
	s := &Server{
		sessions:  sessions,
		dataDir:   cleanAbs("data"),
		rateRPS:   defaultRateLimitRPS,
		rateBurst: defaultRateLimitBurst,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.hlsDir == "" {
		s.hlsDir = filepath.Join(s.dataDir, "hls")
	}

	s.wsHub = newWSHub(s.logger)
	go s.wsHub.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/streams/start", s.handleStart)
	mux.HandleFunc("/streams/status/", s.handleStatus)
	mux.HandleFunc("/streams", s.handleListStreams)
	mux.HandleFunc("/streams/file/", s.handleFile)
	mux.HandleFunc("/streams/manifest/", s.handleManifest)
	mux.HandleFunc("/streams/segment/", s.handleSegment)
	mux.HandleFunc("/streams/subtitles/", s.handleSubtitles)
	mux.HandleFunc("/streams/subtitles-list/", s.handleSubtitlesList)
	mux.HandleFunc("/torrents/", s.handleSearch)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ws", s.handleWS)

	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, mux), "mediastream",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != "/health"
		}),
	)
	s.handler = recoveryMiddleware(s.logger, rateLimitMiddleware(float64(s.rateRPS), s.rateBurst, metricsMiddleware(corsMiddleware(traced))))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.wsHub == nil {
		http.Error(w, "websocket not available", http.StatusServiceUnavailable)
		return
	}
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("ws upgrade failed", slog.String("error", err.Error()))
		return
	}
	client := &wsClient{
		hub:  s.wsHub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	s.wsHub.register <- client
	go client.writePump()
	go client.readPump()
}

// BroadcastStreams pushes the current stream states to all connected
// WebSocket clients. Polling endpoints remain the primary contract.
func (s *Server) BroadcastStreams(streams []domain.StreamState) {
	if s.wsHub != nil {
		s.wsHub.BroadcastStreams(streams)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	registryStatus := "ok"
	if err := s.sessions.Ping(r.Context()); err != nil {
		registryStatus = "unreachable"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   status,
		"registry": registryStatus,
	})
}

// Close disconnects all WebSocket clients.
func (s *Server) Close() {
	if s.wsHub != nil {
		s.wsHub.Close()
	}
}
