package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	apihttp "mediastream/internal/api/http"
	"mediastream/internal/app"
	"mediastream/internal/dispatch"
	"mediastream/internal/metrics"
	"mediastream/internal/providers/httpjson"
	"mediastream/internal/registry"
	"mediastream/internal/search"
	"mediastream/internal/telemetry"
)

func main() {
	cfg := app.LoadConfig()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), "mediastream")
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("service", "mediastream"),
		slog.String("httpAddr", cfg.HTTPAddr),
		slog.String("logLevel", cfg.LogLevel),
		slog.String("logFormat", cfg.LogFormat),
		slog.String("dataDir", cfg.DataDir),
		slog.String("hlsDir", cfg.HLSDir),
		slog.String("startChannel", cfg.StartChannel),
		slog.Bool("redisConfigured", cfg.RedisURL != ""),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, publisher := connectRegistry(rootCtx, cfg, logger)
	sessions := registry.NewSessions(store, cfg.DownloadingTTL)
	dispatcher := dispatch.New(publisher, sessions, cfg.StartChannel, logger)

	searchSvc, err := buildSearch(cfg, logger)
	if err != nil {
		logger.Error("search providers invalid", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handler := apihttp.NewServer(sessions,
		apihttp.WithLogger(logger),
		apihttp.WithDispatcher(dispatcher),
		apihttp.WithSearch(searchSvc),
		apihttp.WithDataDirs(cfg.DataDir, cfg.HLSDir),
		apihttp.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	// Feed the active-streams gauge and WebSocket subscribers from
	// periodic registry scans.
	go watchStreams(rootCtx, sessions, handler, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("server started", slog.String("addr", cfg.HTTPAddr))

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	handler.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

// connectRegistry wires the Redis-backed registry and pub/sub publisher.
// Without a reachable Redis the service still starts, on an in-process
// store and a logging publisher, so file serving keeps working.
func connectRegistry(ctx context.Context, cfg app.Config, logger *slog.Logger) (registry.Store, dispatch.Publisher) {
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set, using in-process registry")
		return registry.NewMemoryStore(), &dispatch.LogPublisher{Logger: logger}
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Warn("invalid REDIS_URL, using in-process registry", slog.String("error", err.Error()))
		return registry.NewMemoryStore(), &dispatch.LogPublisher{Logger: logger}
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, using in-process registry", slog.String("error", err.Error()))
		return registry.NewMemoryStore(), &dispatch.LogPublisher{Logger: logger}
	}

	logger.Info("redis connected", slog.String("addr", opts.Addr))
	return registry.NewRedisStore(client), dispatch.NewRedisPublisher(client)
}

func buildSearch(cfg app.Config, logger *slog.Logger) (*search.Service, error) {
	endpoints, err := app.ParseProviders(cfg.SearchProviders)
	if err != nil {
		return nil, err
	}

	client := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	providers := make([]search.Provider, 0, len(endpoints))
	for _, endpoint := range endpoints {
		providers = append(providers, httpjson.NewProvider(httpjson.Config{
			Name:      endpoint.Name,
			Endpoint:  endpoint.Endpoint,
			UserAgent: cfg.SearchUserAgent,
			Client:    client,
		}))
	}

	svc := search.NewService(providers, cfg.SearchTimeout, search.WithLogger(logger))
	logger.Info("search providers configured", slog.Int("count", len(providers)))
	return svc, nil
}

func watchStreams(ctx context.Context, sessions *registry.Sessions, handler *apihttp.Server, logger *slog.Logger) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			streams, err := sessions.List(ctx)
			if err != nil {
				logger.Debug("stream scan failed", slog.String("error", err.Error()))
				continue
			}
			metrics.ActiveStreams.Set(float64(len(streams)))
			handler.BroadcastStreams(streams)
		}
	}
}

func newLogger(levelRaw, formatRaw string) *slog.Logger {
	level := parseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}
	format := strings.ToLower(strings.TrimSpace(formatRaw))
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, options))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
