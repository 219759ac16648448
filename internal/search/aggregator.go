package search

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"mediastream/internal/domain"
	"mediastream/internal/metrics"
)

var (
	ErrInvalidTitle = errors.New("title is required")
	ErrNoProviders  = errors.New("no search providers configured")
)

// maxConcurrentProviders limits simultaneous provider queries so a
// large configured set cannot overwhelm the process or remote servers.
const maxConcurrentProviders = 10

const defaultProviderTimeout = 10 * time.Second

// Provider is one external torrent search endpoint.
type Provider interface {
	Name() string
	Search(ctx context.Context, title string) ([]domain.TorrentDescriptor, error)
}

// Service fans a title query out to every configured provider in
// parallel and waits for all of them to settle. A provider failure is
// isolated to that provider's slot; it never fails the whole call and
// is never retried.
type Service struct {
	providers []Provider
	timeout   time.Duration
	logger    *slog.Logger
}

type ServiceOption func(*Service)

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService registers providers, dropping nil entries and duplicate
// names, sorted by name for stable result ordering. The timeout bounds
// each provider call independently, so the fan-in barrier's worst case
// is one timeout, not the sum of slow providers.
func NewService(providers []Provider, timeout time.Duration, opts ...ServiceOption) *Service {
	unique := make([]Provider, 0, len(providers))
	seen := make(map[string]struct{}, len(providers))
	for _, provider := range providers {
		if provider == nil {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(provider.Name()))
		if name == "" {
			continue
		}
		if _, exists := seen[name]; exists {
			continue
		}
		seen[name] = struct{}{}
		unique = append(unique, provider)
	}
	sort.Slice(unique, func(i, j int) bool {
		return strings.ToLower(unique[i].Name()) < strings.ToLower(unique[j].Name())
	})

	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}

	svc := &Service{providers: unique, timeout: timeout, logger: slog.Default()}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Providers returns the configured provider names in result order.
func (s *Service) Providers() []string {
	names := make([]string, 0, len(s.providers))
	for _, provider := range s.providers {
		names = append(names, strings.ToLower(strings.TrimSpace(provider.Name())))
	}
	return names
}

// Search runs the full fan-out/fan-in pass. The returned map holds
// exactly one entry per configured provider, success or failure.
func (s *Service) Search(ctx context.Context, title string) (map[string]domain.ProviderResult, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrInvalidTitle
	}
	if len(s.providers) == 0 {
		return nil, ErrNoProviders
	}

	startedAt := time.Now()
	results := make(map[string]domain.ProviderResult, len(s.providers))

	var mu sync.Mutex
	sem := semaphore.NewWeighted(maxConcurrentProviders)
	var wg sync.WaitGroup

	for _, provider := range s.providers {
		wg.Add(1)
		go func(current Provider) {
			defer wg.Done()

			key := strings.ToLower(strings.TrimSpace(current.Name()))

			if err := sem.Acquire(ctx, 1); err != nil {
				mu.Lock()
				results[key] = domain.ProviderResult{Provider: key, Err: "context cancelled"}
				mu.Unlock()
				return
			}
			defer sem.Release(1)

			callCtx, cancel := context.WithTimeout(ctx, s.timeout)
			providerStartedAt := time.Now()
			items, searchErr := current.Search(callCtx, title)
			cancel()
			elapsed := time.Since(providerStartedAt)
			metrics.ProviderRequestDuration.WithLabelValues(key).Observe(elapsed.Seconds())

			result := domain.ProviderResult{Provider: key, Torrents: items}
			if searchErr != nil {
				result = domain.ProviderResult{Provider: key, Err: searchErr.Error()}
				metrics.ProviderRequestsTotal.WithLabelValues(key, "error").Inc()
				s.logger.Warn("search provider failed",
					slog.String("provider", key),
					slog.String("title", title),
					slog.Int64("elapsedMs", elapsed.Milliseconds()),
					slog.String("error", searchErr.Error()),
				)
			} else {
				metrics.ProviderRequestsTotal.WithLabelValues(key, "ok").Inc()
				s.logger.Debug("search provider completed",
					slog.String("provider", key),
					slog.String("title", title),
					slog.Int("results", len(items)),
					slog.Int64("elapsedMs", elapsed.Milliseconds()),
				)
			}

			mu.Lock()
			results[key] = result
			mu.Unlock()
		}(provider)
	}

	wg.Wait()

	failed := 0
	for _, result := range results {
		if result.Failed() {
			failed++
		}
	}
	s.logger.Info("search completed",
		slog.String("title", title),
		slog.Int("providers", len(results)),
		slog.Int("failed", failed),
		slog.Int64("elapsedMs", time.Since(startedAt).Milliseconds()),
	)

	return results, nil
}
