package search

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"mediastream/internal/domain"
)

type fakeProvider struct {
	name  string
	items []domain.TorrentDescriptor
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Search(ctx context.Context, title string) ([]domain.TorrentDescriptor, error) {
	return append([]domain.TorrentDescriptor(nil), p.items...), nil
}

type failingProvider struct {
	name string
	err  error
}

func (p *failingProvider) Name() string { return p.name }

func (p *failingProvider) Search(ctx context.Context, title string) ([]domain.TorrentDescriptor, error) {
	return nil, p.err
}

type slowProvider struct {
	name  string
	delay time.Duration
	items []domain.TorrentDescriptor
}

func (p *slowProvider) Name() string { return p.name }

func (p *slowProvider) Search(ctx context.Context, title string) ([]domain.TorrentDescriptor, error) {
	select {
	case <-time.After(p.delay):
		return append([]domain.TorrentDescriptor(nil), p.items...), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestSearchValidation(t *testing.T) {
	service := NewService([]Provider{&fakeProvider{name: "a"}}, time.Second)

	if _, err := service.Search(context.Background(), "   "); !errors.Is(err, ErrInvalidTitle) {
		t.Fatalf("err = %v, want ErrInvalidTitle", err)
	}

	empty := NewService(nil, time.Second)
	if _, err := empty.Search(context.Background(), "Matrix"); !errors.Is(err, ErrNoProviders) {
		t.Fatalf("err = %v, want ErrNoProviders", err)
	}
}

func TestSearchOneEntryPerProvider(t *testing.T) {
	providers := make([]Provider, 0, 14)
	for i := 0; i < 11; i++ {
		providers = append(providers, &fakeProvider{
			name:  fmt.Sprintf("ok%02d", i),
			items: []domain.TorrentDescriptor{{Name: "Matrix", Seeders: i}},
		})
	}
	for i := 0; i < 3; i++ {
		providers = append(providers, &failingProvider{
			name: fmt.Sprintf("bad%02d", i),
			err:  errors.New("provider HTTP 500"),
		})
	}

	service := NewService(providers, time.Second)
	results, err := service.Search(context.Background(), "Matrix")
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if len(results) != 14 {
		t.Fatalf("len(results) = %d, want 14", len(results))
	}
	for _, provider := range providers {
		result, ok := results[provider.Name()]
		if !ok {
			t.Fatalf("missing slot for provider %s", provider.Name())
		}
		if _, failing := provider.(*failingProvider); failing {
			if !result.Failed() {
				t.Fatalf("provider %s should hold an error slot", provider.Name())
			}
			payload, ok := result.Payload().([]map[string]string)
			if !ok || len(payload) != 1 || payload[0]["error"] == "" {
				t.Fatalf("payload for %s = %#v, want one-element error list", provider.Name(), result.Payload())
			}
		} else {
			if result.Failed() {
				t.Fatalf("provider %s unexpectedly failed: %s", provider.Name(), result.Err)
			}
			if len(result.Torrents) != 1 {
				t.Fatalf("provider %s returned %d items, want 1", provider.Name(), len(result.Torrents))
			}
		}
	}
}

func TestSearchWaitsForAllProviders(t *testing.T) {
	service := NewService([]Provider{
		&fakeProvider{name: "fast", items: []domain.TorrentDescriptor{{Name: "quick"}}},
		&slowProvider{name: "slow", delay: 50 * time.Millisecond, items: []domain.TorrentDescriptor{{Name: "late"}}},
	}, time.Second)

	results, err := service.Search(context.Background(), "Matrix")
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	slow, ok := results["slow"]
	if !ok || slow.Failed() || len(slow.Torrents) != 1 || slow.Torrents[0].Name != "late" {
		t.Fatalf("slow slot = %+v, want its settled result (fan-in barrier)", slow)
	}
}

func TestSearchProviderTimeout(t *testing.T) {
	service := NewService([]Provider{
		&fakeProvider{name: "fast", items: []domain.TorrentDescriptor{{Name: "quick"}}},
		&slowProvider{name: "stuck", delay: time.Second},
	}, 30*time.Millisecond)

	start := time.Now()
	results, err := service.Search(context.Background(), "Matrix")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("barrier took %v, want it bounded by the provider timeout", elapsed)
	}

	if !results["stuck"].Failed() {
		t.Fatal("stuck provider should time out into its error slot")
	}
	if results["fast"].Failed() {
		t.Fatal("fast provider corrupted by sibling timeout")
	}
}

func TestNewServiceDeduplicatesProviders(t *testing.T) {
	service := NewService([]Provider{
		&fakeProvider{name: "Dup"},
		&fakeProvider{name: "dup"},
		nil,
		&fakeProvider{name: ""},
		&fakeProvider{name: "solo"},
	}, time.Second)

	names := service.Providers()
	if len(names) != 2 || names[0] != "dup" || names[1] != "solo" {
		t.Fatalf("Providers() = %v, want [dup solo]", names)
	}
}
