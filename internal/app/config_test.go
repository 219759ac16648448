package app

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"HTTP_ADDR", "REDIS_URL", "LOG_LEVEL", "LOG_FORMAT", "DATA_DIR",
		"HLS_DIR", "START_CHANNEL", "DOWNLOADING_TTL_SECONDS",
		"SEARCH_TIMEOUT_SECONDS", "SEARCH_USER_AGENT", "SEARCH_PROVIDERS",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("unexpected HTTPAddr: %q", cfg.HTTPAddr)
	}
	if cfg.RedisURL != "" {
		t.Errorf("unexpected RedisURL: %q", cfg.RedisURL)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("unexpected log config: %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.DataDir != "data" {
		t.Errorf("unexpected DataDir: %q", cfg.DataDir)
	}
	if cfg.HLSDir != filepath.Join("data", "hls") {
		t.Errorf("unexpected HLSDir: %q", cfg.HLSDir)
	}
	if cfg.StartChannel != "downloads:start" {
		t.Errorf("unexpected StartChannel: %q", cfg.StartChannel)
	}
	if cfg.DownloadingTTL != 3*time.Second {
		t.Errorf("unexpected DownloadingTTL: %v", cfg.DownloadingTTL)
	}
	if cfg.SearchTimeout != 10*time.Second {
		t.Errorf("unexpected SearchTimeout: %v", cfg.SearchTimeout)
	}
	if cfg.RateLimitRPS != 100 || cfg.RateLimitBurst != 200 {
		t.Errorf("unexpected rate limits: %d/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	endpoints, err := ParseProviders(cfg.SearchProviders)
	if err != nil {
		t.Fatalf("default providers must parse: %v", err)
	}
	if len(endpoints) != 3 {
		t.Errorf("unexpected default provider count: %d", len(endpoints))
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("DATA_DIR", "/srv/media")
	t.Setenv("HLS_DIR", "/srv/hls")
	t.Setenv("DOWNLOADING_TTL_SECONDS", "7")
	t.Setenv("SEARCH_TIMEOUT_SECONDS", "2")
	t.Setenv("RATE_LIMIT_RPS", "10")
	t.Setenv("RATE_LIMIT_BURST", "20")

	cfg := LoadConfig()
	if cfg.HTTPAddr != ":9999" {
		t.Errorf("unexpected HTTPAddr: %q", cfg.HTTPAddr)
	}
	if cfg.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("unexpected RedisURL: %q", cfg.RedisURL)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("unexpected LogLevel: %q", cfg.LogLevel)
	}
	if cfg.DataDir != "/srv/media" || cfg.HLSDir != "/srv/hls" {
		t.Errorf("unexpected dirs: %q %q", cfg.DataDir, cfg.HLSDir)
	}
	if cfg.DownloadingTTL != 7*time.Second {
		t.Errorf("unexpected DownloadingTTL: %v", cfg.DownloadingTTL)
	}
	if cfg.SearchTimeout != 2*time.Second {
		t.Errorf("unexpected SearchTimeout: %v", cfg.SearchTimeout)
	}
	if cfg.RateLimitRPS != 10 || cfg.RateLimitBurst != 20 {
		t.Errorf("unexpected rate limits: %d/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

func TestGetEnvIntIgnoresGarbage(t *testing.T) {
	t.Setenv("DOWNLOADING_TTL_SECONDS", "not-a-number")
	cfg := LoadConfig()
	if cfg.DownloadingTTL != 3*time.Second {
		t.Errorf("unexpected DownloadingTTL: %v", cfg.DownloadingTTL)
	}

	t.Setenv("DOWNLOADING_TTL_SECONDS", "-5")
	cfg = LoadConfig()
	if cfg.DownloadingTTL != 3*time.Second {
		t.Errorf("negative should fall back, got %v", cfg.DownloadingTTL)
	}
}

func TestParseProviders(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"single", "piratebay=https://apibay.org/q.php?q=%s", 1, false},
		{"multiple", "a=https://a.example/%s,b=https://b.example/?q=%s", 2, false},
		{"dedup by name", "a=https://a.example/%s,A=https://other.example/%s", 1, false},
		{"trailing comma", "a=https://a.example/%s,", 1, false},
		{"missing equals", "justaname", 0, true},
		{"empty endpoint", "a=", 0, true},
		{"no placeholder", "a=https://a.example/search", 0, true},
		{"two placeholders", "a=https://a.example/%s/%s", 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			endpoints, err := ParseProviders(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(endpoints) != tc.want {
				t.Errorf("unexpected endpoint count: %d", len(endpoints))
			}
		})
	}
}

func TestParseProvidersNormalizesNames(t *testing.T) {
	endpoints, err := ParseProviders(" PirateBay = https://apibay.org/q.php?q=%s ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(endpoints) != 1 || endpoints[0].Name != "piratebay" {
		t.Errorf("unexpected endpoints: %#v", endpoints)
	}
}
