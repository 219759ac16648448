package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr        string
	RedisURL        string
	LogLevel        string
	LogFormat       string
	DataDir         string
	HLSDir          string
	StartChannel    string
	DownloadingTTL  time.Duration
	SearchTimeout   time.Duration
	SearchUserAgent string
	SearchProviders string
	RateLimitRPS    int
	RateLimitBurst  int
}

// defaultProviders is the built-in provider endpoint set, used when
// SEARCH_PROVIDERS is not configured. Each template carries a %s slot
// for the URL-escaped title.
const defaultProviders = "piratebay=https://apibay.org/q.php?q=%s," +
	"yts=https://yts.mx/api/v2/list_movies.json?query_term=%s," +
	"eztv=https://eztv.re/api/get-torrents?keywords=%s"

func LoadConfig() Config {
	dataDir := getEnv("DATA_DIR", "data")
	return Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		RedisURL:        getEnv("REDIS_URL", ""),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", "text")),
		DataDir:         dataDir,
		HLSDir:          getEnv("HLS_DIR", filepath.Join(dataDir, "hls")),
		StartChannel:    getEnv("START_CHANNEL", "downloads:start"),
		DownloadingTTL:  time.Duration(getEnvInt("DOWNLOADING_TTL_SECONDS", 3)) * time.Second,
		SearchTimeout:   time.Duration(getEnvInt("SEARCH_TIMEOUT_SECONDS", 10)) * time.Second,
		SearchUserAgent: getEnv("SEARCH_USER_AGENT", "mediastream/1.0"),
		SearchProviders: getEnv("SEARCH_PROVIDERS", defaultProviders),
		RateLimitRPS:    getEnvInt("RATE_LIMIT_RPS", 100),
		RateLimitBurst:  getEnvInt("RATE_LIMIT_BURST", 200),
	}
}

// ProviderEndpoint is a named search endpoint template. The Endpoint
// must contain exactly one %s placeholder for the escaped title.
type ProviderEndpoint struct {
	Name     string
	Endpoint string
}

// ParseProviders splits a comma-separated "name=template" list into
// endpoints, dropping duplicates by name and rejecting malformed entries.
func ParseProviders(raw string) ([]ProviderEndpoint, error) {
	entries := strings.Split(raw, ",")
	out := make([]ProviderEndpoint, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, endpoint, ok := strings.Cut(entry, "=")
		name = strings.ToLower(strings.TrimSpace(name))
		endpoint = strings.TrimSpace(endpoint)
		if !ok || name == "" || endpoint == "" {
			return nil, fmt.Errorf("malformed provider entry: %q", entry)
		}
		if strings.Count(endpoint, "%s") != 1 {
			return nil, fmt.Errorf("provider %s: endpoint needs exactly one %%s placeholder", name)
		}
		if _, exists := seen[name]; exists {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, ProviderEndpoint{Name: name, Endpoint: endpoint})
	}
	return out, nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
