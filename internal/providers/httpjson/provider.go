// Package httpjson implements a torrent index provider for JSON search
// APIs in the apibay family. The endpoint is a template with a single
// %s placeholder for the escaped query, so one implementation covers
// every configured index.
package httpjson

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"mediastream/internal/domain"
	"mediastream/internal/providers/common"
)

const (
	defaultUserAgent = "mediastream/1.0"
	maxPayloadBytes  = 4 * 1024 * 1024
)

var defaultTrackers = []string{
	"udp://tracker.opentrackr.org:1337/announce",
	"udp://open.stealth.si:80/announce",
	"udp://tracker.torrent.eu.org:451/announce",
}

type Config struct {
	// Name identifies the provider in aggregated results.
	Name string
	// Endpoint is a URL template containing exactly one %s that
	// receives the query-escaped search title.
	Endpoint  string
	UserAgent string
	Trackers  []string
	Client    *http.Client
}

type Provider struct {
	client    *http.Client
	name      string
	endpoint  string
	userAgent string
	trackers  []string
}

// apiItem tolerates both string and numeric encodings of the counter
// fields, which varies between indexes.
type apiItem struct {
	Name     string    `json:"name"`
	Title    string    `json:"title"`
	InfoHash string    `json:"info_hash"`
	Magnet   string    `json:"magnet_url"`
	Size     flexInt64 `json:"size"`
	Seeders  flexInt   `json:"seeders"`
	Leechers flexInt   `json:"leechers"`
	Language string    `json:"language"`
}

func NewProvider(cfg Config) *Provider {
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	trackers := cfg.Trackers
	if len(trackers) == 0 {
		trackers = append([]string(nil), defaultTrackers...)
	}

	return &Provider{
		client:    client,
		name:      strings.TrimSpace(cfg.Name),
		endpoint:  strings.TrimSpace(cfg.Endpoint),
		userAgent: userAgent,
		trackers:  trackers,
	}
}

func (p *Provider) Name() string {
	return p.name
}

func (p *Provider) Search(ctx context.Context, title string) ([]domain.TorrentDescriptor, error) {
	if strings.Count(p.endpoint, "%s") != 1 {
		return nil, fmt.Errorf("invalid endpoint template: %s", p.endpoint)
	}
	target := fmt.Sprintf(p.endpoint, url.QueryEscape(strings.TrimSpace(title)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("provider HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, err
	}

	items, err := parseAPIItems(payload)
	if err != nil {
		return nil, err
	}

	torrents := make([]domain.TorrentDescriptor, 0, len(items))
	for _, item := range items {
		descriptor, ok := p.toDescriptor(item)
		if !ok {
			continue
		}
		torrents = append(torrents, descriptor)
	}
	return torrents, nil
}

// parseAPIItems accepts a bare array, an envelope object with a
// data/torrents field, or a single bare torrent object, which gets
// wrapped into a one-element list. Placeholder objects such as apibay's
// "no results returned" survive parsing and are filtered later.
func parseAPIItems(payload []byte) ([]apiItem, error) {
	var items []apiItem
	if err := json.Unmarshal(payload, &items); err == nil {
		return items, nil
	}

	var envelope struct {
		Data     []apiItem `json:"data"`
		Torrents []apiItem `json:"torrents"`
	}
	if err := json.Unmarshal(payload, &envelope); err == nil {
		if len(envelope.Data) > 0 {
			return envelope.Data, nil
		}
		if len(envelope.Torrents) > 0 {
			return envelope.Torrents, nil
		}
		var single apiItem
		if err := json.Unmarshal(payload, &single); err == nil {
			return []apiItem{single}, nil
		}
		return nil, nil
	}

	return nil, fmt.Errorf("unexpected provider payload")
}

func (p *Provider) toDescriptor(item apiItem) (domain.TorrentDescriptor, bool) {
	name := common.CleanHTMLText(item.Name)
	if name == "" {
		name = common.CleanHTMLText(item.Title)
	}
	infoHash := common.NormalizeInfoHash(item.InfoHash)
	if name == "" || infoHash == "" {
		return domain.TorrentDescriptor{}, false
	}
	if strings.Contains(strings.ToLower(name), "no results returned") {
		return domain.TorrentDescriptor{}, false
	}

	magnet := strings.TrimSpace(item.Magnet)
	if magnet == "" {
		magnet = common.BuildMagnet(infoHash, name, p.trackers)
	}

	return domain.TorrentDescriptor{
		Name:      name,
		Seeders:   int(item.Seeders),
		Leechers:  int(item.Leechers),
		SizeBytes: int64(item.Size),
		InfoHash:  infoHash,
		Quality:   common.DetectQuality(name),
		Language:  strings.TrimSpace(item.Language),
		Magnet:    magnet,
	}, true
}

type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	value, err := flexParse(data)
	if err != nil {
		return err
	}
	*f = flexInt(value)
	return nil
}

type flexInt64 int64

func (f *flexInt64) UnmarshalJSON(data []byte) error {
	value, err := flexParse(data)
	if err != nil {
		return err
	}
	*f = flexInt64(value)
	return nil
}

func flexParse(data []byte) (int64, error) {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == `""` {
		return 0, nil
	}
	raw = strings.Trim(raw, `"`)
	value, err := strconv.ParseInt(raw, 10, 64)
	if err == nil {
		return value, nil
	}
	// Some indexes report size as a human readable string.
	if parsed := common.ParseHumanSize(raw); parsed > 0 {
		return parsed, nil
	}
	return 0, nil
}
