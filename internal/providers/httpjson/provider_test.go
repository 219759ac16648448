package httpjson

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const testHash = "abcdef1234567890abcdef1234567890abcdef12"

func TestSearchParsesArrayPayload(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"name":"Ubuntu 24.04 1080p","info_hash":"ABCDEF1234567890ABCDEF1234567890ABCDEF12","size":"2147483648","seeders":"1200","leechers":"80"}
		]`))
	}))
	defer server.Close()

	provider := NewProvider(Config{
		Name:     "piratebay",
		Endpoint: server.URL + "/q.php?q=%s",
		Client:   server.Client(),
	})

	torrents, err := provider.Search(context.Background(), "ubuntu 24.04")
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if gotPath != "/q.php?q=ubuntu+24.04" {
		t.Errorf("unexpected request path: %s", gotPath)
	}
	if len(torrents) != 1 {
		t.Fatalf("unexpected torrent count: %d", len(torrents))
	}
	got := torrents[0]
	if got.InfoHash != testHash {
		t.Errorf("unexpected info hash: %s", got.InfoHash)
	}
	if got.Seeders != 1200 || got.Leechers != 80 || got.SizeBytes != 2147483648 {
		t.Errorf("unexpected counters: %#v", got)
	}
	if got.Quality != "1080p" {
		t.Errorf("unexpected quality: %q", got.Quality)
	}
	if !strings.HasPrefix(got.Magnet, "magnet:?xt=urn:btih:"+testHash) {
		t.Errorf("unexpected magnet: %s", got.Magnet)
	}
}

func TestSearchWrapsSingleObjectPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"Solo Result 1080p","info_hash":"` + testHash + `","size":"734003200","seeders":7,"leechers":2}`))
	}))
	defer server.Close()

	provider := NewProvider(Config{
		Name:     "piratebay",
		Endpoint: server.URL + "/q.php?q=%s",
		Client:   server.Client(),
	})

	torrents, err := provider.Search(context.Background(), "solo result")
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(torrents) != 1 {
		t.Fatalf("unexpected torrent count: %d", len(torrents))
	}
	if torrents[0].Name != "Solo Result 1080p" || torrents[0].Seeders != 7 {
		t.Errorf("unexpected descriptor: %#v", torrents[0])
	}
	if torrents[0].SizeBytes != 734003200 {
		t.Errorf("unexpected size: %d", torrents[0].SizeBytes)
	}
}

func TestSearchEmptyForPlaceholderObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok","message":"nothing matched"}`))
	}))
	defer server.Close()

	provider := NewProvider(Config{Name: "yts", Endpoint: server.URL + "/api?query=%s", Client: server.Client()})

	torrents, err := provider.Search(context.Background(), "anything")
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(torrents) != 0 {
		t.Fatalf("unexpected torrents: %#v", torrents)
	}
}

func TestSearchParsesEnvelopePayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"title":"Some Movie 720p","info_hash":"` + testHash + `","size":1073741824,"seeders":5,"leechers":1,"language":"en"}]}`))
	}))
	defer server.Close()

	provider := NewProvider(Config{
		Name:     "yts",
		Endpoint: server.URL + "/api?query=%s",
		Client:   server.Client(),
	})

	torrents, err := provider.Search(context.Background(), "some movie")
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(torrents) != 1 {
		t.Fatalf("unexpected torrent count: %d", len(torrents))
	}
	if torrents[0].Name != "Some Movie 720p" || torrents[0].Language != "en" {
		t.Errorf("unexpected descriptor: %#v", torrents[0])
	}
	if torrents[0].SizeBytes != 1073741824 {
		t.Errorf("unexpected size: %d", torrents[0].SizeBytes)
	}
}

func TestSearchSkipsInvalidItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"name":"No results returned","info_hash":"0000000000000000000000000000000000000000"},
			{"name":"Missing hash","info_hash":"junk"},
			{"name":"Valid","info_hash":"` + testHash + `","seeders":3}
		]`))
	}))
	defer server.Close()

	provider := NewProvider(Config{Name: "eztv", Endpoint: server.URL + "/?q=%s", Client: server.Client()})

	torrents, err := provider.Search(context.Background(), "anything")
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(torrents) != 1 || torrents[0].Name != "Valid" {
		t.Fatalf("unexpected torrents: %#v", torrents)
	}
}

func TestSearchHTTPErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	provider := NewProvider(Config{Name: "piratebay", Endpoint: server.URL + "/?q=%s", Client: server.Client()})

	if _, err := provider.Search(context.Background(), "anything"); err == nil {
		t.Fatal("expected error for HTTP 502")
	} else if !strings.Contains(err.Error(), "provider HTTP 502") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSearchRejectsBadEndpointTemplate(t *testing.T) {
	provider := NewProvider(Config{Name: "broken", Endpoint: "https://example.org/search"})
	if _, err := provider.Search(context.Background(), "anything"); err == nil {
		t.Fatal("expected error for endpoint without placeholder")
	}
}

func TestSearchHonorsContextCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	provider := NewProvider(Config{Name: "slow", Endpoint: server.URL + "/?q=%s", Client: server.Client()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := provider.Search(ctx, "anything"); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestSearchKeepsProvidedMagnet(t *testing.T) {
	magnet := "magnet:?xt=urn:btih:" + testHash + "&tr=udp%3A%2F%2Fcustom%2Fannounce"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name":"Has Magnet","info_hash":"` + testHash + `","magnet_url":"` + magnet + `"}]`))
	}))
	defer server.Close()

	provider := NewProvider(Config{Name: "eztv", Endpoint: server.URL + "/?q=%s", Client: server.Client()})

	torrents, err := provider.Search(context.Background(), "anything")
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(torrents) != 1 || torrents[0].Magnet != magnet {
		t.Fatalf("unexpected torrents: %#v", torrents)
	}
}
