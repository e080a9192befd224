package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Bodobolero/rssdeduper/app/database"
	"github.com/Bodobolero/rssdeduper/app/feed"
)

type stubFeedRepo struct {
	feeds []database.Feed
	stats database.Stats
}

func (s *stubFeedRepo) GetFeed(url string) (*database.Feed, error) { return nil, nil }
func (s *stubFeedRepo) GetFeeds() ([]database.Feed, error)         { return s.feeds, nil }
func (s *stubFeedRepo) GetFeedCount() (int, error)                 { return len(s.feeds), nil }
func (s *stubFeedRepo) UpsertFeed(url, filename string) error      { return nil }
func (s *stubFeedRepo) UpdateFeedMetadata(url, title, link, description, language string) error {
	return nil
}
func (s *stubFeedRepo) UpdateFeedResult(url, lastBuildDate string, processedAt time.Time, kept, duplicates, expired int) error {
	return nil
}
func (s *stubFeedRepo) UpdateFeedError(url, message string) error { return nil }
func (s *stubFeedRepo) GetStats() (*database.Stats, error)        { return &s.stats, nil }

var _ database.FeedRepository = (*stubFeedRepo)(nil)

func setupTestServer(t *testing.T, apiKey string) (*httptest.Server, string) {
	t.Helper()

	targetDir := t.TempDir()
	repo := &stubFeedRepo{stats: database.Stats{Feeds: 2, ItemsKept: 10}}
	handler := NewHandler(repo, feed.NewRegistry(), targetDir, filepath.Join(targetDir, "feeds_dd.opml"))

	server := httptest.NewServer(NewServer(handler, apiKey))
	t.Cleanup(server.Close)

	return server, targetDir
}

func TestGetFeedFile(t *testing.T) {
	server, targetDir := setupTestServer(t, "")

	content := "<rss version=\"2.0\"><channel><title>News</title></channel></rss>"
	if err := os.WriteFile(filepath.Join(targetDir, "abc.rss"), []byte(content), 0o644); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	resp, err := http.Get(server.URL + "/feeds/abc.rss")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/xml; charset=utf-8" {
		t.Errorf("Expected XML content type, got %q", ct)
	}
}

func TestGetFeedFileRejectsBadNames(t *testing.T) {
	server, _ := setupTestServer(t, "")

	for _, path := range []string{
		"/feeds/abc.xml",
		"/feeds/..%2Fsecret.rss",
	} {
		resp, err := http.Get(server.URL + path)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			t.Errorf("Expected %s to be rejected, got 200", path)
		}
	}
}

func TestGetFeedFileMissing(t *testing.T) {
	server, _ := setupTestServer(t, "")

	resp, err := http.Get(server.URL + "/feeds/unknown.rss")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}
}

func TestAPIRequiresKey(t *testing.T) {
	server, _ := setupTestServer(t, "secret")

	resp, err := http.Get(server.URL + "/api/feeds")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without key, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest("GET", server.URL+"/api/feeds", nil)
	req.Header.Set("X-API-Key", "secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200 with key, got %d", resp.StatusCode)
	}
}

func TestGetStats(t *testing.T) {
	server, _ := setupTestServer(t, "")

	resp, err := http.Get(server.URL + "/stats")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
}
