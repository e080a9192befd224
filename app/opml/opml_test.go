package opml

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sourceOPML = `<?xml version="1.0" encoding="UTF-8"?>
<opml version="1.0">
  <head>
    <title>Subscriptions</title>
  </head>
  <body>
    <outline text="News" title="News">
      <outline type="rss" text="FAZ" title="FAZ" xmlUrl="https://www.faz.net/rss/aktuell/"/>
      <outline type="rss" text="StZ" title="StZ" xmlUrl="https://www.stuttgarter-zeitung.de/news.rss"/>
    </outline>
  </body>
</opml>`

func writeSourceOPML(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "source.opml")
	if err := os.WriteFile(path, []byte(sourceOPML), 0o644); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	return path
}

func TestModify_PatchesOutlines(t *testing.T) {
	path := writeSourceOPML(t, t.TempDir())

	dom, err := Open(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	dom.Modify("https://rss.example.com/", nil)

	feeds := dom.Feeds()
	if len(feeds) != 2 {
		t.Fatalf("Expected 2 feeds collected, got %d", len(feeds))
	}
	if feeds[0].URL != "https://www.faz.net/rss/aktuell/" {
		t.Errorf("Expected original source URL, got %q", feeds[0].URL)
	}
	if !strings.HasSuffix(feeds[0].Filename, "https_www_faz_net_rss_aktuell_.rss") {
		t.Errorf("Expected sanitized filename suffix, got %q", feeds[0].Filename)
	}
	// 36-char UUID prefix keeps filenames unique per subscription.
	if len(feeds[0].Filename) <= 36+len("https_www_faz_net_rss_aktuell_.rss") {
		t.Errorf("Expected UUID filename prefix, got %q", feeds[0].Filename)
	}

	target := filepath.Join(t.TempDir(), "target.opml")
	if err := dom.Write(target); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	patched, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(string(patched), `title="DD_FAZ"`) {
		t.Errorf("Expected DD_ title prefix in patched OPML")
	}
	if !strings.Contains(string(patched), `xmlUrl="https://rss.example.com/`) {
		t.Errorf("Expected rewritten xmlUrl in patched OPML")
	}
	if strings.Contains(string(patched), `xmlUrl="https://www.faz.net/rss/aktuell/"`) {
		t.Errorf("Original xmlUrl should have been rewritten")
	}
	// Folder outlines are prefixed too but collect nothing.
	if !strings.Contains(string(patched), `title="DD_News"`) {
		t.Errorf("Expected folder outline to be prefixed")
	}
}

func TestModify_AlreadyPatchedKeepsFilenames(t *testing.T) {
	dir := t.TempDir()
	path := writeSourceOPML(t, dir)

	dom, err := Open(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	dom.Modify("https://rss.example.com/", nil)
	first := dom.Feeds()

	target := filepath.Join(dir, "patched.opml")
	if err := dom.Write(target); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	previous := make(map[string]string)
	for _, ref := range first {
		previous[ref.Filename] = ref.URL
	}

	// Re-patching the patched OPML must resolve the same pairs.
	patched, err := Open(target)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	patched.Modify("https://rss.example.com/", previous)
	second := patched.Feeds()

	if len(second) != len(first) {
		t.Fatalf("Expected %d feeds, got %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Feed %d changed across re-patching: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestSaveAndReadFeeds(t *testing.T) {
	path := writeSourceOPML(t, t.TempDir())

	dom, err := Open(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	dom.Modify("https://rss.example.com/", nil)

	feedsFile := filepath.Join(t.TempDir(), "feeds.json")
	if err := dom.SaveFeeds(feedsFile); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	feeds, err := ReadFeeds(feedsFile)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(feeds) != 2 {
		t.Fatalf("Expected 2 feeds, got %d", len(feeds))
	}
	for i := range feeds {
		if feeds[i] != dom.Feeds()[i] {
			t.Errorf("Feed %d did not round-trip: %+v vs %+v", i, feeds[i], dom.Feeds()[i])
		}
	}
}

func TestConvertURLToFilename(t *testing.T) {
	got := convertURLToFilename("https://www.faz.net/aktuell/finanzen/")
	if got != "https_www_faz_net_aktuell_finanzen_.rss" {
		t.Errorf("Expected sanitized filename, got %q", got)
	}
}
