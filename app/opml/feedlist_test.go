package opml

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCheckAndInit_RegeneratesAndStays(t *testing.T) {
	dir := t.TempDir()
	source := writeSourceOPML(t, dir)
	feedsFile := filepath.Join(dir, "feeds.json")
	targetOPML := filepath.Join(dir, "target.opml")
	targetDir := filepath.Join(dir, "rss")
	if err := os.Mkdir(targetDir, 0o755); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	feeds, err := CheckAndInit(source, feedsFile, "https://rss.example.com/", targetOPML, targetDir)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(feeds) != 2 {
		t.Fatalf("Expected 2 feeds, got %d", len(feeds))
	}
	if _, err := os.Stat(targetOPML); err != nil {
		t.Errorf("Expected target OPML to be written: %v", err)
	}

	// A second call without touching the OPML reuses the persisted list.
	again, err := CheckAndInit(source, feedsFile, "https://rss.example.com/", targetOPML, targetDir)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for i := range feeds {
		if feeds[i] != again[i] {
			t.Errorf("Feed %d changed without OPML modification: %+v vs %+v", i, feeds[i], again[i])
		}
	}
}

func TestCheckAndInit_OPMLNewerTriggersRegeneration(t *testing.T) {
	dir := t.TempDir()
	source := writeSourceOPML(t, dir)
	feedsFile := filepath.Join(dir, "feeds.json")
	targetOPML := filepath.Join(dir, "target.opml")
	targetDir := filepath.Join(dir, "rss")

	if _, err := CheckAndInit(source, feedsFile, "https://rss.example.com/", targetOPML, targetDir); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Bump the OPML past the feeds file.
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(source, future, future); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	regen, err := needsRegeneration(feedsFile, source)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !regen {
		t.Errorf("Expected regeneration when OPML is newer than feeds file")
	}
}

func TestCheckAndInit_MissingOPMLFails(t *testing.T) {
	dir := t.TempDir()
	_, err := CheckAndInit(filepath.Join(dir, "absent.opml"), filepath.Join(dir, "feeds.json"),
		"https://rss.example.com/", filepath.Join(dir, "target.opml"), dir)
	if err == nil {
		t.Errorf("Expected error for missing source OPML")
	}
}

func TestRemoveStaleFiles(t *testing.T) {
	dir := t.TempDir()

	keep := "keep-me.rss"
	for _, name := range []string{keep, "stale.rss", "not-a-feed.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	err := removeStaleFiles(dir, []FeedRef{{URL: "https://x/news", Filename: keep}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, keep)); err != nil {
		t.Errorf("Referenced file should survive: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "stale.rss")); !os.IsNotExist(err) {
		t.Errorf("Stale .rss file should be removed")
	}
	if _, err := os.Stat(filepath.Join(dir, "not-a-feed.txt")); err != nil {
		t.Errorf("Non-rss files should be left alone: %v", err)
	}
}
