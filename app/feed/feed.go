package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
)

// Feed holds the per-feed state that persists across processing passes: the
// source URL, the target path of the published file, the most recently
// fetched content, and the last seen <lastBuildDate> line used for the
// cheap change check.
type Feed struct {
	URL      string
	Filename string

	content       []byte
	lastBuildDate string
}

func NewFeed(url, filename string) *Feed {
	return &Feed{
		URL:      url,
		Filename: filename,
	}
}

// Read fetches the feed content and reports whether it has changed since
// the previous read. The check scans the raw text for the build-marker line
// with plain substring matching, skipping the cost of a full XML parse when
// nothing changed. Feeds without a marker always report changed, which
// costs one extra rewriting pass instead of silently missing updates.
func (f *Feed) Read(ctx context.Context, client *http.Client, userAgent string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return false, newFeedError(f.URL, StageFetch, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return false, newFeedError(f.URL, StageFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, newFeedError(f.URL, StageFetch, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, newFeedError(f.URL, StageFetch, err)
	}
	f.content = data

	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(strings.TrimLeft(line, " \t"), "<lastBuildDate>") {
			continue
		}
		marker := strings.TrimSpace(line)
		changed := f.lastBuildDate != marker
		f.lastBuildDate = marker
		slog.Debug("Feed change check", "url", f.URL, "changed", changed)
		return changed, nil
	}

	return true, nil
}

// Dedupe runs the rewriting pass over the last fetched content and replaces
// it with the pruned, deterministically serialized document.
func (f *Feed) Dedupe(rw *Rewriter) (Stats, error) {
	out, stats, err := rw.Run(f.content, f.URL)
	if err != nil {
		return Stats{}, err
	}
	f.content = out
	return stats, nil
}

// Write publishes the current content atomically: the bytes go to a sibling
// temporary file which is then renamed over the target, so a reader of the
// target path never observes a partial write. If the rename fails, the
// previous target content stays valid.
func (f *Feed) Write() error {
	tmp := f.Filename + ".tmp"
	if err := os.WriteFile(tmp, f.content, 0o644); err != nil {
		return newFeedError(f.URL, StagePersist, fmt.Errorf("temporary file %s cannot be written: %w", tmp, err))
	}
	if err := os.Rename(tmp, f.Filename); err != nil {
		os.Remove(tmp)
		return newFeedError(f.URL, StagePersist, fmt.Errorf("file %s cannot be renamed to %s: %w", tmp, f.Filename, err))
	}
	return nil
}

// Content returns the current in-memory document.
func (f *Feed) Content() []byte {
	return f.content
}

// LastBuildDate returns the last seen build-marker line, empty if none was
// observed yet.
func (f *Feed) LastBuildDate() string {
	return f.lastBuildDate
}

// SetLastBuildDate seeds the change check with a marker restored from the
// database, so a restart does not reprocess feeds that have not changed.
func (f *Feed) SetLastBuildDate(marker string) {
	f.lastBuildDate = marker
}
