package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Bodobolero/rssdeduper/app/database"
	"github.com/Bodobolero/rssdeduper/app/feed"
)

type ProcessFeedTask struct {
	Task
	feed       *feed.Feed
	rewriter   *feed.Rewriter
	parser     *feed.Parser
	feedRepo   database.FeedRepository
	httpClient *http.Client
	userAgent  string
}

func NewProcessFeedTask(f *feed.Feed, rewriter *feed.Rewriter, parser *feed.Parser,
	feedRepo database.FeedRepository, httpClient *http.Client, userAgent string) *ProcessFeedTask {
	return &ProcessFeedTask{
		Task:       NewTask(TaskTypeProcessFeed, f.URL),
		feed:       f,
		rewriter:   rewriter,
		parser:     parser,
		feedRepo:   feedRepo,
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

func (t *ProcessFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	changed, err := t.feed.Read(ctx, t.httpClient, t.userAgent)
	if err != nil {
		t.recordError(err)
		return fmt.Errorf("failed to read feed: %w", err)
	}

	if !changed {
		slog.Debug("Feed unchanged since last pass, skipping", "feed", t.FeedURL)
		return nil
	}

	t.storeFeedMetadata()

	stats, err := t.feed.Dedupe(t.rewriter)
	if err != nil {
		t.recordError(err)
		return fmt.Errorf("failed to dedupe feed: %w", err)
	}

	if err := t.feed.Write(); err != nil {
		t.recordError(err)
		return fmt.Errorf("failed to publish feed: %w", err)
	}

	err = t.feedRepo.UpdateFeedResult(t.FeedURL, t.feed.LastBuildDate(), time.Now().UTC(),
		stats.Kept, stats.DuplicatesRemoved, stats.ExpiredRemoved)
	if err != nil {
		return fmt.Errorf("failed to store feed result: %w", err)
	}

	slog.Info("Task completed",
		"type", "ProcessFeed",
		"feed", t.FeedURL,
		"duration", t.GetDuration(),
		"kept", stats.Kept,
		"canonicalized", stats.Canonicalized,
		"duplicates", stats.DuplicatesRemoved,
		"expired", stats.ExpiredRemoved)

	return nil
}

// storeFeedMetadata is best effort. The published file is built from the
// original document, so a metadata parse failure must not abort the pass.
func (t *ProcessFeedTask) storeFeedMetadata() {
	metadata, err := t.parser.Run(t.feed.Content())
	if err != nil {
		slog.Warn("Failed to parse feed metadata", "feed", t.FeedURL, "error", err)
		return
	}

	err = t.feedRepo.UpdateFeedMetadata(t.FeedURL, metadata.Title, metadata.Link,
		metadata.Description, metadata.Language)
	if err != nil {
		slog.Warn("Failed to store feed metadata", "feed", t.FeedURL, "error", err)
	}
}

func (t *ProcessFeedTask) recordError(cause error) {
	if err := t.feedRepo.UpdateFeedError(t.FeedURL, cause.Error()); err != nil {
		slog.Warn("Failed to store feed error", "feed", t.FeedURL, "error", err)
	}
}
