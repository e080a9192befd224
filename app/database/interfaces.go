package database

import (
	"time"
)

// FeedRepository handles persistence of per-feed processing state, so a
// restart neither re-publishes unchanged feeds nor loses the counters the
// status API reports.
type FeedRepository interface {
	GetFeed(url string) (*Feed, error)
	GetFeeds() ([]Feed, error)
	GetFeedCount() (int, error)

	UpsertFeed(url, filename string) error
	UpdateFeedMetadata(url, title, link, description, language string) error
	UpdateFeedResult(url, lastBuildDate string, processedAt time.Time, kept, duplicates, expired int) error
	UpdateFeedError(url, message string) error

	GetStats() (*Stats, error)
}
