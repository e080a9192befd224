package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ FeedRepository = (*FeedRepositoryImpl)(nil)

type FeedRepositoryImpl struct {
	db *DB
}

func NewFeedRepository(db *DB) *FeedRepositoryImpl {
	return &FeedRepositoryImpl{db: db}
}

const feedColumns = `id, url, filename, title, link, description, language,
	last_build_date, last_processed_at, last_error,
	items_kept, duplicates_removed, expired_removed, created_at, updated_at`

func (r *FeedRepositoryImpl) scanFeed(row interface{ Scan(...any) error }) (*Feed, error) {
	var feed Feed
	var lastProcessedAt sql.NullTime

	err := row.Scan(
		&feed.ID, &feed.URL, &feed.Filename, &feed.Title, &feed.Link,
		&feed.Description, &feed.Language, &feed.LastBuildDate,
		&lastProcessedAt, &feed.LastError,
		&feed.ItemsKept, &feed.DuplicatesRemoved, &feed.ExpiredRemoved,
		&feed.CreatedAt, &feed.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastProcessedAt.Valid {
		feed.LastProcessedAt = &lastProcessedAt.Time
	}
	return &feed, nil
}

func (r *FeedRepositoryImpl) GetFeed(url string) (*Feed, error) {
	row := r.db.QueryRow(`
		SELECT `+feedColumns+`
		FROM feeds
		WHERE url = ?
	`, url)

	feed, err := r.scanFeed(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}
	return feed, nil
}

func (r *FeedRepositoryImpl) GetFeeds() ([]Feed, error) {
	rows, err := r.db.Query(`
		SELECT ` + feedColumns + `
		FROM feeds
		ORDER BY url
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get feeds: %w", err)
	}
	defer rows.Close()

	var feeds []Feed
	for rows.Next() {
		feed, err := r.scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		feeds = append(feeds, *feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}
	return feeds, nil
}

func (r *FeedRepositoryImpl) GetFeedCount() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM feeds").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}

// UpsertFeed registers a feed by source URL, updating the published
// filename when the feed list was regenerated.
func (r *FeedRepositoryImpl) UpsertFeed(url, filename string) error {
	now := time.Now().UTC()
	_, err := r.db.Exec(`
		INSERT INTO feeds (id, url, filename, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			filename = excluded.filename,
			updated_at = excluded.updated_at
	`, uuid.NewString(), url, filename, now, now)

	if err != nil {
		return fmt.Errorf("failed to upsert feed: %w", err)
	}
	return nil
}

func (r *FeedRepositoryImpl) UpdateFeedMetadata(url, title, link, description, language string) error {
	_, err := r.db.Exec(`
		UPDATE feeds
		SET title = ?, link = ?, description = ?, language = ?, updated_at = ?
		WHERE url = ?
	`, title, link, description, language, time.Now().UTC(), url)

	if err != nil {
		return fmt.Errorf("failed to update feed metadata: %w", err)
	}
	return nil
}

// UpdateFeedResult records a successful pass: the build marker for the
// change check after a restart, and the item counters.
func (r *FeedRepositoryImpl) UpdateFeedResult(url, lastBuildDate string, processedAt time.Time, kept, duplicates, expired int) error {
	_, err := r.db.Exec(`
		UPDATE feeds
		SET last_build_date = ?, last_processed_at = ?, last_error = '',
		    items_kept = ?, duplicates_removed = ?, expired_removed = ?,
		    updated_at = ?
		WHERE url = ?
	`, lastBuildDate, processedAt, kept, duplicates, expired, time.Now().UTC(), url)

	if err != nil {
		return fmt.Errorf("failed to update feed result: %w", err)
	}
	return nil
}

func (r *FeedRepositoryImpl) UpdateFeedError(url, message string) error {
	_, err := r.db.Exec(`
		UPDATE feeds
		SET last_error = ?, updated_at = ?
		WHERE url = ?
	`, message, time.Now().UTC(), url)

	if err != nil {
		return fmt.Errorf("failed to update feed error: %w", err)
	}
	return nil
}

func (r *FeedRepositoryImpl) GetStats() (*Stats, error) {
	var stats Stats
	err := r.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN last_error != '' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(items_kept), 0),
		       COALESCE(SUM(duplicates_removed), 0),
		       COALESCE(SUM(expired_removed), 0)
		FROM feeds
	`).Scan(&stats.Feeds, &stats.Failing, &stats.ItemsKept, &stats.DuplicatesRemoved, &stats.ExpiredRemoved)

	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return &stats, nil
}
