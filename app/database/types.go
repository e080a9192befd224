package database

import (
	"time"
)

type Feed struct {
	ID                string // Database UUID
	URL               string // RSS feed source URL
	Filename          string // Published filename under the target directory
	Title             string
	Link              string // Homepage URL from the feed's <link> element
	Description       string
	Language          string
	LastBuildDate     string // Raw build-marker line used for the cheap change check
	LastProcessedAt   *time.Time
	LastError         string
	ItemsKept         int
	DuplicatesRemoved int
	ExpiredRemoved    int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Stats aggregates processing counters across all feeds.
type Stats struct {
	Feeds             int
	Failing           int
	ItemsKept         int
	DuplicatesRemoved int
	ExpiredRemoved    int
}
