package api

import (
	"github.com/Bodobolero/rssdeduper/app/database"
	"github.com/Bodobolero/rssdeduper/app/feed"
)

type Handler struct {
	feedRepo   database.FeedRepository
	registry   *feed.Registry
	targetDir  string
	targetOPML string
}
