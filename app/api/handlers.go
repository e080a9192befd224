package api

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Bodobolero/rssdeduper/app/database"
	"github.com/Bodobolero/rssdeduper/app/feed"
)

func NewHandler(feedRepo database.FeedRepository, registry *feed.Registry,
	targetDir, targetOPML string) *Handler {
	return &Handler{
		feedRepo:   feedRepo,
		registry:   registry,
		targetDir:  targetDir,
		targetOPML: targetOPML,
	}
}

func (h *Handler) GetFeedFile(c *gin.Context) {
	file := c.Param("file")
	if file == "" || file != filepath.Base(file) || !strings.HasSuffix(file, ".rss") {
		c.Status(http.StatusBadRequest)
		return
	}

	path := filepath.Join(h.targetDir, file)
	if _, err := os.Stat(path); err != nil {
		slog.Debug("Published feed file not found", "file", file)
		c.Status(http.StatusNotFound)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.File(path)
}

func (h *Handler) GetOPML(c *gin.Context) {
	if _, err := os.Stat(h.targetOPML); err != nil {
		slog.Error("Patched OPML not found", "file", h.targetOPML, "error", err)
		c.Status(http.StatusNotFound)
		return
	}

	c.Header("Content-Type", "text/x-opml; charset=utf-8")
	c.File(h.targetOPML)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if feedCount, err := h.feedRepo.GetFeedCount(); err == nil {
		health["feeds"] = feedCount
	}

	health["registry_entries"] = h.registry.Len()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.feedRepo.GetStats()
	if err != nil {
		slog.Error("Database error", "operation", "get_stats", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"feeds":              stats.Feeds,
		"failing":            stats.Failing,
		"items_kept":         stats.ItemsKept,
		"duplicates_removed": stats.DuplicatesRemoved,
		"expired_removed":    stats.ExpiredRemoved,
		"registry_entries":   h.registry.Len(),
	})
}

func (h *Handler) APIListFeeds(c *gin.Context) {
	stored, err := h.feedRepo.GetFeeds()
	if err != nil {
		slog.Error("Database error", "operation", "list_feeds", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	feeds := make([]map[string]interface{}, 0, len(stored))

	for _, f := range stored {
		feedInfo := map[string]interface{}{
			"url":                f.URL,
			"filename":           f.Filename,
			"title":              f.Title,
			"language":           f.Language,
			"items_kept":         f.ItemsKept,
			"duplicates_removed": f.DuplicatesRemoved,
			"expired_removed":    f.ExpiredRemoved,
			"last_error":         f.LastError,
		}

		if f.LastProcessedAt != nil {
			feedInfo["last_processed_at"] = f.LastProcessedAt.Format(time.RFC3339)
		}

		feeds = append(feeds, feedInfo)
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(feeds),
		"feeds": feeds,
	})
}
