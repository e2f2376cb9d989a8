package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/newsfeed-import/app/cache"
	"github.com/lysyi3m/newsfeed-import/app/database"
	"github.com/lysyi3m/newsfeed-import/app/news"
)

func NewHandler(open database.SessionOpener, reports ReportSource, channel news.Channel, feedItems int) *Handler {
	return &Handler{
		open:      open,
		generator: news.NewGenerator(),
		reports:   reports,
		channel:   channel,
		feedItems: feedItems,
	}
}

// WithCache serves /feed from cache for ttl.
func (h *Handler) WithCache(cache FeedCache, ttl time.Duration) *Handler {
	h.cache = cache
	h.cacheTTL = ttl
	return h
}

func (h *Handler) GetFeed(c *gin.Context) {
	ctx := c.Request.Context()
	key := cache.FeedKey(h.channel.Link, h.feedItems)

	if h.cache != nil {
		content, found, err := h.cache.GetFeed(ctx, key)
		if err != nil {
			slog.Warn("Cache error", "operation", "get_feed", "error", err)
		}
		if found {
			c.Header("Content-Type", "application/xml; charset=utf-8")
			c.Header("X-Cache", "HIT")
			c.String(http.StatusOK, content)
			return
		}
	}

	session, err := h.open(ctx)
	if err != nil {
		slog.Error("Database error", "operation", "open_session", "error", err)
		c.Status(http.StatusServiceUnavailable)
		return
	}
	defer session.Close()

	records, err := session.Imports().GetRecentImports(ctx, h.feedItems)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent_imports", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	rss, err := h.generator.Run(h.channel, records)
	if err != nil {
		slog.Error("RSS generation error", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	if h.cache != nil {
		if err := h.cache.SetFeed(ctx, key, rss, h.cacheTTL); err != nil {
			slog.Warn("Cache error", "operation", "set_feed", "error", err)
		}
		c.Header("X-Cache", "MISS")
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(records)))
	if len(records) > 0 {
		c.Header("X-Last-Updated", records[0].CreatedAt.Format(time.RFC3339))
	}

	c.String(http.StatusOK, rss)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	session, err := h.open(c.Request.Context())
	if err != nil {
		health["status"] = "unavailable"
		health["error"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}
	defer session.Close()

	if count, err := session.Imports().GetImportCount(c.Request.Context()); err == nil {
		health["imports"] = count
	}
	health["status"] = "ok"

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	report := h.reports.LastReport()
	if report == nil {
		c.JSON(http.StatusOK, gin.H{"last_cycle": nil})
		return
	}

	stats := gin.H{
		"last_cycle": report,
		"duration":   report.Duration.String(),
	}
	if report.Cadence != nil {
		stats["cadence"] = report.Cadence.String()
	}
	if report.NextRunAt != nil {
		stats["next_run_at"] = report.NextRunAt.In(time.Local).Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, stats)
}
