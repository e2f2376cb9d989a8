package api

import (
	"context"
	"time"

	"github.com/lysyi3m/newsfeed-import/app/cache"
	"github.com/lysyi3m/newsfeed-import/app/database"
	"github.com/lysyi3m/newsfeed-import/app/news"
	"github.com/lysyi3m/newsfeed-import/app/tasks"
)

type GeneratorInterface interface {
	Run(channel news.Channel, records []database.ImportedRecord) (string, error)
}

var _ GeneratorInterface = (*news.Generator)(nil)

// ReportSource exposes the outcome of the latest import cycle.
type ReportSource interface {
	LastReport() *tasks.CycleReport
}

var _ ReportSource = (tasks.TaskSchedulerInterface)(nil)

// FeedCache stores rendered feeds. It is optional.
type FeedCache interface {
	GetFeed(ctx context.Context, key string) (string, bool, error)
	SetFeed(ctx context.Context, key, content string, ttl time.Duration) error
}

var _ FeedCache = (*cache.Cache)(nil)

type Handler struct {
	open      database.SessionOpener
	generator GeneratorInterface
	reports   ReportSource
	channel   news.Channel
	feedItems int
	cache     FeedCache
	cacheTTL  time.Duration
}
