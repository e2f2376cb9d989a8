package tasks

import (
	"context"

	"github.com/lysyi3m/newsfeed-import/app/news"
)

// PageFetcher returns the raw body of a listing page.
type PageFetcher interface {
	Run(ctx context.Context, page int) ([]byte, error)
}

type RecordExtractor interface {
	Run(data []byte) ([]news.Record, error)
}

// TaskSchedulerInterface is what the entrypoint and the status server need
// from the import loop.
//
//	scheduler := NewScheduler(config, opener, fetcher, extractor, filterer)
//	scheduler.Start()
//	defer scheduler.Stop()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	Done() <-chan struct{}
	Err() error
	RunOnce(ctx context.Context) (*CycleReport, error)
	LastReport() *CycleReport
}

var (
	_ PageFetcher     = (*news.Fetcher)(nil)
	_ RecordExtractor = (*news.Extractor)(nil)
)
