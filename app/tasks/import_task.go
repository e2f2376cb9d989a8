package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/lysyi3m/newsfeed-import/app/database"
	"github.com/lysyi3m/newsfeed-import/app/news"
	"golang.org/x/time/rate"
)

type ImportConfig struct {
	MaxPage   int
	PageDelay time.Duration
}

// ImportTask runs one import cycle: read the high-water mark and cadence,
// crawl listing pages until one has nothing new, and write the candidates
// oldest first inside a single transaction.
type ImportTask struct {
	Task
	config    ImportConfig
	open      database.SessionOpener
	fetcher   PageFetcher
	extractor RecordExtractor
	filterer  *news.Filterer
	Report    *CycleReport
}

func NewImportTask(config ImportConfig, open database.SessionOpener, fetcher PageFetcher, extractor RecordExtractor, filterer *news.Filterer) *ImportTask {
	task := NewTask(TaskTypeImportNews)

	return &ImportTask{
		Task:      task,
		config:    config,
		open:      open,
		fetcher:   fetcher,
		extractor: extractor,
		filterer:  filterer,
		Report:    &CycleReport{ID: task.ID},
	}
}

func (t *ImportTask) Execute(ctx context.Context) error {
	if t.StartedAt == nil {
		t.Start()
	}
	t.Report.StartedAt = *t.StartedAt

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	session, err := t.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Warn("Failed to close store session", "id", t.ID, "error", err)
		}
	}()

	highWater, err := session.Imports().MaxDateCreated(ctx)
	if err != nil {
		return err
	}
	t.Report.HighWater = &highWater

	setting, err := session.Settings().GetSetting(ctx)
	if err != nil {
		return err
	}
	cadence, err := ParseCadence(setting)
	if err != nil {
		return err
	}
	t.Report.Cadence = &cadence

	slog.Info("Last imported news", "date", highWater.Format(time.DateOnly), "cadence", cadence.String())

	candidates, err := t.crawl(ctx, highWater)
	if err != nil {
		return err
	}
	t.Report.Candidates = len(candidates)

	if err := t.write(ctx, session.Imports(), candidates); err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"id", t.ID,
		"duration", t.GetDuration(),
		"pages", t.Report.PagesScanned,
		"candidates", t.Report.Candidates,
		"duplicates", t.Report.Duplicates,
		"new", t.Report.Created)

	return nil
}

func (t *ImportTask) crawl(ctx context.Context, highWater time.Time) ([]news.Record, error) {
	limiter := rate.NewLimiter(rate.Every(t.config.PageDelay), 1)

	var candidates []news.Record
	for page := 0; page <= t.config.MaxPage; page++ {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		data, err := t.fetcher.Run(ctx, page)
		if err != nil {
			return nil, err
		}
		t.Report.PagesScanned++
		pagesFetched.Inc()

		records, err := t.extractor.Run(data)
		if err != nil {
			return nil, fmt.Errorf("page #%d: %w", page, err)
		}

		fresh := t.filterer.Run(records, highWater)
		slog.Debug("Page processed", "page", page, "length", len(data), "news", len(records), "candidates", len(fresh))

		if len(fresh) == 0 {
			break
		}
		candidates = append(candidates, fresh...)
	}

	return candidates, nil
}

func (t *ImportTask) write(ctx context.Context, imports database.ImportRepository, candidates []news.Record) error {
	if len(candidates) == 0 {
		return nil
	}

	slices.SortStableFunc(candidates, func(a, b news.Record) int {
		return a.DateCreated.Compare(b.DateCreated)
	})

	tx, err := imports.BeginImport(ctx)
	if err != nil {
		return err
	}

	for _, record := range candidates {
		inserted, err := tx.TryInsertIfAbsent(ctx, database.NewsImport{
			Title:       record.Title,
			Digest:      record.Digest,
			Link:        record.Link,
			DateCreated: record.DateCreated,
			Tags:        record.Tags,
		})
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Warn("Failed to roll back import", "id", t.ID, "error", rbErr)
			}
			return err
		}

		if inserted {
			t.Report.Created++
			recordsWritten.WithLabelValues("created").Inc()
			slog.Debug("Imported news", "title", record.Title, "date", record.DateCreated.Format(time.DateOnly))
		} else {
			t.Report.Duplicates++
			recordsWritten.WithLabelValues("duplicate").Inc()
		}
	}

	if t.Report.Created == 0 {
		return tx.Rollback()
	}

	return tx.Commit()
}
