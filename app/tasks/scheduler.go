package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/newsfeed-import/app/database"
	"github.com/lysyi3m/newsfeed-import/app/news"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type SchedulerConfig struct {
	Import ImportConfig
	// FallbackInterval is the pause after a cycle that failed before any
	// cadence was ever read.
	FallbackInterval time.Duration
	// AfterImport, when set, runs after every cycle that created records.
	AfterImport func(ctx context.Context, report *CycleReport)
}

// Scheduler runs import cycles one after another on a single goroutine.
// A cycle never overlaps the next one: the pause is computed from the
// cadence once the cycle has finished.
type Scheduler struct {
	config    SchedulerConfig
	open      database.SessionOpener
	fetcher   PageFetcher
	extractor RecordExtractor
	filterer  *news.Filterer

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}

	mu          sync.RWMutex
	lastReport  *CycleReport
	lastCadence *Cadence
	err         error
}

func NewScheduler(config SchedulerConfig, open database.SessionOpener, fetcher PageFetcher, extractor RecordExtractor, filterer *news.Filterer) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		config:    config,
		open:      open,
		fetcher:   fetcher,
		extractor: extractor,
		filterer:  filterer,
		now:       time.Now,
		sleep:     sleepContext,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(s.done)

		s.loop()
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

// Done is closed when the loop exits, either after Stop or on a
// precondition failure.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Err returns the error that terminated the loop, if any.
func (s *Scheduler) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Scheduler) LastReport() *CycleReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lastReport == nil {
		return nil
	}
	report := *s.lastReport
	return &report
}

func (s *Scheduler) loop() {
	for {
		report, err := s.RunOnce(s.ctx)

		if errors.Is(err, database.ErrPrecondition) {
			slog.Error("Import stopped, store is not ready", "error", err)
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
			return
		}

		if s.ctx.Err() != nil {
			return
		}

		delay := report.NextRunAt.Sub(s.now())
		if err := s.sleep(s.ctx, delay); err != nil {
			return
		}
	}
}

// RunOnce executes a single cycle and records its report. The returned
// report always carries NextRunAt.
func (s *Scheduler) RunOnce(ctx context.Context) (*CycleReport, error) {
	task := NewImportTask(s.config.Import, s.open, s.fetcher, s.extractor, s.filterer)
	task.Start()

	slog.Debug("Starting import cycle", "id", task.GetID(), "type", task.Type)
	err := task.Execute(ctx)

	report := task.Report
	report.Duration = task.GetDuration()

	outcome := "success"
	if err != nil {
		outcome = ErrorCause(err)
		report.Error = err.Error()
		report.Cause = outcome
		if outcome == CauseCanceled {
			slog.Info("Import cycle canceled", "id", task.GetID())
		} else {
			slog.Error("Import cycle failed", "id", task.GetID(), "cause", outcome, "error", err)
		}
	} else {
		lastSuccess.SetToCurrentTime()
		if report.Created > 0 && s.config.AfterImport != nil {
			s.config.AfterImport(ctx, report)
		}
	}
	cyclesTotal.WithLabelValues(outcome).Inc()

	s.mu.Lock()
	if report.Cadence != nil {
		s.lastCadence = report.Cadence
	}
	next := s.nextRun(s.lastCadence)
	report.NextRunAt = &next
	s.lastReport = report
	s.mu.Unlock()

	if outcome != CausePrecondition && outcome != CauseCanceled {
		slog.Info("Next import scheduled", "at", next.Format(time.DateTime))
	}

	return report, err
}

func (s *Scheduler) nextRun(cadence *Cadence) time.Time {
	now := s.now()
	if cadence == nil {
		return now.Add(s.config.FallbackInterval)
	}
	return cadence.Schedule().Next(now)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
