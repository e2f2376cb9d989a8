package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lysyi3m/newsfeed-import/app/database"
	"github.com/lysyi3m/newsfeed-import/app/news"
)

var testNow = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func newTestScheduler(store *memoryStore, fetcher *fakeFetcher) *Scheduler {
	scheduler := NewScheduler(SchedulerConfig{
		Import:           ImportConfig{MaxPage: 20},
		FallbackInterval: 15 * time.Minute,
	}, store.Open, fetcher, news.NewExtractor(), news.NewFilterer())
	scheduler.now = func() time.Time { return testNow }
	return scheduler
}

func waitDone(t *testing.T, scheduler *Scheduler) {
	t.Helper()

	select {
	case <-scheduler.Done():
	case <-time.After(5 * time.Second):
		scheduler.Stop()
		t.Fatal("Scheduler did not stop in time")
	}
}

func TestSchedulerRereadsCadenceEachCycle(t *testing.T) {
	store := newMemoryStore("2024-01-10", "hour", 1)
	store.settings = append(store.settings, database.Setting{CronSchedule: "minutes", CronValue: 5})

	scheduler := newTestScheduler(store, &fakeFetcher{})

	var delays []time.Duration
	scheduler.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		if len(delays) == 2 {
			scheduler.cancel()
			return context.Canceled
		}
		return nil
	}

	scheduler.Start()
	waitDone(t, scheduler)

	if len(delays) != 2 {
		t.Fatalf("Expected 2 sleeps, got %d", len(delays))
	}
	if delays[0] != time.Hour {
		t.Errorf("Expected first delay 1h, got %v", delays[0])
	}
	if delays[1] != 5*time.Minute {
		t.Errorf("Expected second delay 5m, got %v", delays[1])
	}
	if store.opened != 2 || store.closed != 2 {
		t.Errorf("Expected a fresh session per cycle, got %d opened and %d closed", store.opened, store.closed)
	}
	if scheduler.Err() != nil {
		t.Errorf("Expected no terminal error, got %v", scheduler.Err())
	}
}

func TestSchedulerStopsOnEmptyStore(t *testing.T) {
	store := newMemoryStore("", "hour", 1)
	scheduler := newTestScheduler(store, &fakeFetcher{})

	slept := false
	scheduler.sleep = func(ctx context.Context, d time.Duration) error {
		slept = true
		return nil
	}

	scheduler.Start()
	waitDone(t, scheduler)

	if !errors.Is(scheduler.Err(), database.ErrEmptyStore) {
		t.Errorf("Expected ErrEmptyStore, got %v", scheduler.Err())
	}
	if slept {
		t.Error("Expected no sleep after a precondition failure")
	}
}

func TestSchedulerUsesFallbackWithoutCadence(t *testing.T) {
	store := newMemoryStore("2024-01-10", "hour", 1)
	store.openErr = &database.StoreError{Op: "connect", Err: errors.New("connection refused")}
	scheduler := newTestScheduler(store, &fakeFetcher{})

	report, err := scheduler.RunOnce(context.Background())
	if err == nil {
		t.Fatal("Expected an error")
	}

	if report.Cause != CauseStore {
		t.Errorf("Expected cause %s, got %s", CauseStore, report.Cause)
	}
	expected := testNow.Add(15 * time.Minute)
	if !report.NextRunAt.Equal(expected) {
		t.Errorf("Expected next run %v, got %v", expected, report.NextRunAt)
	}
}

func TestSchedulerKeepsPreviousCadenceAfterFailure(t *testing.T) {
	store := newMemoryStore("2024-01-10", "minute", 10)
	fetcher := &fakeFetcher{}
	scheduler := newTestScheduler(store, fetcher)

	if _, err := scheduler.RunOnce(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	fetcher.errs = map[int]error{0: &news.FetchError{Page: 0, URL: "https://example.com", StatusCode: 500}}
	report, err := scheduler.RunOnce(context.Background())
	if err == nil {
		t.Fatal("Expected an error")
	}

	expected := testNow.Add(10 * time.Minute)
	if !report.NextRunAt.Equal(expected) {
		t.Errorf("Expected next run %v, got %v", expected, report.NextRunAt)
	}
	if report.Cause != CauseFetch {
		t.Errorf("Expected cause %s, got %s", CauseFetch, report.Cause)
	}
}

func TestSchedulerLastReport(t *testing.T) {
	store := newMemoryStore("2024-01-10", "hour", 1)
	fetcher := &fakeFetcher{pages: map[int][]byte{
		0: listingPage(listingItem{title: "Fresh", link: "/1", date: "11.01.2024"}),
	}}
	scheduler := newTestScheduler(store, fetcher)

	if scheduler.LastReport() != nil {
		t.Error("Expected no report before the first cycle")
	}

	if _, err := scheduler.RunOnce(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	report := scheduler.LastReport()
	if report == nil {
		t.Fatal("Expected a report")
	}
	if report.Created != 1 {
		t.Errorf("Expected 1 created, got %d", report.Created)
	}
	if report.Cadence == nil || report.Cadence.Duration() != time.Hour {
		t.Errorf("Expected cadence of 1 hour, got %v", report.Cadence)
	}

	report.Created = 42
	if scheduler.LastReport().Created != 1 {
		t.Error("Expected LastReport to return a copy")
	}
}

func TestSchedulerStop(t *testing.T) {
	store := newMemoryStore("2024-01-10", "hour", 1)
	scheduler := newTestScheduler(store, &fakeFetcher{})

	scheduler.Start()
	scheduler.Stop()

	select {
	case <-scheduler.Done():
	default:
		t.Error("Expected loop to exit after Stop")
	}
}

func TestSchedulerAfterImport(t *testing.T) {
	store := newMemoryStore("2024-01-10", "hour", 1)
	fetcher := &fakeFetcher{pages: map[int][]byte{
		0: listingPage(listingItem{title: "Fresh", link: "/1", date: "11.01.2024"}),
	}}
	scheduler := newTestScheduler(store, fetcher)

	var created []int
	scheduler.config.AfterImport = func(ctx context.Context, report *CycleReport) {
		created = append(created, report.Created)
	}

	for i := 0; i < 2; i++ {
		if _, err := scheduler.RunOnce(context.Background()); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	if len(created) != 1 || created[0] != 1 {
		t.Errorf("Expected hook once after the creating cycle, got %v", created)
	}
}
