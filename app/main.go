package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lysyi3m/newsfeed-import/app/api"
	"github.com/lysyi3m/newsfeed-import/app/cache"
	"github.com/lysyi3m/newsfeed-import/app/cfg"
	"github.com/lysyi3m/newsfeed-import/app/database"
	"github.com/lysyi3m/newsfeed-import/app/news"
	"github.com/lysyi3m/newsfeed-import/app/tasks"
)

func main() {
	os.Exit(run())
}

func run() int {
	c, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}
	if c == nil {
		return 0
	}

	slog.SetDefault(newLogger(os.Stderr, c.Debug))

	slog.Info("Starting newsfeed import", "version", c.Version, "source", c.SourceURL)

	descriptor, err := database.LoadDescriptor(c.DBConfig)
	if err != nil {
		slog.Error("Failed to load database config", "path", c.DBConfig, "error", err)
		return 1
	}
	slog.Info("Using store", "store", descriptor.String())

	if c.Migrate {
		if err := migrate(descriptor); err != nil {
			slog.Error("Failed to run migrations", "error", err)
			return 1
		}
	}

	open := database.NewSessionOpener(c.DBConfig)
	fetcher := news.NewFetcher(news.FetcherConfig{
		BaseURL:            c.SourceURL,
		UserAgent:          c.UserAgent,
		Timeout:            c.FetchTimeout,
		InsecureSkipVerify: c.InsecureTLS,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var feedCache *cache.Cache
	if c.RedisAddr != "" && c.Port != "" && !c.Once {
		feedCache, err = cache.NewCache(ctx, c.RedisAddr)
		if err != nil {
			slog.Warn("Feed cache disabled", "error", err)
			feedCache = nil
		} else {
			defer feedCache.Close()
		}
	}

	schedulerConfig := tasks.SchedulerConfig{
		Import: tasks.ImportConfig{
			MaxPage:   c.MaxPage,
			PageDelay: c.PageDelay,
		},
		FallbackInterval: c.FallbackInterval,
	}
	if feedCache != nil {
		schedulerConfig.AfterImport = func(ctx context.Context, report *tasks.CycleReport) {
			if err := feedCache.InvalidateFeeds(ctx); err != nil {
				slog.Warn("Failed to invalidate feed cache", "error", err)
			}
		}
	}

	scheduler := tasks.NewScheduler(schedulerConfig, open, fetcher, news.NewExtractor(), news.NewFilterer())

	if c.Once {
		report, err := scheduler.RunOnce(ctx)
		if err != nil {
			return 1
		}
		slog.Info("Import finished", "created", report.Created, "duplicates", report.Duplicates)
		return 0
	}

	var httpServer *http.Server
	serverErrChan := make(chan error, 1)
	if c.Port != "" {
		httpServer = startStatusServer(c, open, scheduler, feedCache, serverErrChan)
	}

	scheduler.Start()

	exitCode := 0
	select {
	case <-ctx.Done():
		slog.Info("Received shutdown signal")
	case <-scheduler.Done():
		if err := scheduler.Err(); err != nil {
			exitCode = 1
		}
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
		exitCode = 1
	}

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
	}

	scheduler.Stop()
	slog.Info("Newsfeed import stopped")

	return exitCode
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func migrate(descriptor *database.Descriptor) error {
	db, err := database.Open(context.Background(), descriptor)
	if err != nil {
		return err
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		return err
	}
	slog.Info("Migrations applied", "version", version, "dirty", dirty)

	return nil
}

func startStatusServer(c *cfg.Cfg, open database.SessionOpener, scheduler tasks.TaskSchedulerInterface, feedCache *cache.Cache, errChan chan<- error) *http.Server {
	baseURL := strings.TrimSuffix(c.BaseUrl, "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%s", c.Port)
	}

	channel := news.Channel{
		Title:    "Imported news",
		Link:     c.SourceURL,
		SelfLink: baseURL + "/feed",
		Version:  c.Version,
	}
	handler := api.NewHandler(open, scheduler, channel, c.FeedItems)
	if feedCache != nil {
		handler.WithCache(feedCache, c.FeedCacheTTL)
	}

	httpServer := &http.Server{
		Addr:         ":" + c.Port,
		Handler:      api.NewServer(handler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Starting status server", "port", c.Port, "feed", baseURL+"/feed")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	return httpServer
}
