package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Store configuration
	DBConfig string `long:"db-config" env:"DB_CONFIG" default:"config/database.yml" description:"Path to the database.yml connection descriptor, re-read every cycle"`
	Migrate  bool   `long:"migrate" env:"MIGRATE" description:"Apply embedded schema migrations before starting"`

	// Import configuration
	SourceURL        string `long:"source-url" env:"SOURCE_URL" default:"https://parallel.ru/news" description:"News listing URL, pages are requested with ?page=N"`
	MaxPage          int    `long:"max-page" env:"MAX_PAGE" default:"20" description:"Highest zero-based page index to crawl per cycle"`
	PageDelay        int    `long:"page-delay" env:"PAGE_DELAY" default:"1000" description:"Pause between page requests in milliseconds"`
	FetchTimeout     int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"Page request timeout in seconds"`
	VerifyTLS        bool   `long:"verify-tls" env:"VERIFY_TLS" description:"Verify the TLS certificate of the news source (off by default, the upstream certificate is not trusted)"`
	FallbackInterval int    `long:"fallback-interval" env:"FALLBACK_INTERVAL" default:"3600" description:"Pause in seconds after a cycle that failed before a cadence was read"`
	Once             bool   `long:"once" env:"ONCE" description:"Run a single import cycle and exit"`

	// Status server
	Port      string `long:"port" env:"PORT" description:"Status server port (disabled when empty)"`
	BaseUrl   string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://news.example.com)"`
	FeedItems int    `long:"feed-items" env:"FEED_ITEMS" default:"50" description:"Number of records in the RSS feed"`
	RedisAddr string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for caching the RSS feed (disabled when empty)"`
	FeedTTL   int    `long:"feed-cache-ttl" env:"FEED_CACHE_TTL" default:"300" description:"RSS feed cache TTL in seconds"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"newsfeed-import/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Europe/Moscow)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load reads .env (when present), the environment and the command line.
// It returns nil, nil when --help was requested.
func Load() (*Cfg, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := parse(os.Args[1:])
	if err != nil || cfg == nil {
		return cfg, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		slog.Warn("Invalid timezone, using system default", "timezone", cfg.Timezone, "error", err)
	}

	return cfg, nil
}

func parse(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBConfig:         raw.DBConfig,
		Migrate:          raw.Migrate,
		SourceURL:        raw.SourceURL,
		MaxPage:          raw.MaxPage,
		PageDelay:        time.Duration(raw.PageDelay) * time.Millisecond,
		FetchTimeout:     time.Duration(raw.FetchTimeout) * time.Second,
		InsecureTLS:      !raw.VerifyTLS,
		FallbackInterval: time.Duration(raw.FallbackInterval) * time.Second,
		Once:             raw.Once,
		Port:             raw.Port,
		BaseUrl:          raw.BaseUrl,
		FeedItems:        raw.FeedItems,
		RedisAddr:        raw.RedisAddr,
		FeedCacheTTL:     time.Duration(raw.FeedTTL) * time.Second,
		UserAgent:        raw.UserAgent,
		Timezone:         raw.Timezone,
		Debug:            raw.Debug,
		Version:          GetVersion(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Cfg) validate() error {
	u, err := url.Parse(c.SourceURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid source URL: %q", c.SourceURL)
	}
	if c.MaxPage < 0 {
		return fmt.Errorf("max page must be non-negative, got %d", c.MaxPage)
	}
	if c.PageDelay < 0 || c.FetchTimeout < 0 {
		return fmt.Errorf("page delay and fetch timeout must be non-negative")
	}
	if c.FallbackInterval <= 0 {
		return fmt.Errorf("fallback interval must be positive, got %s", c.FallbackInterval)
	}
	if c.RedisAddr != "" && c.FeedCacheTTL <= 0 {
		return fmt.Errorf("feed cache TTL must be positive, got %s", c.FeedCacheTTL)
	}
	if c.FeedItems <= 0 {
		return fmt.Errorf("feed items must be positive, got %d", c.FeedItems)
	}
	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			slog.Info("Timezone configured", "timezone", timezone)
		}
	}
	return nil
}
