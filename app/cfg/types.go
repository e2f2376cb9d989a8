package cfg

import "time"

type Cfg struct {
	// Store
	DBConfig string
	Migrate  bool

	// Import
	SourceURL        string
	MaxPage          int
	PageDelay        time.Duration
	FetchTimeout     time.Duration
	InsecureTLS      bool
	FallbackInterval time.Duration
	Once             bool

	// Status server
	Port      string
	BaseUrl   string
	FeedItems int

	// Feed cache
	RedisAddr    string
	FeedCacheTTL time.Duration

	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
