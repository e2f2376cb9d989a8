package news

import (
	"crypto/sha1"
	"encoding/hex"
	"time"
)

// Record is a news item extracted from a listing page. It is never modified
// after NewRecord returns it.
type Record struct {
	Title       string
	Link        string
	DateCreated time.Time // date only, UTC midnight
	Tags        []string
	Digest      string
}

func NewRecord(title, link string, dateCreated time.Time, tags []string) Record {
	if tags == nil {
		tags = []string{}
	}

	return Record{
		Title:       title,
		Link:        link,
		DateCreated: dateCreated,
		Tags:        tags,
		Digest:      Digest(title),
	}
}

// Digest fingerprints a title. Only the title takes part: two articles
// sharing a headline are the same record for deduplication.
func Digest(title string) string {
	hash := sha1.Sum([]byte(title))
	return hex.EncodeToString(hash[:])
}

// FetcherConfig is the immutable configuration of a Fetcher.
type FetcherConfig struct {
	BaseURL            string
	UserAgent          string
	Timeout            time.Duration
	InsecureSkipVerify bool // the upstream certificate is not trusted
}
