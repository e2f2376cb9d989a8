package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/lysyi3m/newsfeed-import/app/database"
	"github.com/lysyi3m/newsfeed-import/app/news"
)

// CycleReport is the outcome of one import cycle.
type CycleReport struct {
	ID           string        `json:"id"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	HighWater    *time.Time    `json:"high_water,omitempty"`
	Cadence      *Cadence      `json:"cadence,omitempty"`
	PagesScanned int           `json:"pages_scanned"`
	Candidates   int           `json:"candidates"`
	Created      int           `json:"created"`
	Duplicates   int           `json:"duplicates"`
	NextRunAt    *time.Time    `json:"next_run_at,omitempty"`
	Error        string        `json:"error,omitempty"`
	Cause        string        `json:"cause,omitempty"`
}

const (
	CauseFetch        = "fetch"
	CauseParse        = "parse"
	CauseStore        = "store"
	CausePrecondition = "precondition"
	CauseCanceled     = "canceled"
	CauseUnknown      = "unknown"
)

// ErrorCause names the failing stage of a cycle error.
func ErrorCause(err error) string {
	var fetchErr *news.FetchError
	var parseErr *news.ParseError
	var storeErr *database.StoreError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, database.ErrPrecondition):
		return CausePrecondition
	case errors.Is(err, context.Canceled):
		return CauseCanceled
	case errors.As(err, &fetchErr):
		return CauseFetch
	case errors.As(err, &parseErr):
		return CauseParse
	case errors.As(err, &storeErr):
		return CauseStore
	default:
		return CauseUnknown
	}
}
