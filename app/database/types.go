package database

import (
	"time"
)

// ImportedRecord is a row of newsfeed_imports.
type ImportedRecord struct {
	ID           int64
	Title        string
	InitialTitle string // title digest, the uniqueness key
	Link         string
	DateCreated  time.Time
	Tags         []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewsImport is a candidate handed to ImportTx.TryInsertIfAbsent.
type NewsImport struct {
	Title       string
	Digest      string
	Link        string
	DateCreated time.Time
	Tags        []string
}

// Setting is the single newsfeed_settings row, owned by the administration
// side of the store.
type Setting struct {
	CronSchedule string // time unit name, e.g. "hour"
	CronValue    int
}
