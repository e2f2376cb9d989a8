package database

import (
	"context"
	"time"
)

// Session is one connection to the store, opened for a single import cycle.
type Session interface {
	Imports() ImportRepository
	Settings() SettingsRepository
	Close() error
}

type ImportRepository interface {
	MaxDateCreated(ctx context.Context) (time.Time, error)
	GetRecentImports(ctx context.Context, limit int) ([]ImportedRecord, error)
	GetImportCount(ctx context.Context) (int, error)

	BeginImport(ctx context.Context) (ImportTx, error)
}

type SettingsRepository interface {
	GetSetting(ctx context.Context) (*Setting, error)
}

// ImportTx groups the conditional inserts of one cycle.
type ImportTx interface {
	TryInsertIfAbsent(ctx context.Context, item NewsImport) (bool, error)
	Commit() error
	Rollback() error
}
