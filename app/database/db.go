package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

var _ Session = (*DB)(nil)

type DB struct {
	*sqlx.DB
	adapter string
}

// Open connects to the store and checks that it answers.
func Open(ctx context.Context, d *Descriptor) (*DB, error) {
	driverName, dsn := d.DSN()

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, &StoreError{Op: "open connection", Err: err}
	}

	if d.Adapter == AdapterSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &StoreError{Op: "connect", Err: err}
	}

	return NewDB(db, d.Adapter), nil
}

// NewDB wraps an existing connection, e.g. a sqlmock one in tests.
func NewDB(db *sqlx.DB, adapter string) *DB {
	return &DB{DB: db, adapter: adapter}
}

func (db *DB) Imports() ImportRepository {
	return NewImportRepository(db)
}

func (db *DB) Settings() SettingsRepository {
	return NewSettingsRepository(db)
}

func (db *DB) Close() error {
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// SessionOpener opens a fresh store session. The import loop calls it once
// per cycle.
type SessionOpener func(ctx context.Context) (Session, error)

// NewSessionOpener re-reads the database.yml at path on every call, so
// connection changes are picked up by the next cycle.
func NewSessionOpener(path string) SessionOpener {
	return func(ctx context.Context) (Session, error) {
		descriptor, err := LoadDescriptor(path)
		if err != nil {
			return nil, &StoreError{Op: "load database config", Err: err}
		}

		db, err := Open(ctx, descriptor)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
}
