package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// The conditional inserts differ only in parameter syntax and casts. Both
// check and insert in one statement, so there is no window between them.
const (
	insertIfAbsentPostgres = `
		INSERT INTO newsfeed_imports (title, initial_title, link, date_created, tags, created_at, updated_at)
		SELECT $1::text, $2::text, $3::text, $4::date, $5::text[], $6::timestamp, $6::timestamp
		WHERE NOT EXISTS (SELECT 1 FROM newsfeed_imports WHERE initial_title = $2)
		RETURNING id
	`
	insertIfAbsentSQLite = `
		INSERT INTO newsfeed_imports (title, initial_title, link, date_created, tags, created_at, updated_at)
		SELECT ?1, ?2, ?3, ?4, ?5, ?6, ?6
		WHERE NOT EXISTS (SELECT 1 FROM newsfeed_imports WHERE initial_title = ?2)
		RETURNING id
	`
)

type importRepository struct {
	db *DB
}

func NewImportRepository(db *DB) ImportRepository {
	return &importRepository{db: db}
}

// MaxDateCreated returns the high-water mark of the store. An empty table is
// reported as ErrEmptyStore.
func (r *importRepository) MaxDateCreated(ctx context.Context) (time.Time, error) {
	var maxDate sqlDate
	err := r.db.QueryRowxContext(ctx, "SELECT MAX(date_created) FROM newsfeed_imports").Scan(&maxDate)
	if err != nil {
		return time.Time{}, &StoreError{Op: "read high-water date", Err: err}
	}

	if !maxDate.Valid {
		return time.Time{}, ErrEmptyStore
	}

	return maxDate.Time, nil
}

func (r *importRepository) GetRecentImports(ctx context.Context, limit int) ([]ImportedRecord, error) {
	rows, err := r.db.QueryxContext(ctx, r.db.Rebind(`
		SELECT id, title, initial_title, link, date_created, tags, created_at, updated_at
		FROM newsfeed_imports
		ORDER BY date_created DESC, id DESC
		LIMIT ?
	`), limit)
	if err != nil {
		return nil, &StoreError{Op: "get recent imports", Err: err}
	}
	defer rows.Close()

	var records []ImportedRecord
	for rows.Next() {
		var record ImportedRecord
		var dateCreated sqlDate
		var createdAt, updatedAt sqlTimestamp
		err := rows.Scan(
			&record.ID, &record.Title, &record.InitialTitle, &record.Link, &dateCreated,
			pq.Array(&record.Tags), &createdAt, &updatedAt,
		)
		if err != nil {
			return nil, &StoreError{Op: "scan import row", Err: err}
		}
		record.DateCreated = dateCreated.Time
		record.CreatedAt = createdAt.Time
		record.UpdatedAt = updatedAt.Time
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "iterate import rows", Err: err}
	}

	return records, nil
}

func (r *importRepository) GetImportCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowxContext(ctx, "SELECT COUNT(*) FROM newsfeed_imports").Scan(&count)
	if err != nil {
		return 0, &StoreError{Op: "get import count", Err: err}
	}
	return count, nil
}

func (r *importRepository) BeginImport(ctx context.Context) (ImportTx, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, &StoreError{Op: "begin transaction", Err: err}
	}

	query := insertIfAbsentPostgres
	if r.db.adapter == AdapterSQLite {
		query = insertIfAbsentSQLite
	}

	return &importTx{tx: tx, query: query, now: time.Now}, nil
}

type importTx struct {
	tx    *sqlx.Tx
	query string
	now   func() time.Time
}

// TryInsertIfAbsent inserts the item unless a row with the same digest
// exists. It reports whether a row was created.
func (t *importTx) TryInsertIfAbsent(ctx context.Context, item NewsImport) (bool, error) {
	tags := item.Tags
	if tags == nil {
		tags = []string{}
	}

	now := t.now().UTC()

	var id int64
	err := t.tx.QueryRowxContext(ctx, t.query,
		item.Title, item.Digest, item.Link, item.DateCreated.Format(dateLayout), pq.Array(tags), now,
	).Scan(&id)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, &StoreError{Op: "insert import", Err: err}
	}

	return true, nil
}

func (t *importTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return &StoreError{Op: "commit", Err: err}
	}
	return nil
}

func (t *importTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return &StoreError{Op: "rollback", Err: err}
	}
	return nil
}
