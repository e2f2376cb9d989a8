package database

import (
	"context"
	"database/sql"
	"errors"
)

type settingsRepository struct {
	db *DB
}

func NewSettingsRepository(db *DB) SettingsRepository {
	return &settingsRepository{db: db}
}

// GetSetting reads the import cadence. A missing row is a precondition
// violation, not a store failure.
func (r *settingsRepository) GetSetting(ctx context.Context) (*Setting, error) {
	var setting Setting
	err := r.db.QueryRowxContext(ctx, `
		SELECT cron_schedule, cron_value
		FROM newsfeed_settings
		LIMIT 1
	`).Scan(&setting.CronSchedule, &setting.CronValue)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSettings
	}
	if err != nil {
		return nil, &StoreError{Op: "read settings", Err: err}
	}

	return &setting, nil
}
