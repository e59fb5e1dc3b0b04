package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/timetidy/timetidy-service/internal/models"
)

// settingsRow is the single row of the settings table. The document is stored as JSONB.
type settingsRow struct {
	Data      []byte    `db:"data"`
	Version   int       `db:"version"`
	UpdatedAt time.Time `db:"updated_at"`
}

// SettingsRepository handles the company settings document
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get retrieves the settings, falling back to the defaults when none were saved
func (r *SettingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	var row settingsRow
	err := r.db.GetContext(ctx, &row, `SELECT data, version, updated_at FROM settings WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		settings := models.DefaultSettings()
		return &settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	return decodeSettings(row)
}

// Update replaces the settings document if its version is unchanged.
// Version 0 means nothing was saved yet.
func (r *SettingsRepository) Update(ctx context.Context, settings models.Settings) (*models.Settings, error) {
	data, err := json.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}

	var row settingsRow
	if settings.Version == 0 {
		// first save; losing the race to another first save is stale
		err = r.db.GetContext(ctx, &row, `
			INSERT INTO settings (id, data, version, updated_at)
			VALUES (1, $1, 1, $2)
			ON CONFLICT (id) DO NOTHING
			RETURNING data, version, updated_at`, data, settings.UpdatedAt)
	} else {
		err = r.db.GetContext(ctx, &row, `
			UPDATE settings SET data = $1, version = version + 1, updated_at = $2
			WHERE id = 1 AND version = $3
			RETURNING data, version, updated_at`, data, settings.UpdatedAt, settings.Version)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStaleWrite
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}

	return decodeSettings(row)
}

func decodeSettings(row settingsRow) (*models.Settings, error) {
	settings := models.DefaultSettings()
	if err := json.Unmarshal(row.Data, &settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	settings.Version = row.Version
	settings.UpdatedAt = row.UpdatedAt
	return &settings, nil
}
