package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
)

// SetSetting upserts a value and stamps it with the next settings version.
func (q *queries) SetSetting(ctx context.Context, key, value string) (int64, error) {
	var version int64
	err := sqlx.GetContext(ctx, q.ext, &version, `
		INSERT INTO settings (key, value, version, updated_at) VALUES ($1, $2, nextval('settings_version_seq'), NOW())
		ON CONFLICT (key) DO UPDATE SET value = $2, version = nextval('settings_version_seq'), updated_at = NOW()
		RETURNING version`, key, value)
	return version, err
}

func (q *queries) GetAllSettings(ctx context.Context) ([]model.Setting, error) {
	var settings []model.Setting
	err := sqlx.SelectContext(ctx, q.ext, &settings, "SELECT * FROM settings ORDER BY key")
	return settings, err
}
