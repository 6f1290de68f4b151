package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
)

// IsAdmin checks if a Telegram account is registered as an admin
func (q *queries) IsAdmin(ctx context.Context, telegramID int64) (bool, error) {
	var count int
	err := sqlx.GetContext(ctx, q.ext, &count, `SELECT COUNT(*) FROM admins WHERE telegram_id = $1`, telegramID)
	return count > 0, err
}

// LogAdminAction records an admin action
func (q *queries) LogAdminAction(ctx context.Context, adminID int64, action string, targetUserID *uuid.UUID, details map[string]interface{}) error {
	var detailsJSON []byte
	if details != nil {
		var err error
		detailsJSON, err = json.Marshal(details)
		if err != nil {
			return err
		}
	}

	_, err := q.ext.ExecContext(ctx, `
		INSERT INTO admin_logs (admin_id, action, target_user_id, details)
		VALUES ($1, $2, $3, $4)`,
		adminID, action, targetUserID, detailsJSON)
	return err
}

// GetAdminLogs retrieves admin action logs
func (q *queries) GetAdminLogs(ctx context.Context, limit, offset int) ([]model.AdminLog, error) {
	var logs []model.AdminLog
	err := sqlx.SelectContext(ctx, q.ext, &logs, `
		SELECT * FROM admin_logs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	return logs, err
}
