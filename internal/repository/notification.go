package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
)

func (q *queries) CreateNotification(ctx context.Context, n *model.Notification) error {
	return q.ext.QueryRowxContext(ctx, `
		INSERT INTO notifications (user_id, type, title, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		n.UserID, n.Type, n.Title, n.Message,
	).Scan(&n.ID, &n.CreatedAt)
}

func (q *queries) GetUserNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	var notifications []model.Notification
	err := sqlx.SelectContext(ctx, q.ext, &notifications, `
		SELECT id, user_id, type, title, message, is_read, created_at FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	return notifications, err
}
