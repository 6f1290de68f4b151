package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
)

func (q *queries) CountSpinsSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, q.ext, &count,
		"SELECT COUNT(*) FROM spin_results WHERE user_id = $1 AND spun_at >= $2", userID, since)
	return count, err
}

func (q *queries) CreateSpinResult(ctx context.Context, result *model.SpinResult) error {
	err := q.ext.QueryRowxContext(ctx, `
		INSERT INTO spin_results (user_id, result_type, label, points_earned, stars_earned, spun_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		result.UserID, result.ResultType, result.Label, result.PointsEarned, result.StarsEarned, result.SpunAt,
	).Scan(&result.ID)
	if err != nil {
		return fmt.Errorf("failed to record spin: %w", err)
	}
	return nil
}
