package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
)

func (q *queries) CountAdLogsSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, q.ext, &count,
		"SELECT COUNT(*) FROM ad_logs WHERE user_id = $1 AND created_at >= $2", userID, since)
	return count, err
}

func (q *queries) CreateAdLog(ctx context.Context, log *model.AdLog) error {
	err := q.ext.QueryRowxContext(ctx, `
		INSERT INTO ad_logs (user_id, ad_type, reward_given, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		log.UserID, log.AdType, log.RewardGiven, log.CreatedAt,
	).Scan(&log.ID)
	if err != nil {
		return fmt.Errorf("failed to record ad view: %w", err)
	}
	return nil
}
