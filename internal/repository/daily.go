package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
)

var ErrDailyClaimNotFound = errors.New("daily claim not found")

func (q *queries) GetDailyClaim(ctx context.Context, userID uuid.UUID, date time.Time) (*model.DailyClaim, error) {
	var claim model.DailyClaim
	err := sqlx.GetContext(ctx, q.ext, &claim,
		"SELECT * FROM daily_claims WHERE user_id = $1 AND claim_date = $2", userID, model.UTCDate(date))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDailyClaimNotFound
		}
		return nil, err
	}
	return &claim, nil
}

// CreateDailyClaim inserts the claim of a day. The (user_id, claim_date) key makes a
// second claim for the same day fail with ErrAlreadyExists.
func (q *queries) CreateDailyClaim(ctx context.Context, claim *model.DailyClaim) error {
	err := q.ext.QueryRowxContext(ctx, `
		INSERT INTO daily_claims (user_id, claim_date, day_streak, points_earned)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		claim.UserID, model.UTCDate(claim.ClaimDate), claim.DayStreak, claim.PointsEarned,
	).Scan(&claim.ID, &claim.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create daily claim: %w", err)
	}
	return nil
}
