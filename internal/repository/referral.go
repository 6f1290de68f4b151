package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
)

// CreateReferral records the inviter of a user. A user can be referred only once.
func (q *queries) CreateReferral(ctx context.Context, referral *model.Referral) error {
	err := q.ext.QueryRowxContext(ctx, `
		INSERT INTO referrals (referrer_id, referred_id, points_earned, is_verified)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		referral.ReferrerID,
		referral.ReferredID,
		referral.PointsEarned,
		referral.IsVerified,
	).Scan(&referral.ID, &referral.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create referral: %w", err)
	}
	return nil
}

func (q *queries) GetReferralStats(ctx context.Context, referrerID uuid.UUID) (*model.ReferralStats, error) {
	var stats model.ReferralStats
	err := sqlx.GetContext(ctx, q.ext, &stats, `
		SELECT COUNT(*) AS total_referrals, COALESCE(SUM(points_earned), 0) AS points_earned
		FROM referrals WHERE referrer_id = $1`, referrerID)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (q *queries) GetReferredUsers(ctx context.Context, referrerID uuid.UUID) ([]model.User, error) {
	var users []model.User
	err := sqlx.SelectContext(ctx, q.ext, &users, `
		SELECT u.* FROM users u
		INNER JOIN referrals r ON r.referred_id = u.id
		WHERE r.referrer_id = $1
		ORDER BY r.created_at DESC`, referrerID)
	return users, err
}
