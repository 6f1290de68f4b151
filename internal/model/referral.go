package model

import (
	"time"

	"github.com/google/uuid"
)

type Referral struct {
	ID           uuid.UUID `json:"id" db:"id"`
	ReferrerID   uuid.UUID `json:"referrer_id" db:"referrer_id"`
	ReferredID   uuid.UUID `json:"referred_id" db:"referred_id"`
	PointsEarned int64     `json:"points_earned" db:"points_earned"`
	IsVerified   bool      `json:"is_verified" db:"is_verified"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type ReferralStats struct {
	TotalReferrals int   `json:"total_referrals" db:"total_referrals"`
	PointsEarned   int64 `json:"points_earned" db:"points_earned"`
}
