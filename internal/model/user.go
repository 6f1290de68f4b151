package model

import (
	"time"

	"github.com/google/uuid"
)

// PointsPerLevel is how many lifetime points separate two levels.
const PointsPerLevel = 10000

type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	TelegramID   int64      `json:"telegram_id" db:"telegram_id"`
	Username     *string    `json:"username,omitempty" db:"username"`
	FirstName    string     `json:"first_name" db:"first_name"`
	LastName     *string    `json:"last_name,omitempty" db:"last_name"`
	PhotoURL     *string    `json:"photo_url,omitempty" db:"photo_url"`
	LanguageCode *string    `json:"language_code,omitempty" db:"language_code"`
	ReferralCode string     `json:"referral_code" db:"referral_code"`
	ReferredBy   *uuid.UUID `json:"referred_by,omitempty" db:"referred_by"`
	TotalPoints  int64      `json:"total_points" db:"total_points"`
	Level        int        `json:"level" db:"level"`
	IsBanned     bool       `json:"is_banned" db:"is_banned"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

type UserWithBalance struct {
	User
	Balance *Balance `json:"balance,omitempty"`
}

// LevelFor returns the level reached with the given lifetime points.
func LevelFor(totalPoints int64) int {
	if totalPoints < 0 {
		return 1
	}
	return int(totalPoints/PointsPerLevel) + 1
}
