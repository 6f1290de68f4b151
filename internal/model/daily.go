package model

import (
	"time"

	"github.com/google/uuid"
)

type DailyClaim struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	ClaimDate    time.Time `json:"claim_date" db:"claim_date"`
	DayStreak    int       `json:"day_streak" db:"day_streak"`
	PointsEarned int64     `json:"points_earned" db:"points_earned"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// UTCDate truncates t to the start of its UTC calendar day.
func UTCDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
