package model

import (
	"time"

	"github.com/google/uuid"
)

type AdLog struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	AdType      string    `json:"ad_type" db:"ad_type"`
	RewardGiven int64     `json:"reward_given" db:"reward_given"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
