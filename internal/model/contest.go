package model

import (
	"time"

	"github.com/google/uuid"
)

type ContestType string

const (
	ContestTypeInvite ContestType = "invite"
	ContestTypeAds    ContestType = "ads"
)

// ContestPrizePlaces is the number of ranks that receive a reward.
const ContestPrizePlaces = 5

type Contest struct {
	ID                 uuid.UUID   `json:"id" db:"id"`
	Title              string      `json:"title" db:"title"`
	Description        *string     `json:"description,omitempty" db:"description"`
	Type               ContestType `json:"type" db:"type"`
	StartsAt           time.Time   `json:"starts_at" db:"starts_at"`
	EndsAt             time.Time   `json:"ends_at" db:"ends_at"`
	Reward1st          int64       `json:"reward_1st" db:"reward_1st"`
	Reward2nd          int64       `json:"reward_2nd" db:"reward_2nd"`
	Reward3rd          int64       `json:"reward_3rd" db:"reward_3rd"`
	Reward4th          int64       `json:"reward_4th" db:"reward_4th"`
	Reward5th          int64       `json:"reward_5th" db:"reward_5th"`
	RewardsDistributed bool        `json:"rewards_distributed" db:"rewards_distributed"`
	IsActive           bool        `json:"is_active" db:"is_active"`
	CreatedAt          time.Time   `json:"created_at" db:"created_at"`
}

// Rewards returns the prize for ranks 1..ContestPrizePlaces.
func (c *Contest) Rewards() [ContestPrizePlaces]int64 {
	return [ContestPrizePlaces]int64{c.Reward1st, c.Reward2nd, c.Reward3rd, c.Reward4th, c.Reward5th}
}

// Running reports whether the contest window contains t.
func (c *Contest) Running(t time.Time) bool {
	return c.IsActive && !t.Before(c.StartsAt) && t.Before(c.EndsAt)
}

type ContestEntry struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ContestID uuid.UUID `json:"contest_id" db:"contest_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Score     int64     `json:"score" db:"score"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type ContestWinner struct {
	Rank   int       `json:"rank"`
	UserID uuid.UUID `json:"user_id"`
	Score  int64     `json:"score"`
	Reward int64     `json:"reward"`
}
