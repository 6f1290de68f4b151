package model

import (
	"time"

	"github.com/google/uuid"
)

type SpinResultType string

const (
	SpinResultPoints SpinResultType = "points"
	SpinResultStars  SpinResultType = "stars"
	SpinResultEmpty  SpinResultType = "empty"
)

// SpinPrize is one bucket of the wheel. Weight is expressed per SpinWeightTotal.
type SpinPrize struct {
	Label  string         `json:"label"`
	Type   SpinResultType `json:"type"`
	Points int64          `json:"points"`
	Stars  int64          `json:"stars"`
	Weight int            `json:"weight"`
}

// SpinWeightTotal is the denominator of SpinPrize.Weight.
const SpinWeightTotal = 10000

func (p SpinPrize) Probability() float64 {
	return float64(p.Weight) / SpinWeightTotal
}

func (p SpinPrize) IsEmpty() bool {
	return p.Points == 0 && p.Stars == 0
}

type SpinResult struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	UserID       uuid.UUID      `json:"user_id" db:"user_id"`
	ResultType   SpinResultType `json:"result_type" db:"result_type"`
	Label        string         `json:"label" db:"label"`
	PointsEarned int64          `json:"points_earned" db:"points_earned"`
	StarsEarned  int64          `json:"stars_earned" db:"stars_earned"`
	SpunAt       time.Time      `json:"spun_at" db:"spun_at"`
}

type SpinStatus struct {
	Used      int       `json:"used"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetsAt  time.Time `json:"resets_at"`
}
