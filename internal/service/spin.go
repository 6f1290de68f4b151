package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/repository"
)

// SpinTable is the wheel, in draw order. Weights sum to model.SpinWeightTotal.
var SpinTable = []model.SpinPrize{
	{Label: "100 points", Type: model.SpinResultPoints, Points: 100, Weight: 3000},
	{Label: "250 points", Type: model.SpinResultPoints, Points: 250, Weight: 2500},
	{Label: "500 points", Type: model.SpinResultPoints, Points: 500, Weight: 1500},
	{Label: "750 points", Type: model.SpinResultPoints, Points: 750, Weight: 800},
	{Label: "1000 points", Type: model.SpinResultPoints, Points: 1000, Weight: 500},
	{Label: "1 star", Type: model.SpinResultStars, Stars: 1, Weight: 700},
	{Label: "2 stars", Type: model.SpinResultStars, Stars: 2, Weight: 300},
	{Label: "Try again", Type: model.SpinResultEmpty, Weight: 700},
}

// PickPrize walks the table accumulating probability and returns the first
// bucket whose cumulative probability reaches r, for r in [0, 1).
func PickPrize(table []model.SpinPrize, r float64) model.SpinPrize {
	target := r * model.SpinWeightTotal
	cumulative := 0
	for _, p := range table {
		cumulative += p.Weight
		if float64(cumulative) >= target {
			return p
		}
	}
	return table[len(table)-1]
}

type SpinService struct {
	Deps

	mu   sync.Mutex
	rand func() float64
}

func NewSpinService(d Deps) *SpinService {
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &SpinService{Deps: d.withDefaults(), rand: src.Float64}
}

// SetRand replaces the source of uniform values in [0, 1).
func (s *SpinService) SetRand(fn func() float64) {
	s.mu.Lock()
	s.rand = fn
	s.mu.Unlock()
}

func (s *SpinService) draw() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rand()
}

type SpinOutcome struct {
	Result string `json:"result"`
	Points int64  `json:"points"`
	Stars  int64  `json:"stars"`
}

// Spin draws one prize. The daily cap counts every spin of the current UTC day,
// empty ones included.
func (s *SpinService) Spin(ctx context.Context, userID uuid.UUID) (*SpinOutcome, error) {
	now := s.Now()
	limit := int(s.Settings.Int(model.SettingSpinDailyLimit))

	var outcome SpinOutcome
	err := s.Store.InTx(ctx, func(tx repository.Tx) error {
		if _, _, err := lockActiveUser(ctx, tx, userID); err != nil {
			return err
		}

		used, err := tx.CountSpinsSince(ctx, userID, model.UTCDate(now))
		if err != nil {
			return err
		}
		if used >= limit {
			return ErrSpinLimitReached
		}

		prize := PickPrize(SpinTable, s.draw())
		result := &model.SpinResult{
			UserID:       userID,
			ResultType:   prize.Type,
			Label:        prize.Label,
			PointsEarned: prize.Points,
			StarsEarned:  prize.Stars,
			SpunAt:       now,
		}
		if err := tx.CreateSpinResult(ctx, result); err != nil {
			return err
		}

		if !prize.IsEmpty() {
			if _, err := award(ctx, tx, model.AwardParams{
				UserID:      userID,
				Points:      prize.Points,
				Stars:       prize.Stars,
				Type:        model.TransactionTypeSpin,
				Description: fmt.Sprintf("Spin wheel: %s", prize.Label),
				ReferenceID: &result.ID,
			}); err != nil {
				return err
			}
		}

		outcome = SpinOutcome{Result: prize.Label, Points: prize.Points, Stars: prize.Stars}
		return nil
	})
	if err != nil {
		return nil, reject(s.Log, "spin_wheel", userID, err)
	}
	return &outcome, nil
}

// Status reports how many spins are left today.
func (s *SpinService) Status(ctx context.Context, userID uuid.UUID) (*model.SpinStatus, error) {
	now := s.Now()
	today := model.UTCDate(now)
	used, err := s.Store.CountSpinsSince(ctx, userID, today)
	if err != nil {
		return nil, err
	}

	limit := int(s.Settings.Int(model.SettingSpinDailyLimit))
	return &model.SpinStatus{
		Used:      used,
		Limit:     limit,
		Remaining: max(limit-used, 0),
		ResetsAt:  today.AddDate(0, 0, 1),
	}, nil
}
