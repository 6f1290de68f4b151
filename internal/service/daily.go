package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/repository"
)

type DailyService struct {
	Deps
}

func NewDailyService(d Deps) *DailyService {
	return &DailyService{Deps: d.withDefaults()}
}

type DailyReward struct {
	Points int64 `json:"points"`
	Streak int   `json:"streak"`
}

// Claim grants the daily reward once per UTC calendar day. The streak grows
// by one per consecutive day and restarts at 1 after a missed day.
func (s *DailyService) Claim(ctx context.Context, userID uuid.UUID) (*DailyReward, error) {
	today := model.UTCDate(s.Now())
	yesterday := today.AddDate(0, 0, -1)

	var reward DailyReward
	err := s.Store.InTx(ctx, func(tx repository.Tx) error {
		if _, _, err := lockActiveUser(ctx, tx, userID); err != nil {
			return err
		}

		_, err := tx.GetDailyClaim(ctx, userID, today)
		if err == nil {
			return ErrAlreadyClaimedToday
		}
		if !errors.Is(err, repository.ErrDailyClaimNotFound) {
			return err
		}

		streak := 1
		prev, err := tx.GetDailyClaim(ctx, userID, yesterday)
		switch {
		case err == nil:
			streak = prev.DayStreak + 1
		case !errors.Is(err, repository.ErrDailyClaimNotFound):
			return err
		}

		points := s.rewardFor(streak)
		claim := &model.DailyClaim{UserID: userID, ClaimDate: today, DayStreak: streak, PointsEarned: points}
		if err := tx.CreateDailyClaim(ctx, claim); err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				return ErrAlreadyClaimedToday
			}
			return err
		}

		if _, err := award(ctx, tx, model.AwardParams{
			UserID:      userID,
			Points:      points,
			Type:        model.TransactionTypeDaily,
			Description: fmt.Sprintf("Daily reward, day %d", streak),
			ReferenceID: &claim.ID,
		}); err != nil {
			return err
		}

		reward = DailyReward{Points: points, Streak: streak}
		return nil
	})
	if err != nil {
		return nil, reject(s.Log, "daily_reward", userID, err)
	}
	return &reward, nil
}

// rewardFor returns base + min(streak*step, cap). With the defaults that is
// 100 + min(streak*10, 500).
func (s *DailyService) rewardFor(streak int) int64 {
	bonus := int64(streak) * s.Settings.Int(model.SettingDailyStreakStep)
	if limit := s.Settings.Int(model.SettingDailyStreakCap); bonus > limit {
		bonus = limit
	}
	return s.Settings.Int(model.SettingDailyBaseReward) + bonus
}
