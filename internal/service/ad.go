package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/repository"
)

const adWindow = time.Hour

type AdService struct {
	Deps
}

func NewAdService(d Deps) *AdService {
	return &AdService{Deps: d.withDefaults()}
}

// LogAdWatch records an ad view and credits rewardGiven when positive, up to
// ad_reward_max. Views also count towards running ads contests.
func (s *AdService) LogAdWatch(ctx context.Context, userID uuid.UUID, adType string, rewardGiven int64) error {
	adType = strings.TrimSpace(adType)
	if adType == "" {
		return validationf("adType is required")
	}
	if rewardGiven < 0 {
		return validationf("rewardGiven must not be negative")
	}
	if maxReward := s.Settings.Int(model.SettingAdRewardMax); rewardGiven > maxReward {
		return validationf("rewardGiven must not exceed %d", maxReward)
	}

	now := s.Now()
	limit := int(s.Settings.Int(model.SettingAdHourlyLimit))

	err := s.Store.InTx(ctx, func(tx repository.Tx) error {
		if _, _, err := lockActiveUser(ctx, tx, userID); err != nil {
			return err
		}

		recent, err := tx.CountAdLogsSince(ctx, userID, now.Add(-adWindow))
		if err != nil {
			return err
		}
		if recent >= limit {
			return ErrAdRateLimited
		}

		entry := &model.AdLog{UserID: userID, AdType: adType, RewardGiven: rewardGiven, CreatedAt: now}
		if err := tx.CreateAdLog(ctx, entry); err != nil {
			return err
		}

		if rewardGiven > 0 {
			if _, err := award(ctx, tx, model.AwardParams{
				UserID:      userID,
				Points:      rewardGiven,
				Type:        model.TransactionTypeAdReward,
				Description: "Ad reward: " + adType,
				ReferenceID: &entry.ID,
			}); err != nil {
				return err
			}
		}

		_, err = tx.IncrementContestScores(ctx, userID, model.ContestTypeAds, now)
		return err
	})
	if err != nil {
		return reject(s.Log, "log_ad", userID, err)
	}
	return nil
}
