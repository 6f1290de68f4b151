package service

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/repository"
	"github.com/sirupsen/logrus"
)

const referralCodeAttempts = 3

type UserService struct {
	Deps
}

func NewUserService(d Deps) *UserService {
	return &UserService{Deps: d.withDefaults()}
}

type TelegramUser struct {
	ID           int64   `json:"id"`
	FirstName    string  `json:"first_name"`
	LastName     *string `json:"last_name,omitempty"`
	Username     *string `json:"username,omitempty"`
	PhotoURL     *string `json:"photo_url,omitempty"`
	LanguageCode *string `json:"language_code,omitempty"`
}

// InitUser returns the account of a Telegram user, creating it on first sight.
// A new account gets the welcome bonus and, with a valid referral code, the
// referral awards for both sides. The bool reports whether the account was created.
func (s *UserService) InitUser(ctx context.Context, tg TelegramUser, referralCode string) (*model.UserWithBalance, bool, error) {
	if tg.ID <= 0 {
		return nil, false, validationf("telegramUser.id is required")
	}

	existing, err := s.Store.GetUserByTelegramID(ctx, tg.ID)
	if err == nil {
		if err := s.refreshProfile(ctx, existing, tg); err != nil {
			return nil, false, err
		}
		return s.withBalance(ctx, existing)
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, false, err
	}

	referralCode = strings.TrimPrefix(strings.TrimSpace(referralCode), "ref_")

	var (
		user     *model.User
		referrer *model.User
	)
	for attempt := 0; attempt < referralCodeAttempts; attempt++ {
		user, referrer, err = s.create(ctx, tg, referralCode)
		if !errors.Is(err, repository.ErrAlreadyExists) {
			break
		}
		// Either another request created this Telegram user first or the
		// generated code collided. Only the second case is worth retrying.
		if existing, getErr := s.Store.GetUserByTelegramID(ctx, tg.ID); getErr == nil {
			return s.withBalance(ctx, existing)
		}
	}
	if err != nil {
		return nil, false, err
	}

	s.Log.WithFields(logrus.Fields{"user_id": user.ID, "telegram_id": tg.ID, "referred": referrer != nil}).Info("user created")

	s.Notifier.Notify(model.Notification{
		UserID:     user.ID,
		TelegramID: user.TelegramID,
		Type:       model.NotificationWelcome,
		Title:      "Welcome!",
		Message:    fmt.Sprintf("You received %d bonus points. Complete tasks to earn more.", s.Settings.Int(model.SettingWelcomeBonus)),
	})
	if referrer != nil {
		s.Notifier.Notify(model.Notification{
			UserID:     referrer.ID,
			TelegramID: referrer.TelegramID,
			Type:       model.NotificationNewReferral,
			Title:      "New referral",
			Message:    fmt.Sprintf("%s joined with your link. +%d points!", tg.FirstName, s.Settings.Int(model.SettingPointsPerReferral)),
		})
	}

	fresh, err := s.Store.GetUser(ctx, user.ID)
	if err != nil {
		return nil, false, err
	}
	result, _, err := s.withBalance(ctx, fresh)
	return result, true, err
}

func (s *UserService) create(ctx context.Context, tg TelegramUser, referralCode string) (*model.User, *model.User, error) {
	code, err := generateReferralCode()
	if err != nil {
		return nil, nil, err
	}

	user := &model.User{
		TelegramID:   tg.ID,
		Username:     tg.Username,
		FirstName:    tg.FirstName,
		LastName:     tg.LastName,
		PhotoURL:     tg.PhotoURL,
		LanguageCode: tg.LanguageCode,
		ReferralCode: code,
	}
	var referrer *model.User

	err = s.Store.InTx(ctx, func(tx repository.Tx) error {
		if referralCode != "" {
			r, err := tx.GetUserByReferralCode(ctx, referralCode)
			switch {
			case err == nil && r.TelegramID != tg.ID && !r.IsBanned:
				referrer = r
				user.ReferredBy = &r.ID
			case err != nil && !errors.Is(err, repository.ErrUserNotFound):
				return err
			default:
				s.Log.WithFields(logrus.Fields{"telegram_id": tg.ID, "code": referralCode}).Debug("referral code ignored")
			}
		}

		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}

		if bonus := s.Settings.Int(model.SettingWelcomeBonus); bonus > 0 {
			if _, err := award(ctx, tx, model.AwardParams{
				UserID:      user.ID,
				Points:      bonus,
				Type:        model.TransactionTypeBonus,
				Description: "Welcome bonus",
			}); err != nil {
				return err
			}
		}

		if referrer == nil {
			return nil
		}
		return s.applyReferral(ctx, tx, referrer, user)
	})
	if err != nil {
		return nil, nil, err
	}
	return user, referrer, nil
}

// applyReferral links the new user to the inviter and pays both sides.
func (s *UserService) applyReferral(ctx context.Context, tx repository.Tx, referrer, referred *model.User) error {
	if _, _, err := tx.LockAccount(ctx, referrer.ID); err != nil {
		return err
	}

	inviterReward := s.Settings.Int(model.SettingPointsPerReferral)
	referredReward := s.Settings.Int(model.SettingReferralBonusReferred)

	referral := &model.Referral{
		ReferrerID:   referrer.ID,
		ReferredID:   referred.ID,
		PointsEarned: inviterReward,
		IsVerified:   true,
	}
	if err := tx.CreateReferral(ctx, referral); err != nil {
		return err
	}

	if inviterReward > 0 {
		if _, err := award(ctx, tx, model.AwardParams{
			UserID:      referrer.ID,
			Points:      inviterReward,
			Type:        model.TransactionTypeReferral,
			Description: "Referral reward",
			ReferenceID: &referral.ID,
		}); err != nil {
			return err
		}
	}
	if referredReward > 0 {
		if _, err := award(ctx, tx, model.AwardParams{
			UserID:      referred.ID,
			Points:      referredReward,
			Type:        model.TransactionTypeReferral,
			Description: "Joined with a referral link",
			ReferenceID: &referral.ID,
		}); err != nil {
			return err
		}
	}

	_, err := tx.IncrementContestScores(ctx, referrer.ID, model.ContestTypeInvite, s.Now())
	return err
}

func (s *UserService) refreshProfile(ctx context.Context, user *model.User, tg TelegramUser) error {
	if user.FirstName == tg.FirstName &&
		equalPtr(user.Username, tg.Username) &&
		equalPtr(user.LastName, tg.LastName) &&
		equalPtr(user.PhotoURL, tg.PhotoURL) &&
		equalPtr(user.LanguageCode, tg.LanguageCode) {
		return nil
	}
	user.FirstName = tg.FirstName
	user.Username = tg.Username
	user.LastName = tg.LastName
	user.PhotoURL = tg.PhotoURL
	user.LanguageCode = tg.LanguageCode
	return s.Store.UpdateUserProfile(ctx, user)
}

func (s *UserService) withBalance(ctx context.Context, user *model.User) (*model.UserWithBalance, bool, error) {
	balance, err := s.Store.GetBalance(ctx, user.ID)
	if err != nil {
		return nil, false, mapStoreError(err)
	}
	return &model.UserWithBalance{User: *user, Balance: balance}, false, nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.Store.GetUser(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return user, nil
}

func (s *UserService) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := s.Store.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return user, nil
}

// GetNotifications returns the user's latest notifications, newest first.
func (s *UserService) GetNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.Store.GetUserNotifications(ctx, userID, limit)
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func generateReferralCode() (string, error) {
	bytes := make([]byte, 5)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	code := base32.StdEncoding.EncodeToString(bytes)
	code = strings.TrimRight(code, "=")
	return strings.ToLower(code[:8]), nil
}
