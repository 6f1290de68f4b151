package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
)

type ReferralService struct {
	Deps
	botUsername string
}

func NewReferralService(d Deps, botUsername string) *ReferralService {
	return &ReferralService{Deps: d.withDefaults(), botUsername: botUsername}
}

// SetBotUsername sets the bot used in invite links when it is only known
// after the bot has connected. Call it before serving requests.
func (s *ReferralService) SetBotUsername(username string) {
	s.botUsername = username
}

type ReferralInfo struct {
	Code     string              `json:"code"`
	Link     string              `json:"link,omitempty"`
	Stats    model.ReferralStats `json:"stats"`
	Referred []model.User        `json:"referred"`
}

// GetReferralInfo returns the user's invite link and the people who joined with it.
func (s *ReferralService) GetReferralInfo(ctx context.Context, userID uuid.UUID) (*ReferralInfo, error) {
	user, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return nil, mapStoreError(err)
	}

	stats, err := s.Store.GetReferralStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	referred, err := s.Store.GetReferredUsers(ctx, userID)
	if err != nil {
		return nil, err
	}
	if referred == nil {
		referred = []model.User{}
	}

	info := &ReferralInfo{Code: user.ReferralCode, Stats: *stats, Referred: referred}
	if s.botUsername != "" {
		info.Link = "https://t.me/" + s.botUsername + "?start=ref_" + user.ReferralCode
	}
	return info, nil
}
