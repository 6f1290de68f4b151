package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
	"github.com/sirupsen/logrus"
)

type AdminService struct {
	Deps
	configured map[int64]bool
}

// NewAdminService creates the admin service. Accounts in telegramIDs are admins
// in addition to the rows of the admins table.
func NewAdminService(d Deps, telegramIDs []int64) *AdminService {
	configured := make(map[int64]bool, len(telegramIDs))
	for _, id := range telegramIDs {
		configured[id] = true
	}
	return &AdminService{Deps: d.withDefaults(), configured: configured}
}

// IsAdmin checks if a Telegram account holds the admin capability
func (s *AdminService) IsAdmin(ctx context.Context, telegramID int64) (bool, error) {
	if s.configured[telegramID] {
		return true, nil
	}
	return s.Store.IsAdmin(ctx, telegramID)
}

// BanUser blocks the user from every earning and withdrawal rule.
func (s *AdminService) BanUser(ctx context.Context, adminID int64, userID uuid.UUID, reason string) error {
	return s.setBanned(ctx, adminID, userID, true, reason)
}

func (s *AdminService) UnbanUser(ctx context.Context, adminID int64, userID uuid.UUID) error {
	return s.setBanned(ctx, adminID, userID, false, "")
}

func (s *AdminService) setBanned(ctx context.Context, adminID int64, userID uuid.UUID, banned bool, reason string) error {
	if err := s.Store.SetUserBanned(ctx, userID, banned); err != nil {
		return mapStoreError(err)
	}

	action := model.AdminActionUnbanUser
	if banned {
		action = model.AdminActionBanUser
	}
	var details map[string]interface{}
	if reason != "" {
		details = map[string]interface{}{"reason": reason}
	}
	if err := s.Store.LogAdminAction(ctx, adminID, action, &userID, details); err != nil {
		s.Log.WithError(err).Warn("failed to log admin action")
	}

	s.Log.WithFields(logrus.Fields{"admin_id": adminID, "user_id": userID, "banned": banned}).Info("user ban state changed")
	return nil
}

// SetSetting writes a setting and records who changed it.
func (s *AdminService) SetSetting(ctx context.Context, adminID int64, key, value string) (int64, error) {
	version, err := s.Settings.Set(ctx, key, value)
	if err != nil {
		return 0, err
	}
	if err := s.Store.LogAdminAction(ctx, adminID, model.AdminActionSetSetting, nil, map[string]interface{}{
		"key":     key,
		"value":   value,
		"version": version,
	}); err != nil {
		s.Log.WithError(err).Warn("failed to log admin action")
	}
	return version, nil
}

// GetLogs returns admin action logs, newest first
func (s *AdminService) GetLogs(ctx context.Context, limit, offset int) ([]model.AdminLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.Store.GetAdminLogs(ctx, limit, offset)
}
