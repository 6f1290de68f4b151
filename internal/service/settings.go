package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/metrics"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// SettingsBroadcaster tells other instances that the settings changed.
type SettingsBroadcaster interface {
	PublishSettingsVersion(ctx context.Context, version int64) error
}

// SettingView is a setting as shown to admins, with its documented default.
type SettingView struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Default     string `json:"default"`
	Description string `json:"description"`
	Version     int64  `json:"version"`
	IsDefault   bool   `json:"is_default"`
}

// SettingsService keeps a versioned snapshot of the settings table. Reads never
// touch the store; every write reloads the snapshot before returning.
type SettingsService struct {
	store       Store
	broadcaster SettingsBroadcaster
	log         *logrus.Logger

	mu      sync.RWMutex
	rows    map[string]model.Setting
	version int64
}

func NewSettingsService(store Store, log *logrus.Logger) *SettingsService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SettingsService{store: store, log: log, rows: map[string]model.Setting{}}
}

// SetBroadcaster sets the publisher used after each write
func (s *SettingsService) SetBroadcaster(b SettingsBroadcaster) {
	s.broadcaster = b
}

// Reload replaces the snapshot with the current table contents.
func (s *SettingsService) Reload(ctx context.Context) error {
	settings, err := s.store.GetAllSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	rows := make(map[string]model.Setting, len(settings))
	var version int64
	for _, st := range settings {
		rows[st.Key] = st
		if st.Version > version {
			version = st.Version
		}
	}

	s.mu.Lock()
	s.rows = rows
	s.version = version
	s.mu.Unlock()

	metrics.SetSettingsVersion(version)
	return nil
}

// ReloadIfStale reloads when the given version is newer than the snapshot.
func (s *SettingsService) ReloadIfStale(ctx context.Context, version int64) error {
	if version <= s.Version() {
		return nil
	}
	return s.Reload(ctx)
}

func (s *SettingsService) Version() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *SettingsService) raw(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.rows[key]
	return st.Value, ok
}

// Decimal returns the numeric value of key, or its documented default when the
// key is absent or unparsable. Keys without a documented default fall back to zero.
func (s *SettingsService) Decimal(key string) decimal.Decimal {
	def := decimal.Zero
	if d, ok := model.DefaultSettings[key]; ok {
		def = decimal.RequireFromString(d.Value)
	} else {
		s.log.WithField("key", key).Warn("setting has no documented default")
	}
	value, ok := s.raw(key)
	if !ok {
		return def
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		s.log.WithFields(logrus.Fields{"key": key, "value": value}).Warn("unparsable setting, using default")
		return def
	}
	return d
}

// Int returns the integer part of a numeric setting.
func (s *SettingsService) Int(key string) int64 {
	return s.Decimal(key).IntPart()
}

// All lists every documented key plus any extra rows, sorted by key.
func (s *SettingsService) All() []SettingView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	views := make([]SettingView, 0, len(model.DefaultSettings))
	seen := make(map[string]bool, len(model.DefaultSettings))
	for key, def := range model.DefaultSettings {
		v := SettingView{Key: key, Value: def.Value, Default: def.Value, Description: def.Description, IsDefault: true}
		if st, ok := s.rows[key]; ok {
			v.Value = st.Value
			v.Version = st.Version
			v.IsDefault = false
		}
		views = append(views, v)
		seen[key] = true
	}
	for key, st := range s.rows {
		if seen[key] {
			continue
		}
		v := SettingView{Key: key, Value: st.Value, Version: st.Version}
		if st.Description != nil {
			v.Description = *st.Description
		}
		views = append(views, v)
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Key < views[j].Key })
	return views
}

// Set validates and writes one setting, then reloads the snapshot and
// broadcasts the new version. Broadcast failures are logged only.
func (s *SettingsService) Set(ctx context.Context, key, value string) (int64, error) {
	if err := validateSetting(key, value); err != nil {
		return 0, err
	}

	version, err := s.store.SetSetting(ctx, key, value)
	if err != nil {
		return 0, fmt.Errorf("failed to save setting: %w", err)
	}
	if err := s.Reload(ctx); err != nil {
		return 0, err
	}

	if s.broadcaster != nil {
		if err := s.broadcaster.PublishSettingsVersion(ctx, version); err != nil {
			s.log.WithError(err).WithField("version", version).Warn("failed to broadcast settings change")
		}
	}

	s.log.WithFields(logrus.Fields{"key": key, "value": value, "version": version}).Info("setting updated")
	return version, nil
}

func validateSetting(key, value string) error {
	def, ok := model.DefaultSettings[key]
	if !ok {
		return validationf("Unknown setting %q", key)
	}
	if !def.Numeric {
		return nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return validationf("Setting %s must be a number", key)
	}
	if d.IsNegative() {
		return validationf("Setting %s must not be negative", key)
	}
	switch key {
	case model.SettingUSDTConversionRate, model.SettingTONConversionRate, model.SettingStarsConversionRate:
		if !d.IsPositive() {
			return validationf("Setting %s must be positive", key)
		}
	case model.SettingSpinJackpotChance:
		if d.GreaterThan(decimal.NewFromInt(1)) {
			return validationf("Setting %s must be between 0 and 1", key)
		}
	}
	return nil
}
