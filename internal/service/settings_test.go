package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/repository/memstore"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBroadcaster struct {
	versions []int64
	err      error
}

func (b *fakeBroadcaster) PublishSettingsVersion(_ context.Context, version int64) error {
	b.versions = append(b.versions, version)
	return b.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestSettingsDefaults(t *testing.T) {
	settings := NewSettingsService(memstore.New(), quietLogger())
	require.NoError(t, settings.Reload(context.Background()))

	assert.Equal(t, int64(1000), settings.Int(model.SettingWelcomeBonus))
	assert.Equal(t, int64(3), settings.Int(model.SettingSpinDailyLimit))
	assert.Equal(t, "0.05", settings.Decimal(model.SettingSpinJackpotChance).String())
	assert.Zero(t, settings.Version())

	views := settings.All()
	assert.Len(t, views, len(model.DefaultSettings))
	for _, v := range views {
		assert.True(t, v.IsDefault, v.Key)
	}
}

func TestSettingsUndocumentedKeyIsZero(t *testing.T) {
	settings := NewSettingsService(memstore.New(), quietLogger())
	require.NoError(t, settings.Reload(context.Background()))

	assert.NotPanics(t, func() {
		assert.True(t, settings.Decimal("no_such_setting").IsZero())
		assert.Zero(t, settings.Int("no_such_setting"))
	})
}

func TestSettingsSetReloadsAndBroadcasts(t *testing.T) {
	ctx := context.Background()
	settings := NewSettingsService(memstore.New(), quietLogger())
	b := &fakeBroadcaster{}
	settings.SetBroadcaster(b)

	v1, err := settings.Set(ctx, model.SettingSpinDailyLimit, "5")
	require.NoError(t, err)
	assert.Equal(t, int64(5), settings.Int(model.SettingSpinDailyLimit))

	v2, err := settings.Set(ctx, model.SettingWelcomeBonus, "0")
	require.NoError(t, err)
	assert.Greater(t, v2, v1)
	assert.Equal(t, v2, settings.Version())
	assert.Zero(t, settings.Int(model.SettingWelcomeBonus))
	assert.Equal(t, []int64{v1, v2}, b.versions)

	b.err = errors.New("redis down")
	_, err = settings.Set(ctx, model.SettingAdHourlyLimit, "20")
	assert.NoError(t, err)
}

func TestSettingsValidation(t *testing.T) {
	settings := NewSettingsService(memstore.New(), quietLogger())
	ctx := context.Background()

	cases := map[string][2]string{
		"unknown key":    {"free_money", "1"},
		"not a number":   {model.SettingSpinDailyLimit, "three"},
		"negative":       {model.SettingDailyBaseReward, "-1"},
		"zero rate":      {model.SettingUSDTConversionRate, "0"},
		"jackpot over 1": {model.SettingSpinJackpotChance, "1.5"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := settings.Set(ctx, c[0], c[1])
			assert.Equal(t, KindValidation, KindOf(err))
		})
	}
	assert.Zero(t, settings.Version())
}

func TestSettingsReloadIfStale(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	local := NewSettingsService(store, quietLogger())
	remote := NewSettingsService(store, quietLogger())
	require.NoError(t, local.Reload(ctx))

	version, err := remote.Set(ctx, model.SettingMinWithdrawalPoints, "20000")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), local.Int(model.SettingMinWithdrawalPoints))

	require.NoError(t, local.ReloadIfStale(ctx, version-1))
	assert.Equal(t, int64(10000), local.Int(model.SettingMinWithdrawalPoints))

	require.NoError(t, local.ReloadIfStale(ctx, version))
	assert.Equal(t, int64(20000), local.Int(model.SettingMinWithdrawalPoints))
}
