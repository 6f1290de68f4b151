package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ok, err := env.admin.IsAdmin(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.admin.IsAdmin(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	env.store.AddAdmin(2)
	ok, err = env.admin.IsAdmin(ctx, 2)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreditManual(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.newUser(t)

	_, err := env.balances.CreditManual(ctx, 1, user.ID, 0, "")
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = env.balances.CreditManual(ctx, 1, user.ID, -5000, "")
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	tx, err := env.balances.CreditManual(ctx, 1, user.ID, -400, "")
	require.NoError(t, err)
	require.NotNil(t, tx.Description)
	assert.Equal(t, "Manual adjustment: -400 points", *tx.Description)
	assert.Equal(t, int64(600), env.points(t, user.ID))

	_, err = env.balances.CreditManual(ctx, 1, uuid.New(), 10, "")
	assert.ErrorIs(t, err, ErrUserNotFound)

	logs, err := env.admin.GetLogs(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.AdminActionCreditUser, logs[0].Action)
	env.requireLedgerConsistent(t)
}

func TestBanUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	err := env.admin.BanUser(context.Background(), 1, uuid.New(), "")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
