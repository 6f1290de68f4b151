package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitUserAppliesWelcomeBonus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	username := "alice"

	user, created, err := env.users.InitUser(ctx, TelegramUser{ID: 42, FirstName: "Alice", Username: &username}, "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(1000), user.Balance.Points)
	assert.Equal(t, int64(1000), user.TotalPoints)
	assert.Equal(t, 1, user.Level)
	assert.Len(t, user.ReferralCode, 8)
	assert.Len(t, env.notifier.ofType(model.NotificationWelcome), 1)

	again, created, err := env.users.InitUser(ctx, TelegramUser{ID: 42, FirstName: "Alice B", Username: &username}, "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, "Alice B", again.FirstName)
	assert.Equal(t, int64(1000), again.Balance.Points)

	txs, err := env.balances.GetTransactions(ctx, user.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, model.TransactionTypeBonus, txs[0].Type)
}

func TestInitUserWithReferral(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := env.clock.Now()

	contest, err := env.contests.Create(ctx, 1, CreateContestRequest{
		Title: "Invite friends", Type: model.ContestTypeInvite,
		StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour), Rewards: []int64{1000},
	})
	require.NoError(t, err)

	inviter := env.newUser(t)
	invited, created, err := env.users.InitUser(ctx, TelegramUser{ID: 9001, FirstName: "Bob"}, "ref_"+inviter.ReferralCode)
	require.NoError(t, err)
	require.True(t, created)

	require.NotNil(t, invited.ReferredBy)
	assert.Equal(t, inviter.ID, *invited.ReferredBy)
	assert.Equal(t, int64(1500), invited.Balance.Points)
	assert.Equal(t, int64(2000), env.points(t, inviter.ID))

	refs := env.notifier.ofType(model.NotificationNewReferral)
	require.Len(t, refs, 1)
	assert.Equal(t, inviter.ID, refs[0].UserID)

	board, err := env.contests.Leaderboard(ctx, contest.ID)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, inviter.ID, board[0].UserID)
	assert.Equal(t, int64(1), board[0].Score)

	info, err := NewReferralService(Deps{Store: env.store, Settings: env.settings}, "rewards_bot").GetReferralInfo(ctx, inviter.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Stats.TotalReferrals)
	assert.Equal(t, int64(1000), info.Stats.PointsEarned)
	assert.Equal(t, "https://t.me/rewards_bot?start=ref_"+inviter.ReferralCode, info.Link)
	env.requireLedgerConsistent(t)
}

func TestInitUserIgnoresUnknownReferralCode(t *testing.T) {
	env := newTestEnv(t)

	user, created, err := env.users.InitUser(context.Background(), TelegramUser{ID: 77, FirstName: "Eve"}, "doesnotexist")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Nil(t, user.ReferredBy)
	assert.Equal(t, int64(1000), user.Balance.Points)
}

func TestInitUserValidation(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.users.InitUser(context.Background(), TelegramUser{FirstName: "nobody"}, "")
	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, KindValidation, e.Kind)
}

func TestInitUserConcurrentFirstAuth(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]*model.UserWithBalance, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user, _, err := env.users.InitUser(ctx, TelegramUser{ID: 555, FirstName: "Race"}, "")
			assert.NoError(t, err)
			results[i] = user
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, results[0].ID, r.ID)
	}
	assert.Equal(t, int64(1000), env.points(t, results[0].ID))
}
