package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(t *testing.T, s *Store, telegramID int64) *model.User {
	t.Helper()
	user := &model.User{TelegramID: telegramID, FirstName: "u", ReferralCode: uuid.NewString()[:8]}
	require.NoError(t, s.InTx(context.Background(), func(tx repository.Tx) error {
		return tx.CreateUser(context.Background(), user)
	}))
	return user
}

func TestAwardKeepsLedgerConsistent(t *testing.T) {
	ctx := context.Background()
	s := New()
	user := newUser(t, s, 1)

	err := s.InTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.Award(ctx, model.AwardParams{UserID: user.ID, Points: 15000, Type: model.TransactionTypeBonus}); err != nil {
			return err
		}
		_, err := tx.Award(ctx, model.AwardParams{UserID: user.ID, Points: -5000, Type: model.TransactionTypeSpend})
		return err
	})
	require.NoError(t, err)

	balance, err := s.GetBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), balance.Points)
	assert.Equal(t, int64(15000), balance.TotalEarned)
	assert.Equal(t, int64(5000), balance.TotalWithdrawn)

	got, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), got.TotalPoints)
	assert.Equal(t, 2, got.Level)

	mismatches, err := s.GetLedgerMismatches(ctx)
	require.NoError(t, err)
	assert.Empty(t, mismatches)
}

func TestAwardRejectsOverdraft(t *testing.T) {
	ctx := context.Background()
	s := New()
	user := newUser(t, s, 1)

	err := s.InTx(ctx, func(tx repository.Tx) error {
		_, err := tx.Award(ctx, model.AwardParams{UserID: user.ID, Points: -1, Type: model.TransactionTypeSpend})
		return err
	})
	assert.ErrorIs(t, err, repository.ErrInsufficientBalance)

	err = s.InTx(ctx, func(tx repository.Tx) error {
		_, err := tx.Award(ctx, model.AwardParams{UserID: uuid.New(), Points: 10, Type: model.TransactionTypeEarn})
		return err
	})
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	user := newUser(t, s, 1)

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.Award(ctx, model.AwardParams{UserID: user.ID, Points: 100, Type: model.TransactionTypeEarn}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	balance, err := s.GetBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, balance.Points)

	txs, err := s.GetTransactions(ctx, user.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestDuplicateTelegramUser(t *testing.T) {
	s := New()
	newUser(t, s, 7)

	err := s.InTx(context.Background(), func(tx repository.Tx) error {
		return tx.CreateUser(context.Background(), &model.User{TelegramID: 7, ReferralCode: "other"})
	})
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)
}

func TestContestRankingTieBreak(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New()

	contest := &model.Contest{Title: "ads", Type: model.ContestTypeAds, StartsAt: start, EndsAt: start.Add(24 * time.Hour), IsActive: true}
	require.NoError(t, s.CreateContest(ctx, contest))

	first, second := newUser(t, s, 1), newUser(t, s, 2)
	require.NoError(t, s.InTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.IncrementContestScores(ctx, first.ID, model.ContestTypeAds, start.Add(time.Hour)); err != nil {
			return err
		}
		_, err := tx.IncrementContestScores(ctx, second.ID, model.ContestTypeAds, start.Add(2*time.Hour))
		return err
	}))

	entries, err := s.GetContestEntries(ctx, contest.ID, 5)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first.ID, entries[0].UserID)
	assert.Equal(t, second.ID, entries[1].UserID)

	require.NoError(t, s.InTx(ctx, func(tx repository.Tx) error {
		_, err := tx.ClaimContestDistribution(ctx, contest.ID)
		return err
	}))
	err = s.InTx(ctx, func(tx repository.Tx) error {
		_, err := tx.ClaimContestDistribution(ctx, contest.ID)
		return err
	})
	assert.ErrorIs(t, err, repository.ErrAlreadyDistributed)
}

func TestPageBounds(t *testing.T) {
	items := []int{1, 2, 3, 4}

	assert.Equal(t, []int{1, 2}, page(items, 2, -1))
	assert.Equal(t, []int{3, 4}, page(items, 2, 2))
	assert.Nil(t, page(items, 2, 10))
	assert.Equal(t, items, page(items, 0, 0))
}
