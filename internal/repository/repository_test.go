package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWithDB(sqlx.NewDb(db, "sqlmock")), mock
}

func TestAwardCreditsBalance(t *testing.T) {
	repo, mock := newMockRepo(t)
	userID := uuid.New()
	txID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE balances SET")).
		WithArgs(userID, int64(500), int64(0), int64(500), int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"points"}).AddRow(int64(1500)))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO transactions")).
		WithArgs(userID, model.TransactionTypeEarn, int64(500), int64(0), sqlmock.AnyArg(), sqlmock.AnyArg(), int64(1000), int64(1500)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(txID.String(), time.Now()))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET")).
		WithArgs(userID, int64(500), model.PointsPerLevel).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := repo.Award(context.Background(), model.AwardParams{
		UserID:      userID,
		Points:      500,
		Type:        model.TransactionTypeEarn,
		Description: "Task completed",
	})
	require.NoError(t, err)
	assert.Equal(t, txID, tx.ID)
	assert.Equal(t, int64(1000), tx.BalanceBefore)
	assert.Equal(t, int64(1500), tx.BalanceAfter)
	require.NotNil(t, tx.Description)
	assert.Equal(t, "Task completed", *tx.Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAwardEscrowMovesWithdrawnCounter(t *testing.T) {
	repo, mock := newMockRepo(t)
	userID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE balances SET")).
		WithArgs(userID, int64(-10000), int64(0), int64(0), int64(10000)).
		WillReturnRows(sqlmock.NewRows([]string{"points"}).AddRow(int64(0)))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO transactions")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(uuid.NewString(), time.Now()))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := repo.Award(context.Background(), model.AwardParams{UserID: userID, Points: -10000, Type: model.TransactionTypeSpend})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAwardInsufficientBalance(t *testing.T) {
	repo, mock := newMockRepo(t)
	userID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE balances SET")).
		WillReturnRows(sqlmock.NewRows([]string{"points"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := repo.Award(context.Background(), model.AwardParams{UserID: userID, Points: -1, Type: model.TransactionTypeSpend})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAwardUnknownUser(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE balances SET")).
		WillReturnRows(sqlmock.NewRows([]string{"points"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := repo.Award(context.Background(), model.AwardParams{UserID: uuid.New(), Points: 10, Type: model.TransactionTypeEarn})
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionWithdrawalOnlyFromPending(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()
	at := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE withdrawals SET")).
		WithArgs(id, model.WithdrawalStatusApproved, nil, at).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(id.String(), "approved"))

	w, err := repo.TransitionWithdrawal(context.Background(), model.Transition{WithdrawalID: id, To: model.WithdrawalStatusApproved, At: at})
	require.NoError(t, err)
	assert.Equal(t, model.WithdrawalStatusApproved, w.Status)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE withdrawals SET")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM withdrawals WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(id.String(), "approved"))

	_, err = repo.TransitionWithdrawal(context.Background(), model.Transition{WithdrawalID: id, To: model.WithdrawalStatusApproved, At: at})
	assert.ErrorIs(t, err, ErrNotPending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionUnknownWithdrawal(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE withdrawals SET")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM withdrawals WHERE id = $1")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.TransitionWithdrawal(context.Background(), model.Transition{WithdrawalID: uuid.New(), To: model.WithdrawalStatusRejected, At: time.Now()})
	assert.ErrorIs(t, err, ErrWithdrawalNotFound)
}

func TestClaimContestDistributionOnce(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE contests SET rewards_distributed = true")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "rewards_distributed", "is_active"}).AddRow(id.String(), true, false))

	contest, err := repo.ClaimContestDistribution(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, contest.RewardsDistributed)
	assert.False(t, contest.IsActive)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE contests SET rewards_distributed = true")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM contests WHERE id = $1")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "rewards_distributed"}).AddRow(id.String(), true))

	_, err = repo.ClaimContestDistribution(context.Background(), id)
	assert.ErrorIs(t, err, ErrAlreadyDistributed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM balances WHERE user_id = $1 FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))
	mock.ExpectRollback()

	err := repo.InTx(context.Background(), func(tx Tx) error {
		if _, _, err := tx.LockAccount(context.Background(), uuid.New()); !errors.Is(err, ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
