package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
)

var (
	ErrWithdrawalNotFound = errors.New("withdrawal not found")
	ErrNotPending         = errors.New("withdrawal is not pending")
)

func (q *queries) GetWithdrawal(ctx context.Context, id uuid.UUID) (*model.Withdrawal, error) {
	var w model.Withdrawal
	err := sqlx.GetContext(ctx, q.ext, &w, "SELECT * FROM withdrawals WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWithdrawalNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (q *queries) CountPendingWithdrawals(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, q.ext, &count,
		"SELECT COUNT(*) FROM withdrawals WHERE user_id = $1 AND status = 'pending'", userID)
	return count, err
}

func (q *queries) CreateWithdrawal(ctx context.Context, w *model.Withdrawal) error {
	err := q.ext.QueryRowxContext(ctx, `
		INSERT INTO withdrawals (user_id, method, points_spent, amount, status, wallet_address)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, requested_at`,
		w.UserID, w.Method, w.PointsSpent, w.Amount, w.Status, w.WalletAddress,
	).Scan(&w.ID, &w.RequestedAt)
	if err != nil {
		return fmt.Errorf("failed to create withdrawal: %w", err)
	}
	return nil
}

// TransitionWithdrawal moves a pending withdrawal to a terminal status. The status
// check and the write are one statement, so of two concurrent calls only one
// updates a row; the other gets ErrNotPending.
func (q *queries) TransitionWithdrawal(ctx context.Context, t model.Transition) (*model.Withdrawal, error) {
	var w model.Withdrawal
	err := sqlx.GetContext(ctx, q.ext, &w, `
		UPDATE withdrawals SET
			status = $2,
			admin_note = COALESCE($3, admin_note),
			processed_at = $4
		WHERE id = $1 AND status = 'pending'
		RETURNING *`,
		t.WithdrawalID, t.To, t.AdminNote, t.At)
	if err == nil {
		return &w, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to update withdrawal: %w", err)
	}

	if _, err := q.GetWithdrawal(ctx, t.WithdrawalID); err != nil {
		return nil, err
	}
	return nil, ErrNotPending
}

func (q *queries) GetUserWithdrawals(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Withdrawal, error) {
	var withdrawals []model.Withdrawal
	err := sqlx.SelectContext(ctx, q.ext, &withdrawals, `
		SELECT * FROM withdrawals
		WHERE user_id = $1
		ORDER BY requested_at DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	return withdrawals, err
}

func (q *queries) GetWithdrawalsByStatus(ctx context.Context, status model.WithdrawalStatus, limit, offset int) ([]model.Withdrawal, error) {
	var withdrawals []model.Withdrawal
	err := sqlx.SelectContext(ctx, q.ext, &withdrawals, `
		SELECT * FROM withdrawals
		WHERE status = $1
		ORDER BY requested_at
		LIMIT $2 OFFSET $3`, status, limit, offset)
	return withdrawals, err
}
