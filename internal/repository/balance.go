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

var _ Tx = (*queries)(nil)

// LockAccount locks the user's balance row for the rest of the transaction and
// returns the user with the locked balance.
func (q *queries) LockAccount(ctx context.Context, userID uuid.UUID) (*model.User, *model.Balance, error) {
	var balance model.Balance
	err := sqlx.GetContext(ctx, q.ext, &balance,
		"SELECT * FROM balances WHERE user_id = $1 FOR UPDATE", userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("failed to lock balance: %w", err)
	}

	user, err := q.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return user, &balance, nil
}

// Award is the only statement sequence that changes a balance. The balance update is a
// single conditional increment, so a debit can never take points or stars below zero
// even without a prior lock.
func (q *queries) Award(ctx context.Context, p model.AwardParams) (*model.Transaction, error) {
	earned, withdrawn := p.Counters()

	var balanceAfter int64
	err := sqlx.GetContext(ctx, q.ext, &balanceAfter, `
		UPDATE balances SET
			points = points + $2,
			stars_balance = stars_balance + $3,
			total_earned = total_earned + $4,
			total_withdrawn = GREATEST(total_withdrawn + $5, 0),
			updated_at = NOW()
		WHERE user_id = $1 AND points + $2 >= 0 AND stars_balance + $3 >= 0
		RETURNING points`,
		p.UserID, p.Points, p.Stars, earned, withdrawn)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to update balance: %w", err)
		}
		var exists bool
		if err := sqlx.GetContext(ctx, q.ext, &exists,
			"SELECT EXISTS(SELECT 1 FROM balances WHERE user_id = $1)", p.UserID); err != nil {
			return nil, fmt.Errorf("failed to check balance: %w", err)
		}
		if !exists {
			return nil, ErrUserNotFound
		}
		return nil, ErrInsufficientBalance
	}

	tx := &model.Transaction{
		UserID:        p.UserID,
		Type:          p.Type,
		Points:        p.Points,
		Stars:         p.Stars,
		ReferenceID:   p.ReferenceID,
		BalanceBefore: balanceAfter - p.Points,
		BalanceAfter:  balanceAfter,
	}
	if p.Description != "" {
		desc := p.Description
		tx.Description = &desc
	}

	err = q.ext.QueryRowxContext(ctx, `
		INSERT INTO transactions (user_id, type, points, stars, description, reference_id, balance_before, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		tx.UserID, tx.Type, tx.Points, tx.Stars, tx.Description, tx.ReferenceID, tx.BalanceBefore, tx.BalanceAfter,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction record: %w", err)
	}

	_, err = q.ext.ExecContext(ctx, `
		UPDATE users SET
			total_points = total_points + $2,
			level = GREATEST(total_points + $2, 0) / $3 + 1,
			updated_at = NOW()
		WHERE id = $1`,
		p.UserID, p.Points, model.PointsPerLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to update user level: %w", err)
	}

	return tx, nil
}

// GetBalance returns the wallet of a user
func (q *queries) GetBalance(ctx context.Context, userID uuid.UUID) (*model.Balance, error) {
	var balance model.Balance
	err := sqlx.GetContext(ctx, q.ext, &balance, "SELECT * FROM balances WHERE user_id = $1", userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &balance, nil
}

// GetTransactions returns transaction history for a user, newest first
func (q *queries) GetTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Transaction, error) {
	var transactions []model.Transaction
	err := sqlx.SelectContext(ctx, q.ext, &transactions, `
		SELECT * FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	return transactions, err
}

// GetLedgerMismatches lists users whose balance differs from the sum of their transactions.
func (q *queries) GetLedgerMismatches(ctx context.Context) ([]model.LedgerMismatch, error) {
	var mismatches []model.LedgerMismatch
	err := sqlx.SelectContext(ctx, q.ext, &mismatches, `
		SELECT b.user_id, b.points AS balance_points, COALESCE(SUM(t.points), 0) AS ledger_points
		FROM balances b
		LEFT JOIN transactions t ON t.user_id = b.user_id
		GROUP BY b.user_id, b.points
		HAVING b.points <> COALESCE(SUM(t.points), 0)`)
	return mismatches, err
}
