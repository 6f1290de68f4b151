package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/repository"
	"github.com/sirupsen/logrus"
)

type BalanceService struct {
	Deps
}

func NewBalanceService(d Deps) *BalanceService {
	return &BalanceService{Deps: d.withDefaults()}
}

// GetBalance returns the user's wallet
func (s *BalanceService) GetBalance(ctx context.Context, userID uuid.UUID) (*model.Balance, error) {
	balance, err := s.Store.GetBalance(ctx, userID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return balance, nil
}

// GetTransactions returns ledger history, newest first
func (s *BalanceService) GetTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.Store.GetTransactions(ctx, userID, limit, offset)
}

// Award runs the award primitive as its own unit of work.
func (s *BalanceService) Award(ctx context.Context, p model.AwardParams) (*model.Transaction, error) {
	var t *model.Transaction
	err := s.Store.InTx(ctx, func(tx repository.Tx) error {
		if _, _, err := tx.LockAccount(ctx, p.UserID); err != nil {
			return mapStoreError(err)
		}
		var err error
		t, err = award(ctx, tx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// CreditManual applies an admin adjustment. Negative amounts debit the user but
// never below zero.
func (s *BalanceService) CreditManual(ctx context.Context, adminID int64, userID uuid.UUID, points int64, description string) (*model.Transaction, error) {
	if points == 0 {
		return nil, validationf("points must not be zero")
	}
	if description == "" {
		description = fmt.Sprintf("Manual adjustment: %+d points", points)
	}

	var t *model.Transaction
	err := s.Store.InTx(ctx, func(tx repository.Tx) error {
		if _, _, err := tx.LockAccount(ctx, userID); err != nil {
			return mapStoreError(err)
		}
		var err error
		t, err = award(ctx, tx, model.AwardParams{
			UserID:      userID,
			Points:      points,
			Type:        model.TransactionTypeManual,
			Description: description,
		})
		if err != nil {
			return err
		}
		return tx.LogAdminAction(ctx, adminID, model.AdminActionCreditUser, &userID, map[string]interface{}{
			"points":         points,
			"description":    description,
			"transaction_id": t.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.Log.WithFields(logrus.Fields{"admin_id": adminID, "user_id": userID, "points": points}).Info("manual balance adjustment")
	return t, nil
}

// VerifyLedger lists users whose balance differs from the sum of their transactions.
func (s *BalanceService) VerifyLedger(ctx context.Context) ([]model.LedgerMismatch, error) {
	mismatches, err := s.Store.GetLedgerMismatches(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range mismatches {
		s.Log.WithFields(logrus.Fields{
			"user_id":        m.UserID,
			"balance_points": m.BalancePoints,
			"ledger_points":  m.LedgerPoints,
		}).Error("ledger mismatch")
	}
	return mismatches, nil
}
