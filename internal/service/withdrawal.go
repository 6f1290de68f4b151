package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/metrics"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/repository"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/ton"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// amountPlaces is the scale of withdrawals.amount.
const amountPlaces = 9

type WithdrawalService struct {
	Deps
	tonTestnet bool
}

func NewWithdrawalService(d Deps, tonTestnet bool) *WithdrawalService {
	return &WithdrawalService{Deps: d.withDefaults(), tonTestnet: tonTestnet}
}

type CreateWithdrawalRequest struct {
	Method        model.WithdrawalMethod
	Points        int64
	WalletAddress *string
}

// Create escrows the points and files a pending withdrawal.
func (s *WithdrawalService) Create(ctx context.Context, userID uuid.UUID, req CreateWithdrawalRequest) (*model.Withdrawal, error) {
	w, err := s.create(ctx, userID, req)
	if err != nil {
		return nil, reject(s.Log, "withdraw", userID, err)
	}
	return w, nil
}

func (s *WithdrawalService) create(ctx context.Context, userID uuid.UUID, req CreateWithdrawalRequest) (*model.Withdrawal, error) {
	if !req.Method.Valid() {
		return nil, validationf("Invalid withdrawal method")
	}
	if req.Points <= 0 {
		return nil, validationf("points must be positive")
	}

	wallet, err := s.wallet(req.Method, req.WalletAddress)
	if err != nil {
		return nil, err
	}

	if minPoints := s.Settings.Int(model.SettingMinWithdrawalPoints); req.Points < minPoints {
		return nil, businessf("Minimum withdrawal is %d points", minPoints)
	}

	rate := s.Settings.Decimal(req.Method.RateKey())
	if !rate.IsPositive() {
		return nil, fmt.Errorf("conversion rate %s is not positive", req.Method.RateKey())
	}
	maxPending := int(s.Settings.Int(model.SettingMaxPendingWithdrawals))

	var (
		w    *model.Withdrawal
		user *model.User
	)
	err = s.Store.InTx(ctx, func(tx repository.Tx) error {
		u, balance, err := lockActiveUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		user = u

		if req.Points > balance.Points {
			return ErrInsufficientBalance
		}

		pending, err := tx.CountPendingWithdrawals(ctx, userID)
		if err != nil {
			return err
		}
		if pending >= maxPending {
			return ErrTooManyPending
		}

		w = &model.Withdrawal{
			UserID:        userID,
			Method:        req.Method,
			PointsSpent:   req.Points,
			Amount:        decimal.NewFromInt(req.Points).Div(rate).Round(amountPlaces),
			Status:        model.WithdrawalStatusPending,
			WalletAddress: wallet,
		}
		if err := tx.CreateWithdrawal(ctx, w); err != nil {
			return err
		}

		_, err = award(ctx, tx, model.AwardParams{
			UserID:      userID,
			Points:      -req.Points,
			Type:        model.TransactionTypeSpend,
			Description: fmt.Sprintf("Withdrawal request: %s %s", w.Amount.String(), strings.ToUpper(string(w.Method))),
			ReferenceID: &w.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Log.WithFields(logrus.Fields{
		"user_id":       userID,
		"withdrawal_id": w.ID,
		"method":        w.Method,
		"points":        w.PointsSpent,
		"amount":        w.Amount.String(),
	}).Info("withdrawal requested")

	s.Notifier.Notify(model.Notification{
		UserID:     userID,
		TelegramID: user.TelegramID,
		Type:       model.NotificationWithdrawalSubmitted,
		Title:      "Withdrawal submitted",
		Message:    fmt.Sprintf("Your request for %s %s is pending review.", w.Amount.String(), strings.ToUpper(string(w.Method))),
	})
	return w, nil
}

func (s *WithdrawalService) wallet(method model.WithdrawalMethod, raw *string) (*string, error) {
	if !method.NeedsWallet() {
		return nil, nil
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, validationf("walletAddress is required for %s withdrawals", method)
	}
	addr := strings.TrimSpace(*raw)
	if method == model.WithdrawalMethodTON {
		normalized, err := ton.NormalizeAddress(addr, s.tonTestnet)
		if err != nil {
			return nil, validationf("Invalid TON wallet address")
		}
		addr = normalized
	}
	return &addr, nil
}

// Update applies an admin decision: approved or rejected.
func (s *WithdrawalService) Update(ctx context.Context, adminID int64, withdrawalID uuid.UUID, status model.WithdrawalStatus, adminNote *string) (*model.Withdrawal, error) {
	switch status {
	case model.WithdrawalStatusApproved:
		return s.Approve(ctx, adminID, withdrawalID, adminNote)
	case model.WithdrawalStatusRejected:
		return s.Reject(ctx, adminID, withdrawalID, adminNote)
	}
	return nil, validationf("status must be approved or rejected")
}

// Approve settles a pending withdrawal. The points were already escrowed, so
// the balance does not change.
func (s *WithdrawalService) Approve(ctx context.Context, adminID int64, withdrawalID uuid.UUID, adminNote *string) (*model.Withdrawal, error) {
	var w *model.Withdrawal
	err := s.Store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		w, err = tx.TransitionWithdrawal(ctx, model.Transition{
			WithdrawalID: withdrawalID,
			To:           model.WithdrawalStatusApproved,
			AdminNote:    adminNote,
			At:           s.Now(),
		})
		if err != nil {
			return mapStoreError(err)
		}
		return tx.LogAdminAction(ctx, adminID, model.AdminActionApproveWithdrawal, &w.UserID, map[string]interface{}{
			"withdrawal_id": w.ID,
			"points":        w.PointsSpent,
			"amount":        w.Amount.String(),
			"method":        w.Method,
		})
	})
	if err != nil {
		return nil, s.transitionFailed(withdrawalID, err)
	}

	metrics.RecordWithdrawalTransition(string(w.Status))
	s.Log.WithFields(logrus.Fields{"admin_id": adminID, "withdrawal_id": w.ID, "user_id": w.UserID}).Info("withdrawal approved")
	s.notify(ctx, w, model.NotificationWithdrawalApproved, "Withdrawal approved",
		fmt.Sprintf("Your withdrawal of %s %s was approved.", w.Amount.String(), strings.ToUpper(string(w.Method))))
	return w, nil
}

// Reject closes a pending withdrawal and refunds the escrowed points in the same transaction.
func (s *WithdrawalService) Reject(ctx context.Context, adminID int64, withdrawalID uuid.UUID, adminNote *string) (*model.Withdrawal, error) {
	var w *model.Withdrawal
	err := s.Store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		w, err = tx.TransitionWithdrawal(ctx, model.Transition{
			WithdrawalID: withdrawalID,
			To:           model.WithdrawalStatusRejected,
			AdminNote:    adminNote,
			At:           s.Now(),
		})
		if err != nil {
			return mapStoreError(err)
		}

		if _, _, err := tx.LockAccount(ctx, w.UserID); err != nil {
			return mapStoreError(err)
		}
		if _, err := award(ctx, tx, model.AwardParams{
			UserID:      w.UserID,
			Points:      w.PointsSpent,
			Type:        model.TransactionTypeRefund,
			Description: "Withdrawal rejected, points refunded",
			ReferenceID: &w.ID,
		}); err != nil {
			return err
		}

		return tx.LogAdminAction(ctx, adminID, model.AdminActionRejectWithdrawal, &w.UserID, map[string]interface{}{
			"withdrawal_id": w.ID,
			"points":        w.PointsSpent,
			"note":          adminNote,
		})
	})
	if err != nil {
		return nil, s.transitionFailed(withdrawalID, err)
	}

	metrics.RecordWithdrawalTransition(string(w.Status))
	s.Log.WithFields(logrus.Fields{"admin_id": adminID, "withdrawal_id": w.ID, "user_id": w.UserID}).Info("withdrawal rejected")

	msg := fmt.Sprintf("Your withdrawal was rejected and %d points were refunded.", w.PointsSpent)
	if adminNote != nil && *adminNote != "" {
		msg += " Reason: " + *adminNote
	}
	s.notify(ctx, w, model.NotificationWithdrawalRejected, "Withdrawal rejected", msg)
	return w, nil
}

func (s *WithdrawalService) transitionFailed(withdrawalID uuid.UUID, err error) error {
	var e *Error
	if errors.As(err, &e) {
		metrics.RecordRejection("withdrawal_update", e.Kind.String())
		s.Log.WithFields(logrus.Fields{"withdrawal_id": withdrawalID, "reason": e.Message}).Warn("withdrawal update refused")
		return err
	}
	s.Log.WithError(err).WithField("withdrawal_id", withdrawalID).Error("withdrawal update failed")
	return err
}

func (s *WithdrawalService) notify(ctx context.Context, w *model.Withdrawal, typ model.NotificationType, title, message string) {
	n := model.Notification{UserID: w.UserID, Type: typ, Title: title, Message: message}
	if user, err := s.Store.GetUser(ctx, w.UserID); err == nil {
		n.TelegramID = user.TelegramID
	}
	s.Notifier.Notify(n)
}

func (s *WithdrawalService) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Withdrawal, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.Store.GetUserWithdrawals(ctx, userID, limit, offset)
}

// ListByStatus is the admin review queue, oldest first.
func (s *WithdrawalService) ListByStatus(ctx context.Context, status model.WithdrawalStatus, limit, offset int) ([]model.Withdrawal, error) {
	if status == "" {
		status = model.WithdrawalStatusPending
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.Store.GetWithdrawalsByStatus(ctx, status, limit, offset)
}
