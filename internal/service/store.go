package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/metrics"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/repository"
	"github.com/sirupsen/logrus"
)

// Store is the persistence the services need. *repository.Repository and
// *memstore.Store both implement it.
type Store interface {
	InTx(ctx context.Context, fn func(tx repository.Tx) error) error

	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	UpdateUserProfile(ctx context.Context, user *model.User) error
	SetUserBanned(ctx context.Context, id uuid.UUID, banned bool) error

	GetBalance(ctx context.Context, userID uuid.UUID) (*model.Balance, error)
	GetTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Transaction, error)
	GetLedgerMismatches(ctx context.Context) ([]model.LedgerMismatch, error)

	GetReferralStats(ctx context.Context, referrerID uuid.UUID) (*model.ReferralStats, error)
	GetReferredUsers(ctx context.Context, referrerID uuid.UUID) ([]model.User, error)

	GetActiveTasks(ctx context.Context) ([]model.Task, error)
	CreateTask(ctx context.Context, task *model.Task) error
	GetLatestCompletions(ctx context.Context, userID uuid.UUID) ([]model.UserTaskCompletion, error)

	CountSpinsSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)

	GetWithdrawal(ctx context.Context, id uuid.UUID) (*model.Withdrawal, error)
	GetUserWithdrawals(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Withdrawal, error)
	GetWithdrawalsByStatus(ctx context.Context, status model.WithdrawalStatus, limit, offset int) ([]model.Withdrawal, error)

	GetContest(ctx context.Context, id uuid.UUID) (*model.Contest, error)
	CreateContest(ctx context.Context, contest *model.Contest) error
	GetActiveContests(ctx context.Context, at time.Time) ([]model.Contest, error)
	GetDueContests(ctx context.Context, at time.Time) ([]model.Contest, error)
	CloseContest(ctx context.Context, contestID uuid.UUID) error
	GetContestEntries(ctx context.Context, contestID uuid.UUID, limit int) ([]model.ContestEntry, error)

	SetSetting(ctx context.Context, key, value string) (int64, error)
	GetAllSettings(ctx context.Context) ([]model.Setting, error)

	IsAdmin(ctx context.Context, telegramID int64) (bool, error)
	LogAdminAction(ctx context.Context, adminID int64, action string, targetUserID *uuid.UUID, details map[string]interface{}) error
	GetAdminLogs(ctx context.Context, limit, offset int) ([]model.AdminLog, error)

	CreateNotification(ctx context.Context, n *model.Notification) error
	GetUserNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error)
}

// Notifier delivers user notifications (implemented by notify.Dispatcher).
// Notify must not block and never reports delivery failures.
type Notifier interface {
	Notify(n model.Notification)
}

type nopNotifier struct{}

func (nopNotifier) Notify(model.Notification) {}

// Deps bundles the collaborators shared by the rule services.
type Deps struct {
	Store    Store
	Settings *SettingsService
	Notifier Notifier
	Now      func() time.Time
	Log      *logrus.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Notifier == nil {
		d.Notifier = nopNotifier{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	return d
}

// lockActiveUser locks the user's balance for the rest of tx and refuses banned accounts.
func lockActiveUser(ctx context.Context, tx repository.Tx, userID uuid.UUID) (*model.User, *model.Balance, error) {
	user, balance, err := tx.LockAccount(ctx, userID)
	if err != nil {
		return nil, nil, mapStoreError(err)
	}
	if user.IsBanned {
		return nil, nil, ErrUserBanned
	}
	return user, balance, nil
}

// award writes one ledger entry inside tx.
func award(ctx context.Context, tx repository.Tx, p model.AwardParams) (*model.Transaction, error) {
	t, err := tx.Award(ctx, p)
	if err != nil {
		return nil, mapStoreError(err)
	}
	metrics.RecordAward(string(p.Type), p.Points)
	return t, nil
}

// mapStoreError turns repository sentinels into user-facing errors.
func mapStoreError(err error) error {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repository.ErrInsufficientBalance):
		return ErrInsufficientBalance
	case errors.Is(err, repository.ErrTaskNotFound):
		return ErrTaskNotFound
	case errors.Is(err, repository.ErrContestNotFound):
		return ErrContestNotFound
	case errors.Is(err, repository.ErrWithdrawalNotFound):
		return ErrWithdrawalNotFound
	case errors.Is(err, repository.ErrNotPending):
		return ErrInvalidTransition
	case errors.Is(err, repository.ErrAlreadyDistributed):
		return ErrAlreadyDistributed
	}
	return err
}

// reject records a refused request and returns err unchanged.
func reject(log *logrus.Logger, rule string, userID uuid.UUID, err error) error {
	var e *Error
	if errors.As(err, &e) {
		metrics.RecordRejection(rule, e.Kind.String())
		log.WithFields(logrus.Fields{"rule": rule, "user_id": userID, "reason": e.Message}).Debug("request rejected")
		return err
	}
	log.WithError(err).WithFields(logrus.Fields{"rule": rule, "user_id": userID}).Error("rule failed")
	return err
}
