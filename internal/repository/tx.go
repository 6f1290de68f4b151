package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
)

// Tx is the set of store operations available inside InTx. LockAccount must be
// the first call for a user: it holds the balance row until the transaction ends.
type Tx interface {
	LockAccount(ctx context.Context, userID uuid.UUID) (*model.User, *model.Balance, error)
	Award(ctx context.Context, p model.AwardParams) (*model.Transaction, error)

	CreateUser(ctx context.Context, user *model.User) error
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	GetUserByReferralCode(ctx context.Context, code string) (*model.User, error)
	CreateReferral(ctx context.Context, referral *model.Referral) error

	GetTask(ctx context.Context, id uuid.UUID) (*model.Task, error)
	GetLastCompletion(ctx context.Context, userID, taskID uuid.UUID) (*model.UserTaskCompletion, error)
	CreateCompletion(ctx context.Context, completion *model.UserTaskCompletion) error

	GetDailyClaim(ctx context.Context, userID uuid.UUID, date time.Time) (*model.DailyClaim, error)
	CreateDailyClaim(ctx context.Context, claim *model.DailyClaim) error

	CountSpinsSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
	CreateSpinResult(ctx context.Context, result *model.SpinResult) error

	CountAdLogsSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
	CreateAdLog(ctx context.Context, log *model.AdLog) error

	CountPendingWithdrawals(ctx context.Context, userID uuid.UUID) (int, error)
	CreateWithdrawal(ctx context.Context, w *model.Withdrawal) error
	TransitionWithdrawal(ctx context.Context, t model.Transition) (*model.Withdrawal, error)

	ClaimContestDistribution(ctx context.Context, contestID uuid.UUID) (*model.Contest, error)
	GetContestEntries(ctx context.Context, contestID uuid.UUID, limit int) ([]model.ContestEntry, error)
	IncrementContestScores(ctx context.Context, userID uuid.UUID, contestType model.ContestType, at time.Time) (int, error)

	LogAdminAction(ctx context.Context, adminID int64, action string, targetUserID *uuid.UUID, details map[string]interface{}) error
}
