package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeEarn          TransactionType = "earn"
	TransactionTypeSpend         TransactionType = "spend"
	TransactionTypeRefund        TransactionType = "refund"
	TransactionTypeBonus         TransactionType = "bonus"
	TransactionTypeReferral      TransactionType = "referral"
	TransactionTypeDaily         TransactionType = "daily"
	TransactionTypeSpin          TransactionType = "spin"
	TransactionTypeAdReward      TransactionType = "ad_reward"
	TransactionTypeContestReward TransactionType = "contest_reward"
	TransactionTypeManual        TransactionType = "manual"
)

// Balance is the spendable wallet of a user. It is only changed through the award primitive.
type Balance struct {
	UserID         uuid.UUID       `json:"user_id" db:"user_id"`
	Points         int64           `json:"points" db:"points"`
	StarsBalance   int64           `json:"stars_balance" db:"stars_balance"`
	USDTBalance    decimal.Decimal `json:"usdt_balance" db:"usdt_balance"`
	TONBalance     decimal.Decimal `json:"ton_balance" db:"ton_balance"`
	TotalEarned    int64           `json:"total_earned" db:"total_earned"`
	TotalWithdrawn int64           `json:"total_withdrawn" db:"total_withdrawn"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

type Transaction struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	UserID        uuid.UUID       `json:"user_id" db:"user_id"`
	Type          TransactionType `json:"type" db:"type"`
	Points        int64           `json:"points" db:"points"` // positive = credit, negative = debit
	Stars         int64           `json:"stars" db:"stars"`
	Description   *string         `json:"description,omitempty" db:"description"`
	ReferenceID   *uuid.UUID      `json:"reference_id,omitempty" db:"reference_id"`
	BalanceBefore int64           `json:"balance_before" db:"balance_before"`
	BalanceAfter  int64           `json:"balance_after" db:"balance_after"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// AwardParams is the input of the award primitive.
type AwardParams struct {
	UserID      uuid.UUID
	Points      int64
	Stars       int64
	Type        TransactionType
	Description string
	ReferenceID *uuid.UUID
}

// Counters returns the increments applied to total_earned and total_withdrawn.
// Escrow and refund move total_withdrawn; every other positive delta counts as earned.
func (p AwardParams) Counters() (earned, withdrawn int64) {
	switch p.Type {
	case TransactionTypeSpend, TransactionTypeRefund:
		return 0, -p.Points
	}
	if p.Points > 0 {
		return p.Points, 0
	}
	return 0, 0
}

// LedgerMismatch reports a user whose balance differs from the sum of their transactions.
type LedgerMismatch struct {
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	BalancePoints int64     `json:"balance_points" db:"balance_points"`
	LedgerPoints  int64     `json:"ledger_points" db:"ledger_points"`
}
