package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusApproved WithdrawalStatus = "approved"
	WithdrawalStatusRejected WithdrawalStatus = "rejected"
)

type WithdrawalMethod string

const (
	WithdrawalMethodUSDT  WithdrawalMethod = "usdt"
	WithdrawalMethodTON   WithdrawalMethod = "ton"
	WithdrawalMethodStars WithdrawalMethod = "stars"
)

func (m WithdrawalMethod) Valid() bool {
	switch m {
	case WithdrawalMethodUSDT, WithdrawalMethodTON, WithdrawalMethodStars:
		return true
	}
	return false
}

// NeedsWallet reports whether payouts with this method go to an external address.
func (m WithdrawalMethod) NeedsWallet() bool {
	return m == WithdrawalMethodUSDT || m == WithdrawalMethodTON
}

// RateKey is the settings key holding points per unit for this method.
func (m WithdrawalMethod) RateKey() string {
	return string(m) + "_conversion_rate"
}

type Withdrawal struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	UserID        uuid.UUID        `json:"user_id" db:"user_id"`
	Method        WithdrawalMethod `json:"method" db:"method"`
	PointsSpent   int64            `json:"points_spent" db:"points_spent"`
	Amount        decimal.Decimal  `json:"amount" db:"amount"`
	Status        WithdrawalStatus `json:"status" db:"status"`
	WalletAddress *string          `json:"wallet_address,omitempty" db:"wallet_address"`
	AdminNote     *string          `json:"admin_note,omitempty" db:"admin_note"`
	RequestedAt   time.Time        `json:"requested_at" db:"requested_at"`
	ProcessedAt   *time.Time       `json:"processed_at,omitempty" db:"processed_at"`
}

// Transition describes a terminal status change requested by an admin.
type Transition struct {
	WithdrawalID uuid.UUID
	To           WithdrawalStatus
	AdminNote    *string
	At           time.Time
}
