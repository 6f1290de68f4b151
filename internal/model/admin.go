package model

import (
	"time"

	"github.com/google/uuid"
)

type AdminRole string

const (
	AdminRoleAdmin      AdminRole = "admin"
	AdminRoleSuperAdmin AdminRole = "superadmin"
)

type Admin struct {
	ID         uuid.UUID `json:"id" db:"id"`
	TelegramID int64     `json:"telegram_id" db:"telegram_id"`
	Role       AdminRole `json:"role" db:"role"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type AdminLog struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	AdminID      int64      `json:"admin_id" db:"admin_id"`
	Action       string     `json:"action" db:"action"`
	TargetUserID *uuid.UUID `json:"target_user_id,omitempty" db:"target_user_id"`
	Details      []byte     `json:"details,omitempty" db:"details"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// Admin action constants
const (
	AdminActionApproveWithdrawal = "approve_withdrawal"
	AdminActionRejectWithdrawal  = "reject_withdrawal"
	AdminActionDistributeContest = "distribute_contest"
	AdminActionSetSetting        = "set_setting"
	AdminActionBanUser           = "ban_user"
	AdminActionUnbanUser         = "unban_user"
	AdminActionCreditUser        = "credit_user"
	AdminActionCreateTask        = "create_task"
	AdminActionCreateContest     = "create_contest"
)
