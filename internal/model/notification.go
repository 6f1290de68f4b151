package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationWithdrawalSubmitted NotificationType = "withdrawal_submitted"
	NotificationWithdrawalApproved  NotificationType = "withdrawal_approved"
	NotificationWithdrawalRejected  NotificationType = "withdrawal_rejected"
	NotificationContestWinner       NotificationType = "contest_winner"
	NotificationNewReferral         NotificationType = "new_referral"
	NotificationWelcome             NotificationType = "welcome"
)

type Notification struct {
	ID         uuid.UUID        `json:"id" db:"id"`
	UserID     uuid.UUID        `json:"user_id" db:"user_id"`
	TelegramID int64            `json:"-" db:"-"`
	Type       NotificationType `json:"type" db:"type"`
	Title      string           `json:"title" db:"title"`
	Message    string           `json:"message" db:"message"`
	IsRead     bool             `json:"is_read" db:"is_read"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
}
