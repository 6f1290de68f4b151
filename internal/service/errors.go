package service

import (
	"errors"
	"fmt"
)

// Kind classifies an expected outcome of a rule. Errors without a Kind are unexpected.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindBusinessRule
	KindInsufficientBalance
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindBusinessRule:
		return "business_rule"
	case KindInsufficientBalance:
		return "insufficient_balance"
	}
	return "unexpected"
}

// Error is returned for outcomes a user can cause through normal use.
// Message is safe to show to the user.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches errors of the same kind and message, so the package level
// values below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Message == e.Message
}

func validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func businessf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindBusinessRule, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrUserNotFound        = &Error{Kind: KindNotFound, Message: "User not found"}
	ErrTaskNotFound        = &Error{Kind: KindNotFound, Message: "Task not found"}
	ErrContestNotFound     = &Error{Kind: KindNotFound, Message: "Contest not found"}
	ErrWithdrawalNotFound  = &Error{Kind: KindNotFound, Message: "Withdrawal not found"}
	ErrInsufficientBalance = &Error{Kind: KindInsufficientBalance, Message: "Insufficient balance"}

	ErrUserBanned          = &Error{Kind: KindBusinessRule, Message: "Account is banned"}
	ErrAlreadyCompleted    = &Error{Kind: KindBusinessRule, Message: "Task already completed!"}
	ErrCooldownActive      = &Error{Kind: KindBusinessRule, Message: "Task is on cooldown"}
	ErrAlreadyClaimedToday = &Error{Kind: KindBusinessRule, Message: "Already claimed today"}
	ErrSpinLimitReached    = &Error{Kind: KindBusinessRule, Message: "Daily spin limit reached"}
	ErrAdRateLimited       = &Error{Kind: KindBusinessRule, Message: "Too many ads, try again later"}
	ErrTooManyPending      = &Error{Kind: KindBusinessRule, Message: "Too many pending withdrawals"}
	ErrInvalidTransition   = &Error{Kind: KindBusinessRule, Message: "Withdrawal already processed"}
	ErrAlreadyDistributed  = &Error{Kind: KindBusinessRule, Message: "Rewards already distributed"}
	ErrNoEntries           = &Error{Kind: KindBusinessRule, Message: "No entries"}
)

// KindOf returns the kind of err, or 0 when err is unexpected.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
