package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/service"
)

type WithdrawRequest struct {
	UserID        *uuid.UUID             `json:"userId"`
	Method        model.WithdrawalMethod `json:"method"`
	Points        int64                  `json:"points"`
	WalletAddress *string                `json:"walletAddress"`
}

func (h *Handler) Withdraw(c *fiber.Ctx) error {
	var req WithdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, "Invalid request body")
	}

	userID, err := h.actingUser(c, req.UserID)
	if err != nil {
		return h.failActing(c, err)
	}

	w, err := h.svc.Withdrawals.Create(c.UserContext(), userID, service.CreateWithdrawalRequest{
		Method:        req.Method,
		Points:        req.Points,
		WalletAddress: req.WalletAddress,
	})
	if err != nil {
		return h.fail(c, err)
	}

	return ok(c, fiber.Map{
		"message":    "Withdrawal request submitted",
		"withdrawal": w,
	})
}

func (h *Handler) GetWithdrawals(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return h.fail(c, err)
	}

	limit, offset := pagination(c)
	withdrawals, err := h.svc.Withdrawals.ListForUser(c.UserContext(), user.ID, limit, offset)
	if err != nil {
		return h.fail(c, err)
	}

	return ok(c, fiber.Map{"withdrawals": withdrawals})
}
