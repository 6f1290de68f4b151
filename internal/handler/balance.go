package handler

import (
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) GetBalance(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return h.fail(c, err)
	}

	balance, err := h.svc.Balances.GetBalance(c.UserContext(), user.ID)
	if err != nil {
		return h.fail(c, err)
	}

	return ok(c, fiber.Map{
		"balance": balance,
		"level":   user.Level,
	})
}

func (h *Handler) GetTransactions(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return h.fail(c, err)
	}

	limit, offset := pagination(c)
	transactions, err := h.svc.Balances.GetTransactions(c.UserContext(), user.ID, limit, offset)
	if err != nil {
		return h.fail(c, err)
	}

	return ok(c, fiber.Map{"transactions": transactions})
}
