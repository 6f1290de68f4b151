package handler

import (
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) GetReferrals(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return h.fail(c, err)
	}

	info, err := h.svc.Referrals.GetReferralInfo(c.UserContext(), user.ID)
	if err != nil {
		return h.fail(c, err)
	}

	return ok(c, fiber.Map{"referrals": info})
}
