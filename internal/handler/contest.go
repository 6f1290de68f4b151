package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func (h *Handler) GetContests(c *fiber.Ctx) error {
	contests, err := h.svc.Contests.ListActive(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, fiber.Map{"contests": contests})
}

func (h *Handler) GetLeaderboard(c *fiber.Ctx) error {
	contestID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.badRequest(c, "Invalid contest id")
	}

	entries, err := h.svc.Contests.Leaderboard(c.UserContext(), contestID)
	if err != nil {
		return h.fail(c, err)
	}

	return ok(c, fiber.Map{"leaderboard": entries})
}
