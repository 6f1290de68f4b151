package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CompleteTaskRequest struct {
	UserID *uuid.UUID `json:"userId"`
	TaskID uuid.UUID  `json:"taskId"`
}

type UserRequest struct {
	UserID *uuid.UUID `json:"userId"`
}

type LogAdRequest struct {
	UserID      *uuid.UUID `json:"userId"`
	AdType      string     `json:"adType"`
	RewardGiven int64      `json:"rewardGiven"`
}

func (h *Handler) GetTasks(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return h.fail(c, err)
	}

	tasks, err := h.svc.Tasks.ListForUser(c.UserContext(), user.ID)
	if err != nil {
		return h.fail(c, err)
	}

	return ok(c, fiber.Map{"tasks": tasks})
}

func (h *Handler) CompleteTask(c *fiber.Ctx) error {
	var req CompleteTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, "Invalid request body")
	}
	if req.TaskID == uuid.Nil {
		return h.badRequest(c, "taskId is required")
	}

	userID, err := h.actingUser(c, req.UserID)
	if err != nil {
		return h.failActing(c, err)
	}

	reward, err := h.svc.Tasks.CompleteTask(c.UserContext(), userID, req.TaskID)
	if err != nil {
		return h.fail(c, err)
	}

	return ok(c, fiber.Map{
		"points": reward.Points,
		"stars":  reward.Stars,
	})
}

func (h *Handler) DailyReward(c *fiber.Ctx) error {
	var req UserRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return h.badRequest(c, "Invalid request body")
		}
	}

	userID, err := h.actingUser(c, req.UserID)
	if err != nil {
		return h.failActing(c, err)
	}

	reward, err := h.svc.Daily.Claim(c.UserContext(), userID)
	if err != nil {
		return h.fail(c, err)
	}

	return ok(c, fiber.Map{
		"points": reward.Points,
		"streak": reward.Streak,
	})
}

func (h *Handler) SpinWheel(c *fiber.Ctx) error {
	var req UserRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return h.badRequest(c, "Invalid request body")
		}
	}

	userID, err := h.actingUser(c, req.UserID)
	if err != nil {
		return h.failActing(c, err)
	}

	outcome, err := h.svc.Spins.Spin(c.UserContext(), userID)
	if err != nil {
		return h.fail(c, err)
	}

	return ok(c, fiber.Map{
		"result": outcome.Result,
		"points": outcome.Points,
		"stars":  outcome.Stars,
	})
}

func (h *Handler) SpinStatus(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return h.fail(c, err)
	}

	status, err := h.svc.Spins.Status(c.UserContext(), user.ID)
	if err != nil {
		return h.fail(c, err)
	}

	return ok(c, fiber.Map{"status": status})
}

func (h *Handler) LogAd(c *fiber.Ctx) error {
	var req LogAdRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, "Invalid request body")
	}

	userID, err := h.actingUser(c, req.UserID)
	if err != nil {
		return h.failActing(c, err)
	}

	if err := h.svc.Ads.LogAdWatch(c.UserContext(), userID, req.AdType, req.RewardGiven); err != nil {
		return h.fail(c, err)
	}

	return ok(c, nil)
}
