package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/middleware"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/service"
)

type AuthInitRequest struct {
	TelegramUser *service.TelegramUser `json:"telegramUser"`
	ReferralCode string                `json:"referralCode"`
}

// AuthInit returns the caller's account, creating it on the first visit.
// The Telegram user in the body is optional; the signed init data wins.
func (h *Handler) AuthInit(c *fiber.Ctx) error {
	initData := middleware.GetInitData(c)
	if initData == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	var req AuthInitRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return h.badRequest(c, "Invalid request body")
		}
	}

	tg := initData.User
	if req.TelegramUser != nil {
		if req.TelegramUser.ID != 0 && req.TelegramUser.ID != tg.ID {
			return h.forbidden(c)
		}
		if tg.PhotoURL == nil {
			tg.PhotoURL = req.TelegramUser.PhotoURL
		}
	}

	referralCode := req.ReferralCode
	if referralCode == "" {
		referralCode = initData.StartParam
	}

	user, created, err := h.svc.Users.InitUser(c.UserContext(), tg, referralCode)
	if err != nil {
		return h.fail(c, err)
	}

	return ok(c, fiber.Map{
		"user":    user,
		"created": created,
	})
}

func (h *Handler) GetNotifications(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return h.fail(c, err)
	}

	notifications, err := h.svc.Users.GetNotifications(c.UserContext(), user.ID, c.QueryInt("limit", 50))
	if err != nil {
		return h.fail(c, err)
	}

	return ok(c, fiber.Map{"notifications": notifications})
}
