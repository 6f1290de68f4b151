package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/service"
	"github.com/sirupsen/logrus"
)

const AdminIDKey = "admin_id"

// AdminAuth lets the request through only when the authenticated Telegram
// account is an admin. It must run after TelegramAuth.
func AdminAuth(adminSvc *service.AdminService, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		telegramID := GetTelegramID(c)
		if telegramID == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Unauthorized",
			})
		}

		isAdmin, err := adminSvc.IsAdmin(c.UserContext(), telegramID)
		if err != nil {
			log.WithError(err).WithField("telegram_id", telegramID).Error("admin check failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Internal server error",
			})
		}

		if !isAdmin {
			log.WithFields(logrus.Fields{"telegram_id": telegramID, "path": c.Path()}).Warn("admin access denied")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "Admin access required",
			})
		}

		c.Locals(AdminIDKey, telegramID)

		return c.Next()
	}
}

// GetAdminID returns the admin's Telegram id from context
func GetAdminID(c *fiber.Ctx) int64 {
	adminID, ok := c.Locals(AdminIDKey).(int64)
	if !ok {
		return 0
	}
	return adminID
}

