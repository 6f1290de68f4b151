package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/middleware"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/service"
	"github.com/sirupsen/logrus"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Services struct {
	Users       *service.UserService
	Balances    *service.BalanceService
	Tasks       *service.TaskService
	Daily       *service.DailyService
	Spins       *service.SpinService
	Ads         *service.AdService
	Withdrawals *service.WithdrawalService
	Contests    *service.ContestService
	Referrals   *service.ReferralService
	Admin       *service.AdminService
	Settings    *service.SettingsService
}

type Handler struct {
	responder
	svc    Services
	pinger Pinger
}

func New(svc Services, pinger Pinger, log *logrus.Logger) *Handler {
	return &Handler{
		responder: responder{log: log},
		svc:       svc,
		pinger:    pinger,
	}
}

func (h *Handler) Health(c *fiber.Ctx) error {
	if h.pinger != nil {
		if err := h.pinger.Ping(c.UserContext()); err != nil {
			h.log.WithError(err).Warn("health check failed")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unavailable",
			})
		}
	}
	return c.JSON(fiber.Map{
		"status":           "ok",
		"settings_version": h.svc.Settings.Version(),
	})
}

// responder writes the {"success": ...} envelope shared by every endpoint.
type responder struct {
	log *logrus.Logger
}

func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation:
		return fiber.StatusBadRequest
	case service.KindNotFound:
		return fiber.StatusNotFound
	case service.KindBusinessRule:
		return fiber.StatusConflict
	case service.KindInsufficientBalance:
		return fiber.StatusPaymentRequired
	}
	return fiber.StatusInternalServerError
}

// fail turns err into a response. Expected outcomes keep their message;
// anything else is logged and hidden behind a generic 500.
func (r responder) fail(c *fiber.Ctx, err error) error {
	var e *service.Error
	if errors.As(err, &e) {
		return c.Status(statusFor(e.Kind)).JSON(fiber.Map{
			"success": false,
			"message": e.Message,
		})
	}

	r.log.WithError(err).WithFields(logrus.Fields{
		"method":      c.Method(),
		"path":        c.Path(),
		"telegram_id": middleware.GetTelegramID(c),
	}).Error("request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": "Internal server error",
	})
}

func (r responder) badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

func (r responder) forbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"success": false,
		"message": "Forbidden",
	})
}

func ok(c *fiber.Ctx, body fiber.Map) error {
	if body == nil {
		body = fiber.Map{}
	}
	body["success"] = true
	return c.JSON(body)
}

// currentUser loads the account of the authenticated Telegram user.
func (h *Handler) currentUser(c *fiber.Ctx) (*model.User, error) {
	telegramID := middleware.GetTelegramID(c)
	if telegramID == 0 {
		return nil, service.ErrUserNotFound
	}
	return h.svc.Users.GetUserByTelegramID(c.UserContext(), telegramID)
}

var errNotOwner = errors.New("user id does not belong to the caller")

// actingUser resolves the user a rule runs for. A userId in the body must be
// the caller's own account.
func (h *Handler) actingUser(c *fiber.Ctx, bodyUserID *uuid.UUID) (uuid.UUID, error) {
	user, err := h.currentUser(c)
	if err != nil {
		return uuid.Nil, err
	}
	if bodyUserID != nil && *bodyUserID != uuid.Nil && *bodyUserID != user.ID {
		return uuid.Nil, errNotOwner
	}
	return user.ID, nil
}

// failActing handles an actingUser error.
func (h *Handler) failActing(c *fiber.Ctx, err error) error {
	if errors.Is(err, errNotOwner) {
		h.log.WithFields(logrus.Fields{"telegram_id": middleware.GetTelegramID(c), "path": c.Path()}).Warn("user id mismatch")
		return h.forbidden(c)
	}
	return h.fail(c, err)
}

func pagination(c *fiber.Ctx) (limit, offset int) {
	return c.QueryInt("limit", 20), c.QueryInt("offset", 0)
}

// ErrorHandler keeps the envelope for errors returned outside the handlers,
// such as unknown routes, oversized bodies and recovered panics.
func ErrorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal server error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		} else {
			log.WithError(err).WithField("path", c.Path()).Error("unhandled error")
		}

		return c.Status(code).JSON(fiber.Map{
			"success": false,
			"message": message,
		})
	}
}
