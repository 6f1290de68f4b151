package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/middleware"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/service"
	"github.com/sirupsen/logrus"
)

// AdminHandler handles admin panel requests
type AdminHandler struct {
	responder
	svc Services
}

func NewAdminHandler(svc Services, log *logrus.Logger) *AdminHandler {
	return &AdminHandler{responder: responder{log: log}, svc: svc}
}

// --- Withdrawals ---

type WithdrawalUpdateRequest struct {
	WithdrawalID uuid.UUID              `json:"withdrawalId"`
	Status       model.WithdrawalStatus `json:"status"`
	AdminNote    *string                `json:"adminNote"`
}

// UpdateWithdrawal approves or rejects a pending withdrawal.
func (h *AdminHandler) UpdateWithdrawal(c *fiber.Ctx) error {
	var req WithdrawalUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, "Invalid request body")
	}
	if req.WithdrawalID == uuid.Nil {
		return h.badRequest(c, "withdrawalId is required")
	}

	w, err := h.svc.Withdrawals.Update(c.UserContext(), middleware.GetAdminID(c), req.WithdrawalID, req.Status, req.AdminNote)
	if err != nil {
		return h.fail(c, err)
	}

	return ok(c, fiber.Map{"withdrawal": w})
}

func (h *AdminHandler) ListWithdrawals(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	status := model.WithdrawalStatus(c.Query("status"))

	withdrawals, err := h.svc.Withdrawals.ListByStatus(c.UserContext(), status, limit, offset)
	if err != nil {
		return h.fail(c, err)
	}

	return ok(c, fiber.Map{"withdrawals": withdrawals})
}

// --- Contests ---

type DistributeContestRequest struct {
	ContestID uuid.UUID `json:"contestId"`
}

func (h *AdminHandler) DistributeContest(c *fiber.Ctx) error {
	var req DistributeContestRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, "Invalid request body")
	}
	if req.ContestID == uuid.Nil {
		return h.badRequest(c, "contestId is required")
	}

	result, err := h.svc.Contests.Distribute(c.UserContext(), middleware.GetAdminID(c), req.ContestID)
	if err != nil {
		return h.fail(c, err)
	}

	return ok(c, fiber.Map{
		"message": result.Message(),
		"winners": result.Winners,
	})
}

type CreateContestRequest struct {
	Title       string            `json:"title"`
	Description *string           `json:"description"`
	Type        model.ContestType `json:"type"`
	StartsAt    time.Time         `json:"startsAt"`
	EndsAt      time.Time         `json:"endsAt"`
	Rewards     []int64           `json:"rewards"`
}

func (h *AdminHandler) CreateContest(c *fiber.Ctx) error {
	var req CreateContestRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, "Invalid request body")
	}

	contest, err := h.svc.Contests.Create(c.UserContext(), middleware.GetAdminID(c), service.CreateContestRequest{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Rewards:     req.Rewards,
	})
	if err != nil {
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"contest": contest,
	})
}

// --- Tasks ---

func (h *AdminHandler) CreateTask(c *fiber.Ctx) error {
	var req service.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, "Invalid request body")
	}

	task, err := h.svc.Tasks.CreateTask(c.UserContext(), middleware.GetAdminID(c), req)
	if err != nil {
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"task":    task,
	})
}

// --- Users ---

func userIDParam(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}

type BanRequest struct {
	Reason string `json:"reason"`
}

func (h *AdminHandler) BanUser(c *fiber.Ctx) error {
	userID, valid := userIDParam(c)
	if !valid {
		return h.badRequest(c, "Invalid user id")
	}

	var req BanRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return h.badRequest(c, "Invalid request body")
		}
	}

	if err := h.svc.Admin.BanUser(c.UserContext(), middleware.GetAdminID(c), userID, req.Reason); err != nil {
		return h.fail(c, err)
	}
	return ok(c, nil)
}

func (h *AdminHandler) UnbanUser(c *fiber.Ctx) error {
	userID, valid := userIDParam(c)
	if !valid {
		return h.badRequest(c, "Invalid user id")
	}

	if err := h.svc.Admin.UnbanUser(c.UserContext(), middleware.GetAdminID(c), userID); err != nil {
		return h.fail(c, err)
	}
	return ok(c, nil)
}

type CreditRequest struct {
	Points      int64  `json:"points"`
	Description string `json:"description"`
}

// CreditUser applies a manual balance adjustment. Negative points debit.
func (h *AdminHandler) CreditUser(c *fiber.Ctx) error {
	userID, valid := userIDParam(c)
	if !valid {
		return h.badRequest(c, "Invalid user id")
	}

	var req CreditRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, "Invalid request body")
	}

	tx, err := h.svc.Balances.CreditManual(c.UserContext(), middleware.GetAdminID(c), userID, req.Points, req.Description)
	if err != nil {
		return h.fail(c, err)
	}

	return ok(c, fiber.Map{"transaction": tx})
}

// --- Settings ---

func (h *AdminHandler) GetSettings(c *fiber.Ctx) error {
	return ok(c, fiber.Map{
		"settings": h.svc.Settings.All(),
		"version":  h.svc.Settings.Version(),
	})
}

type SetSettingRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (h *AdminHandler) SetSetting(c *fiber.Ctx) error {
	var req SetSettingRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, "Invalid request body")
	}

	version, err := h.svc.Admin.SetSetting(c.UserContext(), middleware.GetAdminID(c), req.Key, req.Value)
	if err != nil {
		return h.fail(c, err)
	}

	return ok(c, fiber.Map{"version": version})
}

// --- Ledger & logs ---

func (h *AdminHandler) VerifyLedger(c *fiber.Ctx) error {
	mismatches, err := h.svc.Balances.VerifyLedger(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	if mismatches == nil {
		mismatches = []model.LedgerMismatch{}
	}

	return ok(c, fiber.Map{
		"consistent": len(mismatches) == 0,
		"mismatches": mismatches,
	})
}

func (h *AdminHandler) GetLogs(c *fiber.Ctx) error {
	logs, err := h.svc.Admin.GetLogs(c.UserContext(), c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, fiber.Map{"logs": logs})
}
