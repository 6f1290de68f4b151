package handler

import (
	"github.com/gofiber/fiber/v2"
)

// Middlewares are the guards mounted in front of the API groups.
type Middlewares struct {
	Auth      fiber.Handler
	Admin     fiber.Handler
	RateLimit fiber.Handler
}

// Register mounts every API route on app.
func Register(app fiber.Router, h *Handler, admin *AdminHandler, mw Middlewares) {
	app.Get("/health", h.Health)

	guards := []fiber.Handler{mw.Auth}
	if mw.RateLimit != nil {
		guards = append(guards, mw.RateLimit)
	}

	// Admin routes go first so the user group's guards are not applied twice.
	adminGuards := append(append([]fiber.Handler{}, guards...), mw.Admin)
	adm := app.Group("/api/admin", adminGuards...)
	adm.Post("/withdrawal-update", admin.UpdateWithdrawal)
	adm.Post("/distribute-contest", admin.DistributeContest)
	adm.Get("/withdrawals", admin.ListWithdrawals)
	adm.Get("/settings", admin.GetSettings)
	adm.Post("/settings", admin.SetSetting)
	adm.Post("/tasks", admin.CreateTask)
	adm.Post("/contests", admin.CreateContest)
	adm.Post("/users/:id/ban", admin.BanUser)
	adm.Post("/users/:id/unban", admin.UnbanUser)
	adm.Post("/users/:id/credit", admin.CreditUser)
	adm.Get("/ledger/verify", admin.VerifyLedger)
	adm.Get("/logs", admin.GetLogs)

	api := app.Group("/api", guards...)

	api.Post("/auth/init", h.AuthInit)

	// Earning rules
	api.Post("/complete-task", h.CompleteTask)
	api.Post("/daily-reward", h.DailyReward)
	api.Post("/spin-wheel", h.SpinWheel)
	api.Post("/log-ad", h.LogAd)
	api.Get("/tasks", h.GetTasks)
	api.Get("/spin-wheel/status", h.SpinStatus)

	// Wallet
	api.Get("/balance", h.GetBalance)
	api.Get("/transactions", h.GetTransactions)
	api.Post("/withdraw", h.Withdraw)
	api.Get("/withdrawals", h.GetWithdrawals)

	// Social
	api.Get("/contests", h.GetContests)
	api.Get("/contests/:id/leaderboard", h.GetLeaderboard)
	api.Get("/referrals", h.GetReferrals)
	api.Get("/notifications", h.GetNotifications)
}
