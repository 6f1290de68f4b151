package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/broadcast"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/config"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/handler"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/metrics"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/middleware"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/notify"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/repository"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/repository/memstore"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/scheduler"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/service"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/telegram"
)

type store interface {
	service.Store
	Ping(ctx context.Context) error
	Close() error
}

func main() {
	log := logrus.New()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	setupLogger(log, cfg)

	// Open storage
	var db store
	switch cfg.Server.Storage {
	case "memory":
		log.Warn("using in-memory storage, data is lost on restart")
		db = memstore.New()
	default:
		repo, err := repository.New(cfg.Database.DSN())
		if err != nil {
			log.WithError(err).Fatal("failed to connect to database")
		}
		db = repo
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Settings snapshot, kept fresh across instances through redis when configured
	settingsSvc := service.NewSettingsService(db, log)
	if err := settingsSvc.Reload(ctx); err != nil {
		log.WithError(err).Fatal("failed to load settings")
	}

	if cfg.Redis.Host != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		bc := broadcast.New(rdb, cfg.Redis.Channel, log)
		if err := bc.Ping(ctx); err != nil {
			log.WithError(err).Warn("redis unavailable, settings changes will be picked up by the scheduler only")
		}
		settingsSvc.SetBroadcaster(bc)
		go func() {
			if err := bc.Listen(ctx, settingsSvc); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("settings listener stopped")
			}
		}()
		defer bc.Close()
	}

	// Notifications are stored for the Mini App and pushed through the bot
	dispatcher := notify.NewDispatcher(notify.Config{}, log, notify.StoreSink(db))

	// Create services
	deps := service.Deps{Store: db, Settings: settingsSvc, Notifier: dispatcher, Log: log}
	svc := handler.Services{
		Users:       service.NewUserService(deps),
		Balances:    service.NewBalanceService(deps),
		Tasks:       service.NewTaskService(deps),
		Daily:       service.NewDailyService(deps),
		Spins:       service.NewSpinService(deps),
		Ads:         service.NewAdService(deps),
		Withdrawals: service.NewWithdrawalService(deps, cfg.TON.Testnet),
		Contests:    service.NewContestService(deps),
		Referrals:   service.NewReferralService(deps, cfg.Telegram.BotUsername),
		Admin:       service.NewAdminService(deps, cfg.Admin.TelegramIDs),
		Settings:    settingsSvc,
	}

	// Create Telegram bot
	var bot *telegram.Bot
	if cfg.Telegram.BotToken != "" {
		bot, err = telegram.NewBot(cfg.Telegram.BotToken, cfg.Telegram.WebAppURL, telegram.Services{
			Users:     svc.Users,
			Daily:     svc.Daily,
			Referrals: svc.Referrals,
		}, log)
		if err != nil {
			log.WithError(err).Warn("failed to create Telegram bot")
		} else {
			dispatcher.AddSink(bot)
			if cfg.Telegram.BotUsername == "" {
				svc.Referrals.SetBotUsername(bot.GetBotUsername())
			}
			log.WithField("bot", bot.GetBotUsername()).Info("Telegram bot initialized")
		}
	}
	dispatcher.Start()

	// Scheduled jobs
	jobs, err := scheduler.New(scheduler.Specs{
		Contests: cfg.Scheduler.ContestSpec,
		Settings: cfg.Scheduler.SettingsSpec,
		Ledger:   cfg.Scheduler.LedgerSpec,
	}, svc.Contests, settingsSvc, svc.Balances, log)
	if err != nil {
		log.WithError(err).Fatal("failed to create scheduler")
	}

	// Create handlers
	h := handler.New(svc, db, log)
	adminHandler := handler.NewAdminHandler(svc, log)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: handler.ErrorHandler(log),
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Telegram-Init-Data",
	}))
	app.Use(middleware.Metrics())

	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	handler.Register(app, h, adminHandler, handler.Middlewares{
		Auth:      middleware.TelegramAuth(cfg.Telegram.BotToken, cfg.Telegram.InitDataTTL),
		Admin:     middleware.AdminAuth(svc.Admin, log),
		RateLimit: limiter.Handler(),
	})

	// Start background jobs
	jobs.Start()
	go runLimiterCleanup(ctx, limiter)

	// Start Telegram bot long polling
	if bot != nil {
		go bot.StartPolling(ctx)
		log.Info("Telegram bot started with long polling")
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info("shutting down server")
		cancel()
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	// Start server
	log.WithField("port", cfg.Server.Port).Info("server starting")
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.WithError(err).Error("server stopped")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer stopCancel()
	jobs.Stop(stopCtx)
	if err := dispatcher.Stop(stopCtx); err != nil {
		log.WithError(err).Warn("notifications left undelivered")
	}
}

func setupLogger(log *logrus.Logger, cfg *config.Config) {
	if cfg.Log.Format == "json" || (cfg.Log.Format == "" && !cfg.Server.IsDevelopment()) {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.WithField("level", cfg.Log.Level).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
}

func runLimiterCleanup(ctx context.Context, limiter *middleware.RateLimiter) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Cleanup(10 * time.Minute)
		}
	}
}
