package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Telegram  TelegramConfig
	TON       TONConfig
	Admin     AdminConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Scheduler SchedulerConfig
}

type ServerConfig struct {
	Port         string
	Environment  string
	AllowOrigins string
	// Storage is "postgres" or "memory".
	Storage string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Channel  string
}

type TelegramConfig struct {
	BotToken    string
	BotUsername string
	WebAppURL   string
	// InitDataTTL bounds the age of Mini App init data accepted by the API.
	InitDataTTL time.Duration
}

type TONConfig struct {
	Testnet bool
}

type AdminConfig struct {
	TelegramIDs []int64
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type LogConfig struct {
	Level  string
	Format string
}

type SchedulerConfig struct {
	ContestSpec  string
	SettingsSpec string
	LedgerSpec   string
}

func (d DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.Name + "?sslmode=" + d.SSLMode
}

func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

func (s ServerConfig) IsDevelopment() bool {
	return s.Environment == "development"
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	tonTestnet, _ := strconv.ParseBool(getEnv("TON_TESTNET", "false"))

	initDataTTL, err := time.ParseDuration(getEnv("TELEGRAM_INIT_DATA_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_INIT_DATA_TTL: %w", err)
	}

	adminIDs, err := parseIDs(getEnv("ADMIN_TELEGRAM_IDS", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_IDS: %w", err)
	}

	rps, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	burst, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			AllowOrigins: getEnv("ALLOW_ORIGINS", "*"),
			Storage:      getEnv("STORAGE", "postgres"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "rewards"),
			Password: getEnv("DB_PASSWORD", "rewards"),
			Name:     getEnv("DB_NAME", "rewards"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
			Channel:  getEnv("REDIS_SETTINGS_CHANNEL", "rewards:settings"),
		},
		Telegram: TelegramConfig{
			BotToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
			BotUsername: getEnv("TELEGRAM_BOT_USERNAME", ""),
			WebAppURL:   getEnv("TELEGRAM_WEBAPP_URL", ""),
			InitDataTTL: initDataTTL,
		},
		TON: TONConfig{
			Testnet: tonTestnet,
		},
		Admin: AdminConfig{
			TelegramIDs: adminIDs,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: rps,
			Burst:             burst,
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", ""),
		},
		Scheduler: SchedulerConfig{
			ContestSpec:  getEnv("CRON_CONTESTS", "@every 5m"),
			SettingsSpec: getEnv("CRON_SETTINGS", "@every 1m"),
			LedgerSpec:   getEnv("CRON_LEDGER", "@daily"),
		},
	}

	if cfg.Server.Storage != "postgres" && cfg.Server.Storage != "memory" {
		return nil, fmt.Errorf("unknown STORAGE %q", cfg.Server.Storage)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseIDs reads a comma separated list of Telegram ids.
func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
