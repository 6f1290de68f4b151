package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/service"
)

const (
	TelegramUserKey = "telegram_user"
	TelegramIDKey   = "telegram_id"
)

var (
	ErrMissingHash     = errors.New("missing hash")
	ErrInvalidHash     = errors.New("invalid hash")
	ErrInvalidAuthDate = errors.New("invalid auth_date")
	ErrExpired         = errors.New("auth_date expired")
	ErrMissingUser     = errors.New("missing user")
)

// InitData is the verified payload of a Telegram Mini App launch.
type InitData struct {
	QueryID    string
	User       service.TelegramUser
	StartParam string
	AuthDate   time.Time
}

// TelegramAuth verifies the Mini App init data sent in X-Telegram-Init-Data or
// as "Authorization: tma <data>". A zero maxAge disables the age check.
func TelegramAuth(botToken string, maxAge time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		initData := c.Get("X-Telegram-Init-Data")
		if initData == "" {
			initData = strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "tma ")
		}

		if initData == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Missing Telegram init data",
			})
		}

		data, err := ValidateInitData(initData, botToken, maxAge, time.Now())
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Invalid Telegram init data: " + err.Error(),
			})
		}

		c.Locals(TelegramUserKey, data)
		c.Locals(TelegramIDKey, data.User.ID)

		return c.Next()
	}
}

// ValidateInitData checks the init data signature against the bot token and
// decodes the user it carries.
func ValidateInitData(initData, botToken string, maxAge time.Duration, now time.Time) (*InitData, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, err
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, ErrMissingHash
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, ErrInvalidAuthDate
	}
	if maxAge > 0 && now.Sub(time.Unix(authDate, 0)) > maxAge {
		return nil, ErrExpired
	}

	values.Del("hash")
	if !hmac.Equal([]byte(Sign(values, botToken)), []byte(hash)) {
		return nil, ErrInvalidHash
	}

	data := &InitData{
		QueryID:    values.Get("query_id"),
		StartParam: values.Get("start_param"),
		AuthDate:   time.Unix(authDate, 0).UTC(),
	}

	userJSON := values.Get("user")
	if userJSON == "" {
		return nil, ErrMissingUser
	}
	if err := json.Unmarshal([]byte(userJSON), &data.User); err != nil {
		return nil, err
	}
	if data.User.ID == 0 {
		return nil, ErrMissingUser
	}

	return data, nil
}

// Sign returns the hex signature Telegram computes over the given fields.
func Sign(values url.Values, botToken string) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		if key == "hash" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+values.Get(key))
	}
	dataCheckString := strings.Join(parts, "\n")

	secretKey := hmac.New(sha256.New, []byte("WebAppData"))
	secretKey.Write([]byte(botToken))

	h := hmac.New(sha256.New, secretKey.Sum(nil))
	h.Write([]byte(dataCheckString))
	return hex.EncodeToString(h.Sum(nil))
}

func GetTelegramID(c *fiber.Ctx) int64 {
	id, ok := c.Locals(TelegramIDKey).(int64)
	if !ok {
		return 0
	}
	return id
}

func GetInitData(c *fiber.Ctx) *InitData {
	data, ok := c.Locals(TelegramUserKey).(*InitData)
	if !ok {
		return nil
	}
	return data
}
