package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/middleware"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/repository/memstore"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/service"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	botToken   = "42:handler-test"
	adminTGID  = int64(1)
	aliceTGID  = int64(100)
	bobTGID    = int64(200)
	mallorTGID = int64(300)
)

type testApp struct {
	app      *fiber.App
	store    *memstore.Store
	services Services
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	store := memstore.New()
	return newTestAppWithStore(t, store, store)
}

// newTestAppWithStore runs the services on svcStore, which may wrap mem.
func newTestAppWithStore(t *testing.T, mem *memstore.Store, svcStore service.Store) *testApp {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	settings := service.NewSettingsService(svcStore, log)
	require.NoError(t, settings.Reload(context.Background()))

	deps := service.Deps{Store: svcStore, Settings: settings, Log: log}
	admin := service.NewAdminService(deps, []int64{adminTGID})
	svc := Services{
		Users:       service.NewUserService(deps),
		Balances:    service.NewBalanceService(deps),
		Tasks:       service.NewTaskService(deps),
		Daily:       service.NewDailyService(deps),
		Spins:       service.NewSpinService(deps),
		Ads:         service.NewAdService(deps),
		Withdrawals: service.NewWithdrawalService(deps, false),
		Contests:    service.NewContestService(deps),
		Referrals:   service.NewReferralService(deps, "rewards_bot"),
		Admin:       admin,
		Settings:    settings,
	}

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log)})
	Register(app, New(svc, mem, log), NewAdminHandler(svc, log), Middlewares{
		Auth:  middleware.TelegramAuth(botToken, time.Hour),
		Admin: middleware.AdminAuth(admin, log),
	})

	return &testApp{app: app, store: mem, services: svc}
}

func initData(telegramID int64, extra map[string]string) string {
	values := url.Values{}
	values.Set("auth_date", strconv.FormatInt(time.Now().Unix(), 10))
	values.Set("user", `{"id":`+strconv.FormatInt(telegramID, 10)+`,"first_name":"User`+strconv.FormatInt(telegramID, 10)+`"}`)
	for k, v := range extra {
		values.Set(k, v)
	}
	values.Set("hash", middleware.Sign(values, botToken))
	return values.Encode()
}

func (a *testApp) do(t *testing.T, method, path string, telegramID int64, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if telegramID != 0 {
		req.Header.Set("X-Telegram-Init-Data", initData(telegramID, nil))
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

// signup creates the caller's account and returns its id.
func (a *testApp) signup(t *testing.T, telegramID int64, referralCode string) (string, map[string]interface{}) {
	t.Helper()
	status, body := a.do(t, http.MethodPost, "/api/auth/init", telegramID, fiber.Map{"referralCode": referralCode})
	require.Equal(t, http.StatusOK, status, body)
	user := body["user"].(map[string]interface{})
	return user["id"].(string), user
}

func TestAuthInit(t *testing.T) {
	a := newTestApp(t)

	status, body := a.do(t, http.MethodPost, "/api/auth/init", 0, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, false, body["success"])

	_, alice := a.signup(t, aliceTGID, "")
	balance := alice["balance"].(map[string]interface{})
	assert.EqualValues(t, 1000, balance["points"])

	status, body = a.do(t, http.MethodPost, "/api/auth/init", bobTGID, fiber.Map{
		"telegramUser": fiber.Map{"id": aliceTGID, "first_name": "Impostor"},
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, false, body["success"])

	status, body = a.do(t, http.MethodPost, "/api/auth/init", bobTGID, fiber.Map{"referralCode": "ref_" + alice["referral_code"].(string)})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["created"])
	bob := body["user"].(map[string]interface{})
	assert.EqualValues(t, 1500, bob["balance"].(map[string]interface{})["points"])
}

func TestAuthInitUsesStartParam(t *testing.T) {
	a := newTestApp(t)
	_, alice := a.signup(t, aliceTGID, "")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/init", nil)
	req.Header.Set("X-Telegram-Init-Data", initData(bobTGID, map[string]string{"start_param": "ref_" + alice["referral_code"].(string)}))
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, body := a.do(t, http.MethodGet, "/api/referrals", aliceTGID, nil)
	refs := body["referrals"].(map[string]interface{})
	assert.EqualValues(t, 1, refs["stats"].(map[string]interface{})["total_referrals"])
	assert.Equal(t, "https://t.me/rewards_bot?start=ref_"+alice["referral_code"].(string), refs["link"])
}

func TestDailyRewardEnvelope(t *testing.T) {
	a := newTestApp(t)
	aliceID, _ := a.signup(t, aliceTGID, "")

	status, body := a.do(t, http.MethodPost, "/api/daily-reward", aliceTGID, fiber.Map{"userId": aliceID})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 110, body["points"])
	assert.EqualValues(t, 1, body["streak"])

	status, body = a.do(t, http.MethodPost, "/api/daily-reward", aliceTGID, fiber.Map{"userId": aliceID})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Already claimed today", body["message"])
}

func TestUserIDMustBelongToCaller(t *testing.T) {
	a := newTestApp(t)
	aliceID, _ := a.signup(t, aliceTGID, "")
	a.signup(t, mallorTGID, "")

	status, body := a.do(t, http.MethodPost, "/api/spin-wheel", mallorTGID, fiber.Map{"userId": aliceID})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, false, body["success"])

	status, _ = a.do(t, http.MethodPost, "/api/daily-reward", bobTGID, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCompleteTaskFlow(t *testing.T) {
	a := newTestApp(t)
	a.signup(t, aliceTGID, "")
	a.signup(t, adminTGID, "")

	status, body := a.do(t, http.MethodPost, "/api/admin/tasks", adminTGID, fiber.Map{
		"title": "Join channel", "type": "channel", "reward_points": 300,
	})
	require.Equal(t, http.StatusCreated, status, body)
	taskID := body["task"].(map[string]interface{})["id"].(string)

	status, body = a.do(t, http.MethodPost, "/api/complete-task", aliceTGID, fiber.Map{"taskId": taskID})
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 300, body["points"])

	status, body = a.do(t, http.MethodPost, "/api/complete-task", aliceTGID, fiber.Map{"taskId": taskID})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Task already completed!", body["message"])

	status, body = a.do(t, http.MethodPost, "/api/complete-task", aliceTGID, fiber.Map{"taskId": "not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])

	_, body = a.do(t, http.MethodGet, "/api/balance", aliceTGID, nil)
	assert.EqualValues(t, 1300, body["balance"].(map[string]interface{})["points"])
}

func TestSpinWheel(t *testing.T) {
	a := newTestApp(t)
	a.signup(t, aliceTGID, "")
	a.services.Spins.SetRand(func() float64 { return 0.5 })

	status, body := a.do(t, http.MethodPost, "/api/spin-wheel", aliceTGID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 250, body["points"])
	assert.EqualValues(t, 0, body["stars"])
	assert.NotEmpty(t, body["result"])

	_, body = a.do(t, http.MethodGet, "/api/spin-wheel/status", aliceTGID, nil)
	assert.EqualValues(t, 2, body["status"].(map[string]interface{})["remaining"])
}

func TestWithdrawAndAdminUpdate(t *testing.T) {
	a := newTestApp(t)
	aliceID, _ := a.signup(t, aliceTGID, "")
	a.signup(t, adminTGID, "")

	status, body := a.do(t, http.MethodPost, "/api/withdraw", aliceTGID, fiber.Map{"method": "stars", "points": 10000})
	assert.Equal(t, http.StatusPaymentRequired, status)
	assert.Equal(t, "Insufficient balance", body["message"])

	status, _ = a.do(t, http.MethodPost, "/api/admin/users/"+aliceID+"/credit", adminTGID, fiber.Map{"points": 9000})
	require.Equal(t, http.StatusOK, status)

	status, body = a.do(t, http.MethodPost, "/api/withdraw", aliceTGID, fiber.Map{
		"userId": aliceID, "method": "usdt", "points": 10000, "walletAddress": "TQn9Y2khEsLJW1ChVWFMSMeRDow5KcbLSE",
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Withdrawal request submitted", body["message"])
	withdrawal := body["withdrawal"].(map[string]interface{})
	assert.Equal(t, "10", withdrawal["amount"])

	status, _ = a.do(t, http.MethodPost, "/api/admin/withdrawal-update", aliceTGID, fiber.Map{"withdrawalId": withdrawal["id"], "status": "approved"})
	assert.Equal(t, http.StatusForbidden, status)

	status, body = a.do(t, http.MethodPost, "/api/admin/withdrawal-update", adminTGID, fiber.Map{
		"withdrawalId": withdrawal["id"], "status": "rejected", "adminNote": "wrong network",
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["success"])

	status, body = a.do(t, http.MethodPost, "/api/admin/withdrawal-update", adminTGID, fiber.Map{"withdrawalId": withdrawal["id"], "status": "approved"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Withdrawal already processed", body["message"])

	_, body = a.do(t, http.MethodGet, "/api/balance", aliceTGID, nil)
	assert.EqualValues(t, 10000, body["balance"].(map[string]interface{})["points"])

	_, body = a.do(t, http.MethodGet, "/api/admin/ledger/verify", adminTGID, nil)
	assert.Equal(t, true, body["consistent"])
}

func TestDistributeContestEndpoint(t *testing.T) {
	a := newTestApp(t)
	a.signup(t, aliceTGID, "")
	a.signup(t, adminTGID, "")

	now := time.Now().UTC()
	status, body := a.do(t, http.MethodPost, "/api/admin/contests", adminTGID, fiber.Map{
		"title": "Ad marathon", "type": "ads",
		"startsAt": now.Add(-time.Hour), "endsAt": now.Add(time.Hour),
		"rewards": []int64{500},
	})
	require.Equal(t, http.StatusCreated, status, body)
	contestID := body["contest"].(map[string]interface{})["id"].(string)

	status, body = a.do(t, http.MethodPost, "/api/admin/distribute-contest", adminTGID, fiber.Map{"contestId": contestID})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "No entries", body["message"])

	status, _ = a.do(t, http.MethodPost, "/api/log-ad", aliceTGID, fiber.Map{"adType": "rewarded", "rewardGiven": 0})
	require.Equal(t, http.StatusOK, status)

	_, body = a.do(t, http.MethodGet, "/api/contests/"+contestID+"/leaderboard", aliceTGID, nil)
	assert.Len(t, body["leaderboard"], 1)

	status, body = a.do(t, http.MethodPost, "/api/admin/distribute-contest", adminTGID, fiber.Map{"contestId": contestID})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Rewards distributed to 1 winners", body["message"])

	status, body = a.do(t, http.MethodPost, "/api/admin/distribute-contest", adminTGID, fiber.Map{"contestId": contestID})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Rewards already distributed", body["message"])

	_, body = a.do(t, http.MethodGet, "/api/balance", aliceTGID, nil)
	assert.EqualValues(t, 1500, body["balance"].(map[string]interface{})["points"])
}

func TestAdminSettings(t *testing.T) {
	a := newTestApp(t)
	a.signup(t, adminTGID, "")

	status, body := a.do(t, http.MethodPost, "/api/admin/settings", adminTGID, fiber.Map{"key": model.SettingSpinDailyLimit, "value": "abc"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])

	status, body = a.do(t, http.MethodPost, "/api/admin/settings", adminTGID, fiber.Map{"key": model.SettingSpinDailyLimit, "value": "5"})
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["version"])

	_, body = a.do(t, http.MethodGet, "/api/admin/settings", adminTGID, nil)
	assert.EqualValues(t, 1, body["version"])
	assert.Len(t, body["settings"], len(model.DefaultSettings))

	_, body = a.do(t, http.MethodGet, "/api/admin/logs", adminTGID, nil)
	assert.Len(t, body["logs"], 1)
}

func TestBannedUserGetsConflict(t *testing.T) {
	a := newTestApp(t)
	aliceID, _ := a.signup(t, aliceTGID, "")
	a.signup(t, adminTGID, "")

	status, _ := a.do(t, http.MethodPost, "/api/admin/users/"+aliceID+"/ban", adminTGID, fiber.Map{"reason": "bot traffic"})
	require.Equal(t, http.StatusOK, status)

	status, body := a.do(t, http.MethodPost, "/api/daily-reward", aliceTGID, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, false, body["success"])
}

func TestHealth(t *testing.T) {
	a := newTestApp(t)

	resp, err := a.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNegativeOffsetIsClamped(t *testing.T) {
	a := newTestApp(t)
	aliceID, _ := a.signup(t, aliceTGID, "")
	a.signup(t, adminTGID, "")

	_, _ = a.do(t, http.MethodPost, "/api/admin/users/"+aliceID+"/credit", adminTGID, fiber.Map{"points": 10000})
	status, _ := a.do(t, http.MethodPost, "/api/withdraw", aliceTGID, fiber.Map{"method": "stars", "points": 10000})
	require.Equal(t, http.StatusOK, status)

	status, body := a.do(t, http.MethodGet, "/api/withdrawals?offset=-1", aliceTGID, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Len(t, body["withdrawals"], 1)

	status, body = a.do(t, http.MethodGet, "/api/admin/withdrawals?offset=-1", adminTGID, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Len(t, body["withdrawals"], 1)

	status, body = a.do(t, http.MethodGet, "/api/admin/logs?offset=-5", adminTGID, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Len(t, body["logs"], 1)

	status, body = a.do(t, http.MethodGet, "/api/transactions?offset=-1", aliceTGID, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["success"])
}

// brokenBalanceStore fails balance reads once broken is set.
type brokenBalanceStore struct {
	*memstore.Store
	broken bool
}

var errDatabaseDown = errors.New("pq: connection refused to 10.0.0.7:5432")

func (s *brokenBalanceStore) GetBalance(ctx context.Context, userID uuid.UUID) (*model.Balance, error) {
	if s.broken {
		return nil, errDatabaseDown
	}
	return s.Store.GetBalance(ctx, userID)
}

func TestUnexpectedErrorIsHidden(t *testing.T) {
	mem := memstore.New()
	store := &brokenBalanceStore{Store: mem}
	a := newTestAppWithStore(t, mem, store)
	a.signup(t, aliceTGID, "")

	store.broken = true
	status, body := a.do(t, http.MethodGet, "/api/balance", aliceTGID, nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Internal server error", body["message"])

	raw, err := json.Marshal(body)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "10.0.0.7")
	assert.NotContains(t, string(raw), "connection refused")
}

func TestErrorHandlerKeepsEnvelope(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log)})
	app.Use(recover.New())
	app.Get("/boom", func(c *fiber.Ctx) error {
		panic("secret state 42")
	})

	cases := []struct {
		path    string
		status  int
		message string
	}{
		{"/boom", http.StatusInternalServerError, "Internal server error"},
		{"/no-such-route", http.StatusNotFound, "Cannot GET /no-such-route"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tc.path, nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tc.message, body["message"])
			assert.NotContains(t, body["message"], "secret")
		})
	}
}
