package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/repository/memstore"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []model.Notification
}

func (n *recordingNotifier) Notify(e model.Notification) {
	n.mu.Lock()
	n.events = append(n.events, e)
	n.mu.Unlock()
}

func (n *recordingNotifier) ofType(t model.NotificationType) []model.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []model.Notification
	for _, e := range n.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	store    *memstore.Store
	clock    *fakeClock
	notifier *recordingNotifier
	settings *SettingsService

	users       *UserService
	balances    *BalanceService
	tasks       *TaskService
	daily       *DailyService
	spins       *SpinService
	ads         *AdService
	withdrawals *WithdrawalService
	contests    *ContestService
	admin       *AdminService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clock := &fakeClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	store := memstore.New(memstore.WithClock(clock.Now))
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	settings := NewSettingsService(store, log)
	require.NoError(t, settings.Reload(context.Background()))

	notifier := &recordingNotifier{}
	deps := Deps{Store: store, Settings: settings, Notifier: notifier, Now: clock.Now, Log: log}

	return &testEnv{
		store:       store,
		clock:       clock,
		notifier:    notifier,
		settings:    settings,
		users:       NewUserService(deps),
		balances:    NewBalanceService(deps),
		tasks:       NewTaskService(deps),
		daily:       NewDailyService(deps),
		spins:       NewSpinService(deps),
		ads:         NewAdService(deps),
		withdrawals: NewWithdrawalService(deps, false),
		contests:    NewContestService(deps),
		admin:       NewAdminService(deps, []int64{1}),
	}
}

var nextTelegramID int64 = 1000

func (e *testEnv) newUser(t *testing.T) *model.UserWithBalance {
	t.Helper()
	nextTelegramID++
	user, created, err := e.users.InitUser(context.Background(), TelegramUser{ID: nextTelegramID, FirstName: "user"}, "")
	require.NoError(t, err)
	require.True(t, created)
	return user
}

func (e *testEnv) credit(t *testing.T, userID uuid.UUID, points int64) {
	t.Helper()
	_, err := e.balances.CreditManual(context.Background(), 1, userID, points, "test top-up")
	require.NoError(t, err)
}

func (e *testEnv) points(t *testing.T, userID uuid.UUID) int64 {
	t.Helper()
	balance, err := e.balances.GetBalance(context.Background(), userID)
	require.NoError(t, err)
	return balance.Points
}

func (e *testEnv) requireLedgerConsistent(t *testing.T) {
	t.Helper()
	mismatches, err := e.balances.VerifyLedger(context.Background())
	require.NoError(t, err)
	require.Empty(t, mismatches)
}
