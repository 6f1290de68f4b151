// Package memstore is an in-process implementation of the rewards store. It backs
// STORAGE=memory runs and the service and handler tests.
//
// Every InTx call works on a private copy of the data and publishes it on commit.
// Transactions are serialized by a single mutex, so a function passed to InTx must
// not call back into the Store.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/repository"
)

type dailyKey struct {
	userID uuid.UUID
	date   time.Time
}

type entryKey struct {
	contestID uuid.UUID
	userID    uuid.UUID
}

type state struct {
	users          map[uuid.UUID]model.User
	byTelegramID   map[int64]uuid.UUID
	byReferralCode map[string]uuid.UUID
	balances       map[uuid.UUID]model.Balance
	transactions   []model.Transaction
	tasks          map[uuid.UUID]model.Task
	completions    []model.UserTaskCompletion
	dailyClaims    map[dailyKey]model.DailyClaim
	spins          []model.SpinResult
	adLogs         []model.AdLog
	withdrawals    map[uuid.UUID]model.Withdrawal
	contests       map[uuid.UUID]model.Contest
	entries        map[entryKey]model.ContestEntry
	referrals      []model.Referral
	settings       map[string]model.Setting
	settingsSeq    int64
	admins         map[int64]bool
	adminLogs      []model.AdminLog
	notifications  []model.Notification

	now func() time.Time
}

func newState(now func() time.Time) *state {
	return &state{
		users:          make(map[uuid.UUID]model.User),
		byTelegramID:   make(map[int64]uuid.UUID),
		byReferralCode: make(map[string]uuid.UUID),
		balances:       make(map[uuid.UUID]model.Balance),
		tasks:          make(map[uuid.UUID]model.Task),
		dailyClaims:    make(map[dailyKey]model.DailyClaim),
		withdrawals:    make(map[uuid.UUID]model.Withdrawal),
		contests:       make(map[uuid.UUID]model.Contest),
		entries:        make(map[entryKey]model.ContestEntry),
		settings:       make(map[string]model.Setting),
		admins:         make(map[int64]bool),
		now:            now,
	}
}

func (s *state) clone() *state {
	return &state{
		users:          maps.Clone(s.users),
		byTelegramID:   maps.Clone(s.byTelegramID),
		byReferralCode: maps.Clone(s.byReferralCode),
		balances:       maps.Clone(s.balances),
		transactions:   slices.Clone(s.transactions),
		tasks:          maps.Clone(s.tasks),
		completions:    slices.Clone(s.completions),
		dailyClaims:    maps.Clone(s.dailyClaims),
		spins:          slices.Clone(s.spins),
		adLogs:         slices.Clone(s.adLogs),
		withdrawals:    maps.Clone(s.withdrawals),
		contests:       maps.Clone(s.contests),
		entries:        maps.Clone(s.entries),
		referrals:      slices.Clone(s.referrals),
		settings:       maps.Clone(s.settings),
		settingsSeq:    s.settingsSeq,
		admins:         maps.Clone(s.admins),
		adminLogs:      slices.Clone(s.adminLogs),
		notifications:  slices.Clone(s.notifications),
		now:            s.now,
	}
}

type Option func(*Store)

// WithClock sets the clock used for generated timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.data.now = now
	}
}

// Store keeps all data in memory. The zero value is not usable; call New.
type Store struct {
	mu   sync.Mutex
	data *state
}

func New(opts ...Option) *Store {
	s := &Store{data: newState(time.Now)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InTx runs fn against a copy of the data. The copy replaces the current data
// only when fn returns nil.
func (s *Store) InTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(work); err != nil {
		return err
	}
	s.data = work
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}

// AddAdmin registers a Telegram account as an admin.
func (s *Store) AddAdmin(telegramID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.admins[telegramID] = true
}

// read runs fn on the committed data under the store lock.
func (s *Store) read(fn func(d *state)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.data)
}

// write runs fn on the committed data under the store lock.
func (s *Store) write(fn func(d *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.data.clone()
	if err := fn(work); err != nil {
		return err
	}
	s.data = work
	return nil
}
