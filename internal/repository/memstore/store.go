package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/repository"
)

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (user *model.User, err error) {
	s.read(func(d *state) { user, err = d.GetUser(ctx, id) })
	return
}

func (s *Store) GetUserByTelegramID(ctx context.Context, telegramID int64) (user *model.User, err error) {
	s.read(func(d *state) { user, err = d.GetUserByTelegramID(ctx, telegramID) })
	return
}

func (s *Store) UpdateUserProfile(_ context.Context, user *model.User) error {
	return s.write(func(d *state) error {
		current, ok := d.users[user.ID]
		if !ok {
			return repository.ErrUserNotFound
		}
		current.Username = user.Username
		current.FirstName = user.FirstName
		current.LastName = user.LastName
		current.PhotoURL = user.PhotoURL
		current.LanguageCode = user.LanguageCode
		current.UpdatedAt = d.now()
		d.users[user.ID] = current
		return nil
	})
}

func (s *Store) SetUserBanned(_ context.Context, id uuid.UUID, banned bool) error {
	return s.write(func(d *state) error {
		user, ok := d.users[id]
		if !ok {
			return repository.ErrUserNotFound
		}
		user.IsBanned = banned
		user.UpdatedAt = d.now()
		d.users[id] = user
		return nil
	})
}

func (s *Store) GetBalance(_ context.Context, userID uuid.UUID) (balance *model.Balance, err error) {
	s.read(func(d *state) {
		b, ok := d.balances[userID]
		if !ok {
			err = repository.ErrUserNotFound
			return
		}
		balance = &b
	})
	return
}

func (s *Store) GetTransactions(_ context.Context, userID uuid.UUID, limit, offset int) ([]model.Transaction, error) {
	var out []model.Transaction
	s.read(func(d *state) {
		for i := len(d.transactions) - 1; i >= 0; i-- {
			if d.transactions[i].UserID == userID {
				out = append(out, d.transactions[i])
			}
		}
	})
	return page(out, limit, offset), nil
}

func (s *Store) GetLedgerMismatches(_ context.Context) ([]model.LedgerMismatch, error) {
	var out []model.LedgerMismatch
	s.read(func(d *state) {
		sums := make(map[uuid.UUID]int64, len(d.balances))
		for _, t := range d.transactions {
			sums[t.UserID] += t.Points
		}
		for id, b := range d.balances {
			if b.Points != sums[id] {
				out = append(out, model.LedgerMismatch{UserID: id, BalancePoints: b.Points, LedgerPoints: sums[id]})
			}
		}
	})
	return out, nil
}

func (s *Store) GetReferralStats(_ context.Context, referrerID uuid.UUID) (*model.ReferralStats, error) {
	var stats model.ReferralStats
	s.read(func(d *state) {
		for _, r := range d.referrals {
			if r.ReferrerID == referrerID {
				stats.TotalReferrals++
				stats.PointsEarned += r.PointsEarned
			}
		}
	})
	return &stats, nil
}

func (s *Store) GetReferredUsers(_ context.Context, referrerID uuid.UUID) ([]model.User, error) {
	var users []model.User
	s.read(func(d *state) {
		for i := len(d.referrals) - 1; i >= 0; i-- {
			if d.referrals[i].ReferrerID == referrerID {
				users = append(users, d.users[d.referrals[i].ReferredID])
			}
		}
	})
	return users, nil
}

func (s *Store) GetActiveTasks(_ context.Context) ([]model.Task, error) {
	var tasks []model.Task
	s.read(func(d *state) {
		for _, t := range d.tasks {
			if t.IsActive {
				tasks = append(tasks, t)
			}
		}
	})
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].SortOrder != tasks[j].SortOrder {
			return tasks[i].SortOrder < tasks[j].SortOrder
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (s *Store) CreateTask(_ context.Context, task *model.Task) error {
	return s.write(func(d *state) error {
		task.ID = uuid.New()
		task.CreatedAt = d.now()
		d.tasks[task.ID] = *task
		return nil
	})
}

func (s *Store) GetLatestCompletions(_ context.Context, userID uuid.UUID) ([]model.UserTaskCompletion, error) {
	latest := make(map[uuid.UUID]model.UserTaskCompletion)
	s.read(func(d *state) {
		for _, c := range d.completions {
			if c.UserID != userID {
				continue
			}
			if prev, ok := latest[c.TaskID]; !ok || c.CompletedAt.After(prev.CompletedAt) {
				latest[c.TaskID] = c
			}
		}
	})
	out := make([]model.UserTaskCompletion, 0, len(latest))
	for _, c := range latest {
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) CountSpinsSince(ctx context.Context, userID uuid.UUID, since time.Time) (count int, err error) {
	s.read(func(d *state) { count, err = d.CountSpinsSince(ctx, userID, since) })
	return
}

func (s *Store) GetWithdrawal(ctx context.Context, id uuid.UUID) (w *model.Withdrawal, err error) {
	s.read(func(d *state) { w, err = d.GetWithdrawal(ctx, id) })
	return
}

func (s *Store) GetUserWithdrawals(_ context.Context, userID uuid.UUID, limit, offset int) ([]model.Withdrawal, error) {
	var out []model.Withdrawal
	s.read(func(d *state) {
		for _, w := range d.withdrawals {
			if w.UserID == userID {
				out = append(out, w)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return page(out, limit, offset), nil
}

func (s *Store) GetWithdrawalsByStatus(_ context.Context, status model.WithdrawalStatus, limit, offset int) ([]model.Withdrawal, error) {
	var out []model.Withdrawal
	s.read(func(d *state) {
		for _, w := range d.withdrawals {
			if w.Status == status {
				out = append(out, w)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })
	return page(out, limit, offset), nil
}

func (s *Store) GetContest(ctx context.Context, id uuid.UUID) (c *model.Contest, err error) {
	s.read(func(d *state) { c, err = d.GetContest(ctx, id) })
	return
}

func (s *Store) CreateContest(_ context.Context, contest *model.Contest) error {
	return s.write(func(d *state) error {
		contest.ID = uuid.New()
		contest.CreatedAt = d.now()
		d.contests[contest.ID] = *contest
		return nil
	})
}

func (s *Store) GetActiveContests(_ context.Context, at time.Time) ([]model.Contest, error) {
	var out []model.Contest
	s.read(func(d *state) {
		for _, c := range d.contests {
			if c.Running(at) {
				out = append(out, c)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].EndsAt.Before(out[j].EndsAt) })
	return out, nil
}

func (s *Store) GetDueContests(_ context.Context, at time.Time) ([]model.Contest, error) {
	var out []model.Contest
	s.read(func(d *state) {
		for _, c := range d.contests {
			if !c.RewardsDistributed && c.IsActive && !c.EndsAt.After(at) {
				out = append(out, c)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].EndsAt.Before(out[j].EndsAt) })
	return out, nil
}

func (s *Store) CloseContest(_ context.Context, contestID uuid.UUID) error {
	return s.write(func(d *state) error {
		c, ok := d.contests[contestID]
		if !ok || c.RewardsDistributed {
			return nil
		}
		c.IsActive = false
		d.contests[contestID] = c
		return nil
	})
}

func (s *Store) GetContestEntries(ctx context.Context, contestID uuid.UUID, limit int) (entries []model.ContestEntry, err error) {
	s.read(func(d *state) { entries, err = d.GetContestEntries(ctx, contestID, limit) })
	return
}

func (s *Store) SetSetting(_ context.Context, key, value string) (version int64, err error) {
	err = s.write(func(d *state) error {
		d.settingsSeq++
		setting := d.settings[key]
		setting.Key = key
		setting.Value = value
		setting.Version = d.settingsSeq
		setting.UpdatedAt = d.now()
		d.settings[key] = setting
		version = setting.Version
		return nil
	})
	return
}

func (s *Store) GetAllSettings(_ context.Context) ([]model.Setting, error) {
	var out []model.Setting
	s.read(func(d *state) {
		for _, setting := range d.settings {
			out = append(out, setting)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *Store) IsAdmin(_ context.Context, telegramID int64) (ok bool, err error) {
	s.read(func(d *state) { ok = d.admins[telegramID] })
	return
}

func (s *Store) LogAdminAction(ctx context.Context, adminID int64, action string, targetUserID *uuid.UUID, details map[string]interface{}) error {
	return s.write(func(d *state) error {
		return d.LogAdminAction(ctx, adminID, action, targetUserID, details)
	})
}

func (s *Store) GetAdminLogs(_ context.Context, limit, offset int) ([]model.AdminLog, error) {
	var out []model.AdminLog
	s.read(func(d *state) {
		for i := len(d.adminLogs) - 1; i >= 0; i-- {
			out = append(out, d.adminLogs[i])
		}
	})
	return page(out, limit, offset), nil
}

func (s *Store) CreateNotification(_ context.Context, n *model.Notification) error {
	return s.write(func(d *state) error {
		n.ID = uuid.New()
		n.CreatedAt = d.now()
		d.notifications = append(d.notifications, *n)
		return nil
	})
}

func (s *Store) GetUserNotifications(_ context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	var out []model.Notification
	s.read(func(d *state) {
		for i := len(d.notifications) - 1; i >= 0; i-- {
			if d.notifications[i].UserID == userID {
				out = append(out, d.notifications[i])
			}
		}
	})
	return page(out, limit, 0), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
