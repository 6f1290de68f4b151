package memstore

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/repository"
)

var _ repository.Tx = (*state)(nil)

func (d *state) LockAccount(_ context.Context, userID uuid.UUID) (*model.User, *model.Balance, error) {
	balance, ok := d.balances[userID]
	if !ok {
		return nil, nil, repository.ErrUserNotFound
	}
	user := d.users[userID]
	return &user, &balance, nil
}

func (d *state) Award(_ context.Context, p model.AwardParams) (*model.Transaction, error) {
	balance, ok := d.balances[p.UserID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	if balance.Points+p.Points < 0 || balance.StarsBalance+p.Stars < 0 {
		return nil, repository.ErrInsufficientBalance
	}

	now := d.now()
	earned, withdrawn := p.Counters()
	before := balance.Points
	balance.Points += p.Points
	balance.StarsBalance += p.Stars
	balance.TotalEarned += earned
	balance.TotalWithdrawn = max(balance.TotalWithdrawn+withdrawn, 0)
	balance.UpdatedAt = now
	d.balances[p.UserID] = balance

	tx := model.Transaction{
		ID:            uuid.New(),
		UserID:        p.UserID,
		Type:          p.Type,
		Points:        p.Points,
		Stars:         p.Stars,
		ReferenceID:   p.ReferenceID,
		BalanceBefore: before,
		BalanceAfter:  balance.Points,
		CreatedAt:     now,
	}
	if p.Description != "" {
		desc := p.Description
		tx.Description = &desc
	}
	d.transactions = append(d.transactions, tx)

	user := d.users[p.UserID]
	user.TotalPoints += p.Points
	user.Level = model.LevelFor(user.TotalPoints)
	user.UpdatedAt = now
	d.users[p.UserID] = user

	return &tx, nil
}

func (d *state) CreateUser(_ context.Context, user *model.User) error {
	if _, ok := d.byTelegramID[user.TelegramID]; ok {
		return repository.ErrAlreadyExists
	}
	if _, ok := d.byReferralCode[user.ReferralCode]; ok {
		return repository.ErrAlreadyExists
	}

	now := d.now()
	user.ID = uuid.New()
	user.TotalPoints = 0
	user.Level = 1
	user.CreatedAt = now
	user.UpdatedAt = now

	d.users[user.ID] = *user
	d.byTelegramID[user.TelegramID] = user.ID
	d.byReferralCode[user.ReferralCode] = user.ID
	d.balances[user.ID] = model.Balance{UserID: user.ID, UpdatedAt: now}
	return nil
}

func (d *state) GetUser(_ context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := d.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &user, nil
}

func (d *state) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	id, ok := d.byTelegramID[telegramID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return d.GetUser(ctx, id)
}

func (d *state) GetUserByReferralCode(ctx context.Context, code string) (*model.User, error) {
	id, ok := d.byReferralCode[code]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return d.GetUser(ctx, id)
}

func (d *state) CreateReferral(_ context.Context, referral *model.Referral) error {
	for _, r := range d.referrals {
		if r.ReferredID == referral.ReferredID {
			return repository.ErrAlreadyExists
		}
	}
	referral.ID = uuid.New()
	referral.CreatedAt = d.now()
	d.referrals = append(d.referrals, *referral)
	return nil
}

func (d *state) GetTask(_ context.Context, id uuid.UUID) (*model.Task, error) {
	task, ok := d.tasks[id]
	if !ok {
		return nil, repository.ErrTaskNotFound
	}
	return &task, nil
}

func (d *state) GetLastCompletion(_ context.Context, userID, taskID uuid.UUID) (*model.UserTaskCompletion, error) {
	var last *model.UserTaskCompletion
	for i := range d.completions {
		c := d.completions[i]
		if c.UserID != userID || c.TaskID != taskID {
			continue
		}
		if last == nil || c.CompletedAt.After(last.CompletedAt) {
			last = &c
		}
	}
	if last == nil {
		return nil, repository.ErrCompletionNotFound
	}
	return last, nil
}

func (d *state) CreateCompletion(_ context.Context, completion *model.UserTaskCompletion) error {
	completion.ID = uuid.New()
	d.completions = append(d.completions, *completion)
	return nil
}

func (d *state) GetDailyClaim(_ context.Context, userID uuid.UUID, date time.Time) (*model.DailyClaim, error) {
	claim, ok := d.dailyClaims[dailyKey{userID, model.UTCDate(date)}]
	if !ok {
		return nil, repository.ErrDailyClaimNotFound
	}
	return &claim, nil
}

func (d *state) CreateDailyClaim(_ context.Context, claim *model.DailyClaim) error {
	key := dailyKey{claim.UserID, model.UTCDate(claim.ClaimDate)}
	if _, ok := d.dailyClaims[key]; ok {
		return repository.ErrAlreadyExists
	}
	claim.ID = uuid.New()
	claim.ClaimDate = key.date
	claim.CreatedAt = d.now()
	d.dailyClaims[key] = *claim
	return nil
}

func (d *state) CountSpinsSince(_ context.Context, userID uuid.UUID, since time.Time) (int, error) {
	count := 0
	for _, s := range d.spins {
		if s.UserID == userID && !s.SpunAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (d *state) CreateSpinResult(_ context.Context, result *model.SpinResult) error {
	result.ID = uuid.New()
	d.spins = append(d.spins, *result)
	return nil
}

func (d *state) CountAdLogsSince(_ context.Context, userID uuid.UUID, since time.Time) (int, error) {
	count := 0
	for _, l := range d.adLogs {
		if l.UserID == userID && !l.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (d *state) CreateAdLog(_ context.Context, log *model.AdLog) error {
	log.ID = uuid.New()
	d.adLogs = append(d.adLogs, *log)
	return nil
}

func (d *state) CountPendingWithdrawals(_ context.Context, userID uuid.UUID) (int, error) {
	count := 0
	for _, w := range d.withdrawals {
		if w.UserID == userID && w.Status == model.WithdrawalStatusPending {
			count++
		}
	}
	return count, nil
}

func (d *state) CreateWithdrawal(_ context.Context, w *model.Withdrawal) error {
	w.ID = uuid.New()
	w.RequestedAt = d.now()
	d.withdrawals[w.ID] = *w
	return nil
}

func (d *state) GetWithdrawal(_ context.Context, id uuid.UUID) (*model.Withdrawal, error) {
	w, ok := d.withdrawals[id]
	if !ok {
		return nil, repository.ErrWithdrawalNotFound
	}
	return &w, nil
}

func (d *state) TransitionWithdrawal(_ context.Context, t model.Transition) (*model.Withdrawal, error) {
	w, ok := d.withdrawals[t.WithdrawalID]
	if !ok {
		return nil, repository.ErrWithdrawalNotFound
	}
	if w.Status != model.WithdrawalStatusPending {
		return nil, repository.ErrNotPending
	}
	at := t.At
	w.Status = t.To
	w.ProcessedAt = &at
	if t.AdminNote != nil {
		w.AdminNote = t.AdminNote
	}
	d.withdrawals[w.ID] = w
	return &w, nil
}

func (d *state) GetContest(_ context.Context, id uuid.UUID) (*model.Contest, error) {
	c, ok := d.contests[id]
	if !ok {
		return nil, repository.ErrContestNotFound
	}
	return &c, nil
}

func (d *state) ClaimContestDistribution(_ context.Context, contestID uuid.UUID) (*model.Contest, error) {
	c, ok := d.contests[contestID]
	if !ok {
		return nil, repository.ErrContestNotFound
	}
	if c.RewardsDistributed {
		return nil, repository.ErrAlreadyDistributed
	}
	c.RewardsDistributed = true
	c.IsActive = false
	d.contests[contestID] = c
	return &c, nil
}

func (d *state) GetContestEntries(_ context.Context, contestID uuid.UUID, limit int) ([]model.ContestEntry, error) {
	var entries []model.ContestEntry
	for _, e := range d.entries {
		if e.ContestID == contestID {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.Before(b.UpdatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (d *state) IncrementContestScores(_ context.Context, userID uuid.UUID, contestType model.ContestType, at time.Time) (int, error) {
	touched := 0
	for _, c := range d.contests {
		if c.Type != contestType || !c.Running(at) {
			continue
		}
		key := entryKey{c.ID, userID}
		entry, ok := d.entries[key]
		if !ok {
			entry = model.ContestEntry{ID: uuid.New(), ContestID: c.ID, UserID: userID, CreatedAt: at}
		}
		entry.Score++
		entry.UpdatedAt = at
		d.entries[key] = entry
		touched++
	}
	return touched, nil
}

func (d *state) LogAdminAction(_ context.Context, adminID int64, action string, targetUserID *uuid.UUID, details map[string]interface{}) error {
	var detailsJSON []byte
	if details != nil {
		var err error
		detailsJSON, err = json.Marshal(details)
		if err != nil {
			return err
		}
	}
	d.adminLogs = append(d.adminLogs, model.AdminLog{
		ID:           uuid.New(),
		AdminID:      adminID,
		Action:       action,
		TargetUserID: targetUserID,
		Details:      detailsJSON,
		CreatedAt:    d.now(),
	})
	return nil
}
