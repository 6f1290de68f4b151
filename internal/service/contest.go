package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/metrics"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/repository"
	"github.com/sirupsen/logrus"
)

const leaderboardSize = 50

type ContestService struct {
	Deps
}

func NewContestService(d Deps) *ContestService {
	return &ContestService{Deps: d.withDefaults()}
}

type DistributionResult struct {
	Contest *model.Contest        `json:"contest"`
	Winners []model.ContestWinner `json:"winners"`
}

func (r *DistributionResult) Message() string {
	return fmt.Sprintf("Rewards distributed to %d winners", len(r.Winners))
}

// Distribute pays the top ranks of a contest exactly once. The distributed flag is
// set by the same transaction that pays, so a retried call gets ErrAlreadyDistributed.
// adminID is 0 for scheduled runs.
func (s *ContestService) Distribute(ctx context.Context, adminID int64, contestID uuid.UUID) (*DistributionResult, error) {
	var result DistributionResult
	err := s.Store.InTx(ctx, func(tx repository.Tx) error {
		contest, err := tx.ClaimContestDistribution(ctx, contestID)
		if err != nil {
			return mapStoreError(err)
		}
		result.Contest = contest

		entries, err := tx.GetContestEntries(ctx, contestID, model.ContestPrizePlaces)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return ErrNoEntries
		}

		rewards := contest.Rewards()
		for _, userID := range winnerLockOrder(entries, rewards) {
			if _, _, err := tx.LockAccount(ctx, userID); err != nil {
				return mapStoreError(err)
			}
		}

		result.Winners = make([]model.ContestWinner, 0, len(entries))
		for i, entry := range entries {
			reward := rewards[i]
			if reward <= 0 {
				continue
			}
			if _, err := award(ctx, tx, model.AwardParams{
				UserID:      entry.UserID,
				Points:      reward,
				Type:        model.TransactionTypeContestReward,
				Description: fmt.Sprintf("%s: place #%d", contest.Title, i+1),
				ReferenceID: &contest.ID,
			}); err != nil {
				return err
			}
			result.Winners = append(result.Winners, model.ContestWinner{
				Rank:   i + 1,
				UserID: entry.UserID,
				Score:  entry.Score,
				Reward: reward,
			})
		}

		if adminID == 0 {
			return nil
		}
		return tx.LogAdminAction(ctx, adminID, model.AdminActionDistributeContest, nil, map[string]interface{}{
			"contest_id": contest.ID,
			"winners":    len(result.Winners),
		})
	})
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			metrics.RecordRejection("distribute_contest", e.Kind.String())
			s.Log.WithFields(logrus.Fields{"contest_id": contestID, "reason": e.Message}).Warn("contest distribution refused")
		} else {
			s.Log.WithError(err).WithField("contest_id", contestID).Error("contest distribution failed")
		}
		return nil, err
	}

	metrics.RecordContestDistributed()
	s.Log.WithFields(logrus.Fields{"contest_id": contestID, "winners": len(result.Winners)}).Info("contest rewards distributed")

	for _, w := range result.Winners {
		n := model.Notification{
			UserID:  w.UserID,
			Type:    model.NotificationContestWinner,
			Title:   "You won a contest!",
			Message: fmt.Sprintf("You placed #%d in %s and received %d points.", w.Rank, result.Contest.Title, w.Reward),
		}
		if user, err := s.Store.GetUser(ctx, w.UserID); err == nil {
			n.TelegramID = user.TelegramID
		}
		s.Notifier.Notify(n)
	}
	return &result, nil
}

// winnerLockOrder returns the paid winners sorted by user id. Balances are
// locked in this order so concurrent distributions cannot deadlock.
func winnerLockOrder(entries []model.ContestEntry, rewards [model.ContestPrizePlaces]int64) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(entries))
	for i, entry := range entries {
		if i < len(rewards) && rewards[i] > 0 {
			ids = append(ids, entry.UserID)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
	return ids
}

// DistributeDue pays every ended contest that has not been distributed yet.
// Ended contests without entries are closed so later runs skip them. A failure
// on one contest does not stop the others. It returns the number of contests paid.
func (s *ContestService) DistributeDue(ctx context.Context) (int, error) {
	due, err := s.Store.GetDueContests(ctx, s.Now())
	if err != nil {
		return 0, err
	}

	paid := 0
	var errs []error
	for _, c := range due {
		_, err := s.Distribute(ctx, 0, c.ID)
		switch {
		case err == nil:
			paid++
		case errors.Is(err, ErrNoEntries):
			if err := s.Store.CloseContest(ctx, c.ID); err != nil {
				s.Log.WithError(err).WithField("contest_id", c.ID).Error("failed to close empty contest")
				errs = append(errs, err)
				continue
			}
			s.Log.WithField("contest_id", c.ID).Info("closed ended contest without entries")
		case errors.Is(err, ErrAlreadyDistributed):
		default:
			errs = append(errs, fmt.Errorf("contest %s: %w", c.ID, err))
		}
	}
	return paid, errors.Join(errs...)
}

// ListActive returns contests whose window contains now.
func (s *ContestService) ListActive(ctx context.Context) ([]model.Contest, error) {
	return s.Store.GetActiveContests(ctx, s.Now())
}

type LeaderboardEntry struct {
	Rank   int       `json:"rank"`
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
	Score  int64     `json:"score"`
}

// Leaderboard ranks contest entries the same way Distribute does.
func (s *ContestService) Leaderboard(ctx context.Context, contestID uuid.UUID) ([]LeaderboardEntry, error) {
	if _, err := s.Store.GetContest(ctx, contestID); err != nil {
		return nil, mapStoreError(err)
	}
	entries, err := s.Store.GetContestEntries(ctx, contestID, leaderboardSize)
	if err != nil {
		return nil, err
	}

	board := make([]LeaderboardEntry, 0, len(entries))
	for i, e := range entries {
		item := LeaderboardEntry{Rank: i + 1, UserID: e.UserID, Score: e.Score}
		if user, err := s.Store.GetUser(ctx, e.UserID); err == nil {
			item.Name = user.FirstName
		}
		board = append(board, item)
	}
	return board, nil
}

type CreateContestRequest struct {
	Title       string            `json:"title"`
	Description *string           `json:"description"`
	Type        model.ContestType `json:"type"`
	StartsAt    time.Time         `json:"starts_at"`
	EndsAt      time.Time         `json:"ends_at"`
	Rewards     []int64           `json:"rewards"`
}

// Create adds a contest (admin). Rewards lists the prizes for ranks 1..5.
func (s *ContestService) Create(ctx context.Context, adminID int64, req CreateContestRequest) (*model.Contest, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, validationf("title is required")
	}
	if req.Type != model.ContestTypeInvite && req.Type != model.ContestTypeAds {
		return nil, validationf("type must be invite or ads")
	}
	if !req.EndsAt.After(req.StartsAt) {
		return nil, validationf("ends_at must be after starts_at")
	}
	if len(req.Rewards) > model.ContestPrizePlaces {
		return nil, validationf("at most %d rewards", model.ContestPrizePlaces)
	}

	var rewards [model.ContestPrizePlaces]int64
	for i, r := range req.Rewards {
		if r < 0 {
			return nil, validationf("rewards must not be negative")
		}
		rewards[i] = r
	}

	contest := &model.Contest{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Reward1st:   rewards[0],
		Reward2nd:   rewards[1],
		Reward3rd:   rewards[2],
		Reward4th:   rewards[3],
		Reward5th:   rewards[4],
		IsActive:    true,
	}
	if err := s.Store.CreateContest(ctx, contest); err != nil {
		return nil, err
	}

	if err := s.Store.LogAdminAction(ctx, adminID, model.AdminActionCreateContest, nil, map[string]interface{}{
		"contest_id": contest.ID,
		"title":      contest.Title,
		"type":       contest.Type,
	}); err != nil {
		s.Log.WithError(err).Warn("failed to log admin action")
	}
	return contest, nil
}
