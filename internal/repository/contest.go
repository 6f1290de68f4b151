package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
)

var (
	ErrContestNotFound    = errors.New("contest not found")
	ErrAlreadyDistributed = errors.New("contest rewards already distributed")
)

func (q *queries) GetContest(ctx context.Context, id uuid.UUID) (*model.Contest, error) {
	var contest model.Contest
	err := sqlx.GetContext(ctx, q.ext, &contest, "SELECT * FROM contests WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContestNotFound
		}
		return nil, err
	}
	return &contest, nil
}

func (q *queries) CreateContest(ctx context.Context, contest *model.Contest) error {
	err := q.ext.QueryRowxContext(ctx, `
		INSERT INTO contests (title, description, type, starts_at, ends_at, reward_1st, reward_2nd, reward_3rd, reward_4th, reward_5th, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`,
		contest.Title, contest.Description, contest.Type, contest.StartsAt, contest.EndsAt,
		contest.Reward1st, contest.Reward2nd, contest.Reward3rd, contest.Reward4th, contest.Reward5th,
		contest.IsActive,
	).Scan(&contest.ID, &contest.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create contest: %w", err)
	}
	return nil
}

func (q *queries) GetActiveContests(ctx context.Context, at time.Time) ([]model.Contest, error) {
	var contests []model.Contest
	err := sqlx.SelectContext(ctx, q.ext, &contests, `
		SELECT * FROM contests
		WHERE is_active = true AND starts_at <= $1 AND ends_at > $1
		ORDER BY ends_at`, at)
	return contests, err
}

// GetDueContests returns ended, still open contests whose rewards have not been paid yet
func (q *queries) GetDueContests(ctx context.Context, at time.Time) ([]model.Contest, error) {
	var contests []model.Contest
	err := sqlx.SelectContext(ctx, q.ext, &contests, `
		SELECT * FROM contests
		WHERE rewards_distributed = false AND is_active = true AND ends_at <= $1
		ORDER BY ends_at`, at)
	return contests, err
}

// CloseContest deactivates an undistributed contest so it leaves the due list.
// An admin can still distribute it later.
func (q *queries) CloseContest(ctx context.Context, contestID uuid.UUID) error {
	_, err := q.ext.ExecContext(ctx, `
		UPDATE contests SET is_active = false
		WHERE id = $1 AND rewards_distributed = false`, contestID)
	if err != nil {
		return fmt.Errorf("failed to close contest: %w", err)
	}
	return nil
}

// ClaimContestDistribution flips rewards_distributed in a single conditional
// update. Only the first caller gets the contest back; later ones get
// ErrAlreadyDistributed. Rolling back the transaction releases the claim.
func (q *queries) ClaimContestDistribution(ctx context.Context, contestID uuid.UUID) (*model.Contest, error) {
	var contest model.Contest
	err := sqlx.GetContext(ctx, q.ext, &contest, `
		UPDATE contests SET rewards_distributed = true, is_active = false
		WHERE id = $1 AND rewards_distributed = false
		RETURNING *`, contestID)
	if err == nil {
		return &contest, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to claim contest: %w", err)
	}

	if _, err := q.GetContest(ctx, contestID); err != nil {
		return nil, err
	}
	return nil, ErrAlreadyDistributed
}

// GetContestEntries ranks entries by score. Equal scores keep the order in which
// they were reached: the entry whose score last changed earliest ranks first.
func (q *queries) GetContestEntries(ctx context.Context, contestID uuid.UUID, limit int) ([]model.ContestEntry, error) {
	var entries []model.ContestEntry
	err := sqlx.SelectContext(ctx, q.ext, &entries, `
		SELECT * FROM contest_entries
		WHERE contest_id = $1
		ORDER BY score DESC, updated_at ASC, id ASC
		LIMIT $2`, contestID, limit)
	return entries, err
}

// IncrementContestScores adds one point to the user's entry in every running
// contest of the given type, creating entries as needed. It returns the number
// of contests touched.
func (q *queries) IncrementContestScores(ctx context.Context, userID uuid.UUID, contestType model.ContestType, at time.Time) (int, error) {
	res, err := q.ext.ExecContext(ctx, `
		INSERT INTO contest_entries (contest_id, user_id, score, created_at, updated_at)
		SELECT c.id, $1, 1, $3, $3 FROM contests c
		WHERE c.type = $2 AND c.is_active = true AND c.starts_at <= $3 AND c.ends_at > $3
		ON CONFLICT (contest_id, user_id) DO UPDATE SET
			score = contest_entries.score + 1,
			updated_at = EXCLUDED.updated_at`,
		userID, contestType, at)
	if err != nil {
		return 0, fmt.Errorf("failed to update contest scores: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
