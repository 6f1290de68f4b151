package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
)

func (q *queries) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	err := sqlx.GetContext(ctx, q.ext, &user, "SELECT * FROM users WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (q *queries) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var user model.User
	err := sqlx.GetContext(ctx, q.ext, &user, "SELECT * FROM users WHERE telegram_id = $1", telegramID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (q *queries) GetUserByReferralCode(ctx context.Context, code string) (*model.User, error) {
	var user model.User
	err := sqlx.GetContext(ctx, q.ext, &user, "SELECT * FROM users WHERE referral_code = $1", code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts the user together with an empty balance row.
// A second account for the same Telegram id yields ErrAlreadyExists.
func (q *queries) CreateUser(ctx context.Context, user *model.User) error {
	err := q.ext.QueryRowxContext(ctx, `
		INSERT INTO users (telegram_id, username, first_name, last_name, photo_url, language_code, referral_code, referred_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, total_points, level, created_at, updated_at`,
		user.TelegramID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.PhotoURL,
		user.LanguageCode,
		user.ReferralCode,
		user.ReferredBy,
	).Scan(&user.ID, &user.TotalPoints, &user.Level, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	if _, err := q.ext.ExecContext(ctx, "INSERT INTO balances (user_id) VALUES ($1)", user.ID); err != nil {
		return fmt.Errorf("failed to create balance: %w", err)
	}
	return nil
}

func (q *queries) UpdateUserProfile(ctx context.Context, user *model.User) error {
	_, err := q.ext.ExecContext(ctx, `
		UPDATE users SET
			username = $2,
			first_name = $3,
			last_name = $4,
			photo_url = $5,
			language_code = $6,
			updated_at = NOW()
		WHERE id = $1`,
		user.ID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.PhotoURL,
		user.LanguageCode,
	)
	return err
}

func (q *queries) SetUserBanned(ctx context.Context, id uuid.UUID, banned bool) error {
	res, err := q.ext.ExecContext(ctx,
		"UPDATE users SET is_banned = $2, updated_at = NOW() WHERE id = $1", id, banned)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}
