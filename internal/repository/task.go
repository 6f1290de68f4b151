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

var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrCompletionNotFound = errors.New("task completion not found")
)

func (q *queries) GetTask(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	err := sqlx.GetContext(ctx, q.ext, &task, "SELECT * FROM tasks WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (q *queries) GetActiveTasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	err := sqlx.SelectContext(ctx, q.ext, &tasks,
		"SELECT * FROM tasks WHERE is_active = true ORDER BY sort_order, created_at")
	return tasks, err
}

func (q *queries) CreateTask(ctx context.Context, task *model.Task) error {
	err := q.ext.QueryRowxContext(ctx, `
		INSERT INTO tasks (title, description, type, url, reward_points, reward_stars, is_repeatable, repeat_hours, is_active, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`,
		task.Title, task.Description, task.Type, task.URL, task.RewardPoints, task.RewardStars,
		task.IsRepeatable, task.RepeatHours, task.IsActive, task.SortOrder,
	).Scan(&task.ID, &task.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// GetLastCompletion returns the most recent completion of a task by a user
func (q *queries) GetLastCompletion(ctx context.Context, userID, taskID uuid.UUID) (*model.UserTaskCompletion, error) {
	var completion model.UserTaskCompletion
	err := sqlx.GetContext(ctx, q.ext, &completion, `
		SELECT * FROM user_task_completions
		WHERE user_id = $1 AND task_id = $2
		ORDER BY completed_at DESC
		LIMIT 1`, userID, taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompletionNotFound
		}
		return nil, err
	}
	return &completion, nil
}

func (q *queries) CreateCompletion(ctx context.Context, completion *model.UserTaskCompletion) error {
	err := q.ext.QueryRowxContext(ctx, `
		INSERT INTO user_task_completions (user_id, task_id, completed_at, next_available_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		completion.UserID, completion.TaskID, completion.CompletedAt, completion.NextAvailableAt,
	).Scan(&completion.ID)
	if err != nil {
		return fmt.Errorf("failed to record task completion: %w", err)
	}
	return nil
}

// GetLatestCompletions returns the newest completion per task for a user
func (q *queries) GetLatestCompletions(ctx context.Context, userID uuid.UUID) ([]model.UserTaskCompletion, error) {
	var completions []model.UserTaskCompletion
	err := sqlx.SelectContext(ctx, q.ext, &completions, `
		SELECT DISTINCT ON (task_id) * FROM user_task_completions
		WHERE user_id = $1
		ORDER BY task_id, completed_at DESC`, userID)
	return completions, err
}
