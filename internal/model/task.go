package model

import (
	"time"

	"github.com/google/uuid"
)

type TaskType string

const (
	TaskTypeSocial  TaskType = "social"
	TaskTypeChannel TaskType = "channel"
	TaskTypeDaily   TaskType = "daily"
	TaskTypeAd      TaskType = "ad"
	TaskTypeCustom  TaskType = "custom"
)

type Task struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	Description  *string   `json:"description,omitempty" db:"description"`
	Type         TaskType  `json:"type" db:"type"`
	URL          *string   `json:"url,omitempty" db:"url"`
	RewardPoints int64     `json:"reward_points" db:"reward_points"`
	RewardStars  int64     `json:"reward_stars" db:"reward_stars"`
	IsRepeatable bool      `json:"is_repeatable" db:"is_repeatable"`
	RepeatHours  int       `json:"repeat_hours" db:"repeat_hours"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	SortOrder    int       `json:"sort_order" db:"sort_order"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Cooldown is the wait between two completions of a repeatable task.
func (t *Task) Cooldown() time.Duration {
	return time.Duration(t.RepeatHours) * time.Hour
}

type UserTaskCompletion struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	UserID          uuid.UUID  `json:"user_id" db:"user_id"`
	TaskID          uuid.UUID  `json:"task_id" db:"task_id"`
	CompletedAt     time.Time  `json:"completed_at" db:"completed_at"`
	NextAvailableAt *time.Time `json:"next_available_at,omitempty" db:"next_available_at"`
}

// TaskWithStatus is a task as seen by one user.
type TaskWithStatus struct {
	Task
	Completed       bool       `json:"completed"`
	NextAvailableAt *time.Time `json:"next_available_at,omitempty"`
}
