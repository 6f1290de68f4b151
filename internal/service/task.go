package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/repository"
	"github.com/sirupsen/logrus"
)

type TaskService struct {
	Deps
}

func NewTaskService(d Deps) *TaskService {
	return &TaskService{Deps: d.withDefaults()}
}

type TaskReward struct {
	Points int64 `json:"points"`
	Stars  int64 `json:"stars"`
}

// CompleteTask credits the task reward once, or once per cooldown for repeatable tasks.
func (s *TaskService) CompleteTask(ctx context.Context, userID, taskID uuid.UUID) (*TaskReward, error) {
	var reward TaskReward
	err := s.Store.InTx(ctx, func(tx repository.Tx) error {
		if _, _, err := lockActiveUser(ctx, tx, userID); err != nil {
			return err
		}

		task, err := tx.GetTask(ctx, taskID)
		if err != nil {
			return mapStoreError(err)
		}
		if !task.IsActive {
			return ErrTaskNotFound
		}

		now := s.Now()
		last, err := tx.GetLastCompletion(ctx, userID, taskID)
		switch {
		case errors.Is(err, repository.ErrCompletionNotFound):
		case err != nil:
			return err
		case !task.IsRepeatable:
			return ErrAlreadyCompleted
		case last.NextAvailableAt != nil && last.NextAvailableAt.After(now):
			return ErrCooldownActive
		}

		completion := &model.UserTaskCompletion{UserID: userID, TaskID: taskID, CompletedAt: now}
		if task.IsRepeatable {
			next := now.Add(task.Cooldown())
			completion.NextAvailableAt = &next
		}
		if err := tx.CreateCompletion(ctx, completion); err != nil {
			return err
		}

		if task.RewardPoints > 0 || task.RewardStars > 0 {
			if _, err := award(ctx, tx, model.AwardParams{
				UserID:      userID,
				Points:      task.RewardPoints,
				Stars:       task.RewardStars,
				Type:        model.TransactionTypeEarn,
				Description: fmt.Sprintf("Task: %s", task.Title),
				ReferenceID: &completion.ID,
			}); err != nil {
				return err
			}
		}

		reward = TaskReward{Points: task.RewardPoints, Stars: task.RewardStars}
		return nil
	})
	if err != nil {
		return nil, reject(s.Log, "complete_task", userID, err)
	}

	s.Log.WithFields(logrus.Fields{"user_id": userID, "task_id": taskID, "points": reward.Points}).Debug("task completed")
	return &reward, nil
}

// ListForUser returns active tasks with the user's completion state.
func (s *TaskService) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.TaskWithStatus, error) {
	tasks, err := s.Store.GetActiveTasks(ctx)
	if err != nil {
		return nil, err
	}
	completions, err := s.Store.GetLatestCompletions(ctx, userID)
	if err != nil {
		return nil, err
	}

	latest := make(map[uuid.UUID]model.UserTaskCompletion, len(completions))
	for _, c := range completions {
		latest[c.TaskID] = c
	}

	now := s.Now()
	result := make([]model.TaskWithStatus, 0, len(tasks))
	for _, t := range tasks {
		item := model.TaskWithStatus{Task: t}
		if c, ok := latest[t.ID]; ok {
			if !t.IsRepeatable {
				item.Completed = true
			} else if c.NextAvailableAt != nil && c.NextAvailableAt.After(now) {
				item.Completed = true
				item.NextAvailableAt = c.NextAvailableAt
			}
		}
		result = append(result, item)
	}
	return result, nil
}

type CreateTaskRequest struct {
	Title        string         `json:"title"`
	Description  *string        `json:"description"`
	Type         model.TaskType `json:"type"`
	URL          *string        `json:"url"`
	RewardPoints int64          `json:"reward_points"`
	RewardStars  int64          `json:"reward_stars"`
	IsRepeatable bool           `json:"is_repeatable"`
	RepeatHours  int            `json:"repeat_hours"`
	SortOrder    int            `json:"sort_order"`
}

// CreateTask adds a task definition (admin).
func (s *TaskService) CreateTask(ctx context.Context, adminID int64, req CreateTaskRequest) (*model.Task, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, validationf("title is required")
	}
	if req.RewardPoints < 0 || req.RewardStars < 0 {
		return nil, validationf("rewards must not be negative")
	}
	if req.Type == "" {
		req.Type = model.TaskTypeCustom
	}
	if req.IsRepeatable && req.RepeatHours <= 0 {
		req.RepeatHours = 24
	}

	task := &model.Task{
		Title:        req.Title,
		Description:  req.Description,
		Type:         req.Type,
		URL:          req.URL,
		RewardPoints: req.RewardPoints,
		RewardStars:  req.RewardStars,
		IsRepeatable: req.IsRepeatable,
		RepeatHours:  req.RepeatHours,
		IsActive:     true,
		SortOrder:    req.SortOrder,
	}
	if err := s.Store.CreateTask(ctx, task); err != nil {
		return nil, err
	}

	if err := s.Store.LogAdminAction(ctx, adminID, model.AdminActionCreateTask, nil, map[string]interface{}{
		"task_id": task.ID,
		"title":   task.Title,
		"points":  task.RewardPoints,
	}); err != nil {
		s.Log.WithError(err).Warn("failed to log admin action")
	}
	return task, nil
}
