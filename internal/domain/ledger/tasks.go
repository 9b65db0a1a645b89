package ledger

import (
	"context"
	"strings"
)

func (s *Service) AddTask(ctx context.Context, input CreateTaskInput) (result *Task, err error) {
	ctx, done := s.observe(ctx, "add_task")
	defer done(&err)

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, validationError("title is required")
	}
	if input.Reward.IsNegative() {
		return nil, validationError("reward must be non-negative")
	}

	status := input.Status
	if status == "" {
		status = TaskStatusPending
	}
	if status != TaskStatusPending && status != TaskStatusCompleted {
		return nil, validationError("task must start as pending or completed")
	}

	var task Task
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		children, err := tx.ListChildren(ctx)
		if err != nil {
			return err
		}
		if findChild(children, input.ChildID) < 0 {
			return ErrChildNotFound
		}

		tasks, err := tx.ListTasks(ctx)
		if err != nil {
			return err
		}

		now := s.now()
		task = Task{
			ID:          nextTaskID(tasks),
			ChildID:     input.ChildID,
			Title:       title,
			Description: strings.TrimSpace(input.Description),
			Reward:      input.Reward,
			Status:      status,
			CreatedAt:   now,
		}
		if status == TaskStatusCompleted {
			task.CompletedAt = &now
		}
		return tx.SaveTasks(ctx, append(tasks, task))
	})
	if err != nil {
		return nil, err
	}

	return &task, nil
}

// UpdateTask merges the given fields. Title, description and reward may only
// change while the task is pending; a status change must move exactly one
// step forward along pending → completed → approved.
func (s *Service) UpdateTask(ctx context.Context, id int64, input UpdateTaskInput) (result *Task, err error) {
	ctx, done := s.observe(ctx, "update_task")
	defer done(&err)

	if input.Title == nil && input.Description == nil && input.Reward == nil && input.Status == nil {
		return nil, validationError("no fields to update")
	}
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return nil, validationError("title is required")
	}
	if input.Reward != nil && input.Reward.IsNegative() {
		return nil, validationError("reward must be non-negative")
	}
	if input.Status != nil && !validTaskStatus(*input.Status) {
		return nil, validationError("unknown task status %q", *input.Status)
	}

	var (
		updated Task
		entry   *HistoryEntry
	)
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		tasks, err := tx.ListTasks(ctx)
		if err != nil {
			return err
		}
		idx := findTask(tasks, id)
		if idx < 0 {
			return ErrTaskNotFound
		}
		task := tasks[idx]

		if input.Title != nil || input.Description != nil || input.Reward != nil {
			if task.Status != TaskStatusPending {
				return ErrInvalidState
			}
			if input.Title != nil {
				task.Title = strings.TrimSpace(*input.Title)
			}
			if input.Description != nil {
				task.Description = strings.TrimSpace(*input.Description)
			}
			if input.Reward != nil {
				task.Reward = *input.Reward
			}
		}

		if input.Status != nil {
			switch {
			case task.Status == TaskStatusPending && *input.Status == TaskStatusCompleted:
				now := s.now()
				task.Status = TaskStatusCompleted
				task.CompletedAt = &now
			case task.Status == TaskStatusCompleted && *input.Status == TaskStatusApproved:
				credited, err := s.creditTaskReward(ctx, tx, &task)
				if err != nil {
					return err
				}
				entry = credited
			default:
				return ErrInvalidState
			}
		}

		tasks[idx] = task
		updated = task
		return tx.SaveTasks(ctx, tasks)
	})
	if err != nil {
		return nil, err
	}

	if entry != nil {
		s.recorder.ObserveBalanceChange(string(entry.Kind), entry.Amount.InexactFloat64())
	}
	return &updated, nil
}

// CompleteTask marks a pending task as done by the child. No money moves
// until a parent approves it.
func (s *Service) CompleteTask(ctx context.Context, id int64) (*Task, error) {
	status := TaskStatusCompleted
	return s.UpdateTask(ctx, id, UpdateTaskInput{Status: &status})
}

// ApproveTask credits the reward of a completed task.
func (s *Service) ApproveTask(ctx context.Context, id int64) (*Task, error) {
	status := TaskStatusApproved
	return s.UpdateTask(ctx, id, UpdateTaskInput{Status: &status})
}

func (s *Service) GetTask(ctx context.Context, id int64) (*Task, error) {
	tasks, err := s.repo.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	idx := findTask(tasks, id)
	if idx < 0 {
		return nil, ErrTaskNotFound
	}
	task := tasks[idx]
	return &task, nil
}

func (s *Service) ListTasksByChild(ctx context.Context, childID int64) ([]Task, error) {
	tasks, err := s.repo.ListTasks(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]Task, 0)
	for _, task := range tasks {
		if task.ChildID == childID {
			result = append(result, task)
		}
	}
	return result, nil
}

func (s *Service) creditTaskReward(ctx context.Context, tx Repository, task *Task) (*HistoryEntry, error) {
	children, err := tx.ListChildren(ctx)
	if err != nil {
		return nil, err
	}
	idx := findChild(children, task.ChildID)
	if idx < 0 {
		return nil, ErrChildNotFound
	}

	now := s.now()
	child := children[idx]
	child.Balance = child.Balance.Add(task.Reward)
	child.TasksCompleted++
	children[idx] = child

	task.Status = TaskStatusApproved
	task.ApprovedAt = &now

	entry, err := s.appendHistory(ctx, tx, child, EntryKindTaskReward, task.Title, task.Reward)
	if err != nil {
		return nil, err
	}
	if err := tx.SaveChildren(ctx, children); err != nil {
		return nil, err
	}
	return entry, nil
}

func validTaskStatus(status TaskStatus) bool {
	switch status {
	case TaskStatusPending, TaskStatusCompleted, TaskStatusApproved:
		return true
	}
	return false
}

func findTask(tasks []Task, id int64) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func nextTaskID(tasks []Task) int64 {
	var maxID int64
	for _, task := range tasks {
		if task.ID > maxID {
			maxID = task.ID
		}
	}
	return maxID + 1
}
