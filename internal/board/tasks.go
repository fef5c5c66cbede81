package board

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"flowtask/internal/models"
	"flowtask/internal/storage"
	"flowtask/internal/validator"
)

const maxTitleLength = 500

// TaskInput carries the fields of a new task. Empty status and priority take their defaults.
type TaskInput struct {
	Title       string
	Description string
	Status      models.Status
	Priority    models.Priority
	DueDate     *time.Time
}

// TaskPatch lists the fields to change; nil means unchanged.
// ClearDueDate removes the due date and wins over DueDate.
type TaskPatch struct {
	Title        *string
	Description  *string
	Status       *models.Status
	Priority     *models.Priority
	DueDate      *time.Time
	ClearDueDate bool
	BoardID      *string
}

var (
	titleRule    = fmt.Sprintf("required,max=%d", maxTitleLength)
	statusRule   = validator.OneOf(models.Statuses...)
	priorityRule = validator.OneOf(models.Priorities...)
)

func checkTitle(v *validator.Validator, title string) {
	v.Var(title, titleRule, "title")
}

func checkStatus(v *validator.Validator, s models.Status) {
	v.Var(string(s), statusRule, "status")
}

func checkPriority(v *validator.Validator, p models.Priority) {
	v.Var(string(p), priorityRule, "priority")
}

// CreateTask adds a task to one of the actor's active boards.
func (s *Service) CreateTask(ctx context.Context, actorID, boardID string, in TaskInput) (models.Task, error) {
	v := validator.New()
	v.Required(boardID, "board_id")
	if err := v.Err(); err != nil {
		return models.Task{}, err
	}

	b, err := s.activeBoard(ctx, actorID, boardID)
	if err != nil {
		return models.Task{}, err
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Status == "" {
		in.Status = models.StatusTodo
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	checkTitle(v, in.Title)
	checkStatus(v, in.Status)
	checkPriority(v, in.Priority)
	if err := v.Err(); err != nil {
		return models.Task{}, err
	}

	now := s.now()
	t := models.Task{
		ID:          uuid.New().String(),
		BoardID:     b.ID,
		OwnerID:     b.OwnerID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		Lifecycle:   models.Active(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.InsertTask(ctx, t); err != nil {
		return models.Task{}, storeErr("create task", err)
	}
	return t, nil
}

// GetTask returns one of the actor's tasks.
func (s *Service) GetTask(ctx context.Context, actorID, taskID string) (models.Task, error) {
	return s.ownedTask(ctx, actorID, taskID)
}

// UpdateTask applies a patch to a task on an active board. Moving the task to another
// board requires that board to be owned by the actor and active too.
func (s *Service) UpdateTask(ctx context.Context, actorID, taskID string, patch TaskPatch) (models.Task, error) {
	t, err := s.ownedTask(ctx, actorID, taskID)
	if err != nil {
		return models.Task{}, err
	}
	if _, err := s.activeBoard(ctx, actorID, t.BoardID); err != nil {
		return models.Task{}, err
	}

	v := validator.New()
	if patch.Title != nil {
		t.Title = strings.TrimSpace(*patch.Title)
		checkTitle(v, t.Title)
	}
	if patch.Description != nil {
		t.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Status != nil {
		t.Status = *patch.Status
		checkStatus(v, t.Status)
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
		checkPriority(v, t.Priority)
	}
	if patch.BoardID != nil {
		v.Required(*patch.BoardID, "board_id")
	}
	if err := v.Err(); err != nil {
		return models.Task{}, err
	}

	switch {
	case patch.ClearDueDate:
		t.DueDate = nil
	case patch.DueDate != nil:
		t.DueDate = patch.DueDate
	}

	if patch.BoardID != nil && *patch.BoardID != t.BoardID {
		dest, err := s.activeBoard(ctx, actorID, *patch.BoardID)
		if err != nil {
			return models.Task{}, err
		}
		t.BoardID = dest.ID
		t.OwnerID = dest.OwnerID
	}

	t.UpdatedAt = s.now()
	if err := s.store.UpdateTask(ctx, t); err != nil {
		return models.Task{}, storeErr("update task", err)
	}
	return t, nil
}

// DeleteTask permanently removes a task. It is allowed while the board is trashed.
func (s *Service) DeleteTask(ctx context.Context, actorID, taskID string) error {
	t, err := s.ownedTask(ctx, actorID, taskID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTask(ctx, t.ID); err != nil {
		return storeErr("delete task", err)
	}
	return nil
}

// ListTasks returns the actor's active tasks, newest first, optionally for one board.
func (s *Service) ListTasks(ctx context.Context, actorID string, boardID *string) ([]models.Task, error) {
	if boardID != nil {
		if _, err := s.ownedBoard(ctx, actorID, *boardID); err != nil {
			return nil, err
		}
	}

	tasks, err := s.store.FindTasks(ctx, storage.TaskFilter{
		OwnerID: actorID,
		BoardID: boardID,
		State:   statePtr(models.StateActive),
	})
	if err != nil {
		return nil, storeErr("list tasks", err)
	}
	return tasks, nil
}
