package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"flowtask/internal/models"
	"flowtask/internal/storage"
)

type taskRow struct {
	ID          string          `db:"id"`
	BoardID     string          `db:"board_id"`
	OwnerID     string          `db:"owner_id"`
	Title       string          `db:"title"`
	Description string          `db:"description"`
	Status      models.Status   `db:"status"`
	Priority    models.Priority `db:"priority"`
	DueDate     *time.Time      `db:"due_date"`
	State       models.State    `db:"state"`
	TrashedAt   *time.Time      `db:"trashed_at"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

func (r taskRow) model() (models.Task, error) {
	lc, err := models.LifecycleFromColumns(r.State, r.TrashedAt)
	if err != nil {
		return models.Task{}, fmt.Errorf("task %s: %w", r.ID, err)
	}
	return models.Task{
		ID:          r.ID,
		BoardID:     r.BoardID,
		OwnerID:     r.OwnerID,
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Priority:    r.Priority,
		DueDate:     r.DueDate,
		Lifecycle:   lc,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

const taskColumns = `id, board_id, owner_id, title, description, status, priority, due_date, state, trashed_at, created_at, updated_at`

// FindTask retrieves a task by id.
func (s *Store) FindTask(ctx context.Context, id string) (models.Task, error) {
	var row taskRow
	err := s.db.GetContext(ctx, &row, s.q(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, fmt.Errorf("task %s: %w", id, storage.ErrNoRecord)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return row.model()
}

// FindTasks returns tasks matching the filter ordered by creation date, newest first.
func (s *Store) FindTasks(ctx context.Context, f storage.TaskFilter) ([]models.Task, error) {
	conditions := []string{"owner_id = ?"}
	args := []any{f.OwnerID}
	if f.BoardID != nil {
		conditions = append(conditions, "board_id = ?")
		args = append(args, *f.BoardID)
	}
	if f.State != nil {
		conditions = append(conditions, "state = ?")
		args = append(args, string(*f.State))
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + strings.Join(conditions, " AND ") +
		` ORDER BY created_at DESC, id`

	var rows []taskRow
	if err := s.db.SelectContext(ctx, &rows, s.q(query), args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	tasks := make([]models.Task, 0, len(rows))
	for _, r := range rows {
		t, err := r.model()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// InsertTask persists a new task.
func (s *Store) InsertTask(ctx context.Context, t models.Task) error {
	state, trashedAt := t.Lifecycle.Columns()
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO tasks(`+taskColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		t.ID, t.BoardID, t.OwnerID, t.Title, t.Description, string(t.Status), string(t.Priority),
		utcPtr(t.DueDate), string(state), utcPtr(trashedAt), utc(t.CreatedAt), utc(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// UpdateTask writes the editable task fields. Lifecycle is only changed through
// SetBoardTasksLifecycle.
func (s *Store) UpdateTask(ctx context.Context, t models.Task) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE tasks SET board_id = ?, owner_id = ?, title = ?, description = ?,
		status = ?, priority = ?, due_date = ?, updated_at = ? WHERE id = ?`),
		t.BoardID, t.OwnerID, t.Title, t.Description, string(t.Status), string(t.Priority),
		utcPtr(t.DueDate), utc(t.UpdatedAt), t.ID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return expectAffected(res, "task", t.ID)
}

// SetBoardTasksLifecycle moves every task of a board into the given lifecycle in one statement.
// It is unconditional so re-running it after a partial failure converges.
func (s *Store) SetBoardTasksLifecycle(ctx context.Context, boardID string, lc models.Lifecycle, at time.Time) (int64, error) {
	state, trashedAt := lc.Columns()
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE tasks SET state = ?, trashed_at = ?, updated_at = ? WHERE board_id = ?`),
		string(state), utcPtr(trashedAt), utc(at), boardID)
	if err != nil {
		return 0, fmt.Errorf("update board tasks: %w", err)
	}
	return res.RowsAffected()
}

// DeleteTask removes a task by id.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM tasks WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return expectAffected(res, "task", id)
}

// DeleteBoardTasks removes every task of a board.
func (s *Store) DeleteBoardTasks(ctx context.Context, boardID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM tasks WHERE board_id = ?`), boardID)
	if err != nil {
		return 0, fmt.Errorf("delete board tasks: %w", err)
	}
	return res.RowsAffected()
}
