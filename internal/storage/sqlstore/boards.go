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

type boardRow struct {
	ID        string       `db:"id"`
	Name      string       `db:"name"`
	OwnerID   string       `db:"owner_id"`
	State     models.State `db:"state"`
	TrashedAt *time.Time   `db:"trashed_at"`
	CreatedAt time.Time    `db:"created_at"`
	UpdatedAt time.Time    `db:"updated_at"`
}

func (r boardRow) model() (models.Board, error) {
	lc, err := models.LifecycleFromColumns(r.State, r.TrashedAt)
	if err != nil {
		return models.Board{}, fmt.Errorf("board %s: %w", r.ID, err)
	}
	return models.Board{
		ID:        r.ID,
		Name:      r.Name,
		OwnerID:   r.OwnerID,
		Lifecycle: lc,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

const boardColumns = `id, name, owner_id, state, trashed_at, created_at, updated_at`

// FindBoard fetches a single board by id.
func (s *Store) FindBoard(ctx context.Context, id string) (models.Board, error) {
	var row boardRow
	err := s.db.GetContext(ctx, &row, s.q(`SELECT `+boardColumns+` FROM boards WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Board{}, fmt.Errorf("board %s: %w", id, storage.ErrNoRecord)
	}
	if err != nil {
		return models.Board{}, fmt.Errorf("get board: %w", err)
	}
	return row.model()
}

// FindBoards lists boards matching the filter, newest first.
func (s *Store) FindBoards(ctx context.Context, f storage.BoardFilter) ([]models.Board, error) {
	conditions := []string{"owner_id = ?"}
	args := []any{f.OwnerID}
	if f.State != nil {
		conditions = append(conditions, "state = ?")
		args = append(args, string(*f.State))
	}

	sortBy := "created_at"
	if f.SortBy == "trashed_at" {
		sortBy = "trashed_at"
	}

	query := `SELECT ` + boardColumns + ` FROM boards WHERE ` + strings.Join(conditions, " AND ") +
		` ORDER BY ` + sortBy + ` DESC, id`

	var rows []boardRow
	if err := s.db.SelectContext(ctx, &rows, s.q(query), args...); err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}

	boards := make([]models.Board, 0, len(rows))
	for _, r := range rows {
		b, err := r.model()
		if err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}
	return boards, nil
}

// InsertBoard persists a new board.
func (s *Store) InsertBoard(ctx context.Context, b models.Board) error {
	state, trashedAt := b.Lifecycle.Columns()
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO boards(`+boardColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?)`),
		b.ID, b.Name, b.OwnerID, string(state), utcPtr(trashedAt), utc(b.CreatedAt), utc(b.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert board: %w", err)
	}
	return nil
}

// UpdateBoard writes the board's name. Lifecycle columns are left alone so a
// concurrent trash or restore is never overwritten by a stale copy.
func (s *Store) UpdateBoard(ctx context.Context, b models.Board) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE boards SET name = ?, updated_at = ? WHERE id = ?`),
		b.Name, utc(b.UpdatedAt), b.ID)
	if err != nil {
		return fmt.Errorf("update board: %w", err)
	}
	return expectAffected(res, "board", b.ID)
}

// SetBoardLifecycle moves a single board into the given lifecycle.
func (s *Store) SetBoardLifecycle(ctx context.Context, id string, lc models.Lifecycle, at time.Time) error {
	state, trashedAt := lc.Columns()
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE boards SET state = ?, trashed_at = ?, updated_at = ? WHERE id = ?`),
		string(state), utcPtr(trashedAt), utc(at), id)
	if err != nil {
		return fmt.Errorf("set board lifecycle: %w", err)
	}
	return expectAffected(res, "board", id)
}

// DeleteBoard removes a board row. Its tasks must already be gone.
func (s *Store) DeleteBoard(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM boards WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	return expectAffected(res, "board", id)
}

func expectAffected(res sql.Result, kind, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNoRecord)
	}
	return nil
}
