package board

import (
	"context"
	"log/slog"

	"flowtask/internal/models"
)

// SoftDeleteBoard moves a board and all of its tasks to the trash.
// Calling it again on a trashed board refreshes the timestamp and re-runs the task cascade.
func (s *Service) SoftDeleteBoard(ctx context.Context, actorID, boardID string) (models.Board, error) {
	b, err := s.ownedBoard(ctx, actorID, boardID)
	if err != nil {
		return models.Board{}, err
	}
	return s.transition(ctx, b, true)
}

// RestoreBoard brings a trashed board and all of its tasks back.
// On an already active board it only re-runs the task cascade.
func (s *Service) RestoreBoard(ctx context.Context, actorID, boardID string) (models.Board, error) {
	b, err := s.ownedBoard(ctx, actorID, boardID)
	if err != nil {
		return models.Board{}, err
	}
	return s.transition(ctx, b, false)
}

// transition writes the board first, then moves every task of the board with one
// set-wide update. There is no transaction: if the second write fails the board
// keeps its new state and the caller repeats the operation to converge.
func (s *Service) transition(ctx context.Context, b models.Board, trash bool) (models.Board, error) {
	now := s.now()
	lc := models.Active()
	if trash {
		lc = models.Trashed(now)
	}
	b.Lifecycle = lc
	b.UpdatedAt = now
	if err := s.store.SetBoardLifecycle(ctx, b.ID, lc, now); err != nil {
		return models.Board{}, storeErr("update board lifecycle", err)
	}

	affected, err := s.store.SetBoardTasksLifecycle(ctx, b.ID, lc, now)
	if err != nil {
		s.logger.Warn("task cascade incomplete",
			slog.String("board_id", b.ID),
			slog.String("state", string(lc.State())),
			slog.String("error", err.Error()))
		return models.Board{}, storeErr("cascade to tasks", err)
	}

	s.logger.Info("board lifecycle changed",
		slog.String("board_id", b.ID),
		slog.String("state", string(lc.State())),
		slog.Int64("tasks", affected))
	return b, nil
}

// PurgeBoard irreversibly deletes a board and its tasks, from either state.
// Tasks go first so a failure never leaves tasks pointing at a missing board.
func (s *Service) PurgeBoard(ctx context.Context, actorID, boardID string) error {
	b, err := s.ownedBoard(ctx, actorID, boardID)
	if err != nil {
		return err
	}

	affected, err := s.store.DeleteBoardTasks(ctx, b.ID)
	if err != nil {
		return storeErr("purge tasks", err)
	}
	if err := s.store.DeleteBoard(ctx, b.ID); err != nil {
		return storeErr("purge board", err)
	}

	s.logger.Info("board purged", slog.String("board_id", b.ID), slog.Int64("tasks", affected))
	return nil
}
