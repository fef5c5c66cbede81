package board

import (
	"context"
	"errors"

	"flowtask/internal/models"
	"flowtask/internal/storage"
)

type owned interface {
	Owner() string
}

// authorize decides access to an entity loaded by id. A missing record is always
// NotFound, checked before ownership; a record owned by someone else is Unauthorized.
func authorize(actorID string, entity owned, lookupErr error) error {
	if lookupErr != nil {
		if errors.Is(lookupErr, storage.ErrNoRecord) {
			return ErrNotFound
		}
		return storeErr("lookup", lookupErr)
	}
	if entity.Owner() != actorID {
		return ErrUnauthorized
	}
	return nil
}

func (s *Service) ownedBoard(ctx context.Context, actorID, boardID string) (models.Board, error) {
	b, err := s.store.FindBoard(ctx, boardID)
	if err := authorize(actorID, b, err); err != nil {
		return models.Board{}, err
	}
	return b, nil
}

// activeBoard is ownedBoard plus the requirement that the board is not in the trash.
func (s *Service) activeBoard(ctx context.Context, actorID, boardID string) (models.Board, error) {
	b, err := s.ownedBoard(ctx, actorID, boardID)
	if err != nil {
		return models.Board{}, err
	}
	if !b.Lifecycle.IsActive() {
		return models.Board{}, ErrBoardTrashed
	}
	return b, nil
}

func (s *Service) ownedTask(ctx context.Context, actorID, taskID string) (models.Task, error) {
	t, err := s.store.FindTask(ctx, taskID)
	if err := authorize(actorID, t, err); err != nil {
		return models.Task{}, err
	}
	return t, nil
}
