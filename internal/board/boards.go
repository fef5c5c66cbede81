package board

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"flowtask/internal/models"
	"flowtask/internal/storage"
	"flowtask/internal/validator"
)

const maxNameLength = 200

var nameRule = fmt.Sprintf("required,max=%d", maxNameLength)

func validateName(name string) error {
	v := validator.New()
	v.Var(name, nameRule, "name")
	return v.Err()
}

// CreateBoard creates an active board owned by the actor.
func (s *Service) CreateBoard(ctx context.Context, actorID, name string) (models.Board, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return models.Board{}, err
	}

	now := s.now()
	b := models.Board{
		ID:        uuid.New().String(),
		Name:      name,
		OwnerID:   actorID,
		Lifecycle: models.Active(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.InsertBoard(ctx, b); err != nil {
		return models.Board{}, storeErr("create board", err)
	}
	return b, nil
}

// GetBoard returns one of the actor's boards in any lifecycle state.
func (s *Service) GetBoard(ctx context.Context, actorID, boardID string) (models.Board, error) {
	return s.ownedBoard(ctx, actorID, boardID)
}

// RenameBoard changes the name of an active board.
func (s *Service) RenameBoard(ctx context.Context, actorID, boardID, name string) (models.Board, error) {
	b, err := s.activeBoard(ctx, actorID, boardID)
	if err != nil {
		return models.Board{}, err
	}

	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return models.Board{}, err
	}

	b.Name = name
	b.UpdatedAt = s.now()
	if err := s.store.UpdateBoard(ctx, b); err != nil {
		return models.Board{}, storeErr("rename board", err)
	}
	return b, nil
}

// ListActiveBoards returns the actor's boards outside the trash, newest first.
func (s *Service) ListActiveBoards(ctx context.Context, actorID string) ([]models.Board, error) {
	boards, err := s.store.FindBoards(ctx, storage.BoardFilter{
		OwnerID: actorID,
		State:   statePtr(models.StateActive),
		SortBy:  "created_at",
	})
	if err != nil {
		return nil, storeErr("list boards", err)
	}
	return boards, nil
}

// ListTrashedBoards returns the actor's trash, most recently trashed first.
func (s *Service) ListTrashedBoards(ctx context.Context, actorID string) ([]models.Board, error) {
	boards, err := s.store.FindBoards(ctx, storage.BoardFilter{
		OwnerID: actorID,
		State:   statePtr(models.StateTrashed),
		SortBy:  "trashed_at",
	})
	if err != nil {
		return nil, storeErr("list trash", err)
	}
	return boards, nil
}
