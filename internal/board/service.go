// Package board implements boards and tasks for a single owner: ownership checks,
// field validation and the trash/restore/purge lifecycle of boards.
package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"flowtask/internal/models"
	"flowtask/internal/storage"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("not authorized")
	ErrBoardTrashed     = errors.New("board is in the trash")
	ErrStoreUnavailable = storage.ErrUnavailable
)

// Store is the persistence the service needs. Lookups report storage.ErrNoRecord for unknown ids.
// UpdateBoard and UpdateTask never write lifecycle columns; only the Set*Lifecycle calls do.
type Store interface {
	FindBoard(ctx context.Context, id string) (models.Board, error)
	FindBoards(ctx context.Context, f storage.BoardFilter) ([]models.Board, error)
	InsertBoard(ctx context.Context, b models.Board) error
	UpdateBoard(ctx context.Context, b models.Board) error
	SetBoardLifecycle(ctx context.Context, id string, lc models.Lifecycle, at time.Time) error
	DeleteBoard(ctx context.Context, id string) error

	FindTask(ctx context.Context, id string) (models.Task, error)
	FindTasks(ctx context.Context, f storage.TaskFilter) ([]models.Task, error)
	InsertTask(ctx context.Context, t models.Task) error
	UpdateTask(ctx context.Context, t models.Task) error
	SetBoardTasksLifecycle(ctx context.Context, boardID string, lc models.Lifecycle, at time.Time) (int64, error)
	DeleteTask(ctx context.Context, id string) error
	DeleteBoardTasks(ctx context.Context, boardID string) (int64, error)
}

// Service exposes board and task operations on behalf of an authenticated actor.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Service)

// WithClock replaces the time source used for created/updated/trashed timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// storeErr classifies a failed store call. A record vanishing between the
// guard and the write reads as NotFound; everything else is an outage.
func storeErr(op string, err error) error {
	if errors.Is(err, storage.ErrNoRecord) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

func statePtr(s models.State) *models.State { return &s }
