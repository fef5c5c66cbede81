package board

import (
	"context"
	"fmt"

	"flowtask/internal/models"
)

var welcomeTasks = []TaskInput{
	{Title: "Say hello to your first board", Description: "Move cards between columns as work progresses", Status: models.StatusTodo, Priority: models.PriorityHigh},
	{Title: "Add a task of your own", Description: "Give it a priority and a due date", Status: models.StatusTodo},
	{Title: "Start something", Description: "Cards in progress sit in the middle column", Status: models.StatusInProgress},
	{Title: "Finish something", Description: "Done cards count towards your completion rate", Status: models.StatusDone, Priority: models.PriorityLow},
}

// SeedWelcomeBoard gives a freshly registered user a board with a few sample tasks.
func (s *Service) SeedWelcomeBoard(ctx context.Context, userID string) (models.Board, error) {
	b, err := s.CreateBoard(ctx, userID, "Welcome to FlowTask")
	if err != nil {
		return models.Board{}, fmt.Errorf("seed board: %w", err)
	}
	for _, in := range welcomeTasks {
		if _, err := s.CreateTask(ctx, userID, b.ID, in); err != nil {
			return b, fmt.Errorf("seed task %q: %w", in.Title, err)
		}
	}
	return b, nil
}
