package board

import (
	"context"
	"math"

	"flowtask/internal/models"
	"flowtask/internal/storage"
)

const recentTaskLimit = 10

// ColumnCounts tallies tasks per status column.
type ColumnCounts struct {
	Todo           int `json:"todo"`
	InProgress     int `json:"in_progress"`
	Done           int `json:"done"`
	Total          int `json:"total"`
	CompletionRate int `json:"completion_rate"`
}

func (c *ColumnCounts) add(s models.Status) {
	switch s {
	case models.StatusTodo:
		c.Todo++
	case models.StatusInProgress:
		c.InProgress++
	case models.StatusDone:
		c.Done++
	}
	c.Total++
}

func (c *ColumnCounts) finish() {
	if c.Total > 0 {
		c.CompletionRate = roundHalfUp(float64(c.Done) * 100 / float64(c.Total))
	}
}

type BoardSummary struct {
	BoardID string `json:"board_id"`
	Name    string `json:"name"`
	ColumnCounts
}

// Summary is the actor's progress report over active boards.
type Summary struct {
	ColumnCounts
	ProductivityScore int            `json:"productivity_score"`
	Boards            []BoardSummary `json:"boards"`
	RecentTasks       []models.Task  `json:"recent_tasks"`
}

// Summary builds per-board and overall column counts, a weighted productivity
// score and the most recently created tasks.
func (s *Service) Summary(ctx context.Context, actorID string) (Summary, error) {
	boards, err := s.ListActiveBoards(ctx, actorID)
	if err != nil {
		return Summary{}, err
	}
	tasks, err := s.store.FindTasks(ctx, storage.TaskFilter{
		OwnerID: actorID,
		State:   statePtr(models.StateActive),
	})
	if err != nil {
		return Summary{}, storeErr("summary tasks", err)
	}

	perBoard := make(map[string]*BoardSummary, len(boards))
	out := Summary{Boards: make([]BoardSummary, 0, len(boards))}
	for _, b := range boards {
		perBoard[b.ID] = &BoardSummary{BoardID: b.ID, Name: b.Name}
	}

	recent := make([]models.Task, 0, recentTaskLimit)
	for _, t := range tasks {
		bs, ok := perBoard[t.BoardID]
		if !ok {
			continue
		}
		bs.add(t.Status)
		out.add(t.Status)
		// tasks arrive newest first
		if len(recent) < recentTaskLimit {
			recent = append(recent, t)
		}
	}

	for _, b := range boards {
		bs := perBoard[b.ID]
		bs.finish()
		out.Boards = append(out.Boards, *bs)
	}
	out.finish()
	if out.Total > 0 {
		weighted := float64(out.Done)*3 + float64(out.InProgress)*1.5 + float64(out.Todo)*0.5
		out.ProductivityScore = roundHalfUp(weighted / float64(out.Total))
	}
	out.RecentTasks = recent
	return out, nil
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
