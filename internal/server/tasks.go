package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"flowtask/internal/board"
	"flowtask/internal/models"
)

// optionalDate tells an absent due_date apart from an explicit null.
type optionalDate struct {
	set   bool
	value *time.Time
}

func (d *optionalDate) UnmarshalJSON(data []byte) error {
	d.set = true
	if string(data) == "null" {
		d.value = nil
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("due_date: %w", err)
	}
	if raw == "" {
		d.value = nil
		return nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			d.value = &t
			return nil
		}
	}
	return fmt.Errorf("due_date: %q is not a date", raw)
}

type taskRequest struct {
	BoardID     *string      `json:"board_id"`
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	Status      *string      `json:"status"`
	Priority    *string      `json:"priority"`
	DueDate     optionalDate `json:"due_date"`
}

func (r taskRequest) input() board.TaskInput {
	return board.TaskInput{
		Title:       getString(r.Title),
		Description: getString(r.Description),
		Status:      models.Status(getString(r.Status)),
		Priority:    models.Priority(getString(r.Priority)),
		DueDate:     r.DueDate.value,
	}
}

func (r taskRequest) patch() board.TaskPatch {
	p := board.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		BoardID:     r.BoardID,
	}
	if r.Status != nil {
		st := models.Status(*r.Status)
		p.Status = &st
	}
	if r.Priority != nil {
		pr := models.Priority(*r.Priority)
		p.Priority = &pr
	}
	if r.DueDate.set {
		p.DueDate = r.DueDate.value
		p.ClearDueDate = r.DueDate.value == nil
	}
	return p
}

// handleListTasks returns the caller's active tasks, optionally for one board.
func (s *Server) handleListTasks(c *gin.Context) {
	var boardID *string
	if id, ok := c.GetQuery("board_id"); ok {
		boardID = &id
	}
	tasks, err := s.boards.ListTasks(c.Request.Context(), actorID(c), boardID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"tasks": tasks})
}

// handleCreateTask inserts a new task into a board column.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, badRequest{err})
		return
	}
	task, err := s.boards.CreateTask(c.Request.Context(), actorID(c), getString(req.BoardID), req.input())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"task": task})
}

func (s *Server) handleGetTask(c *gin.Context) {
	task, err := s.boards.GetTask(c.Request.Context(), actorID(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleUpdateTask applies the fields present in the body; a null due_date clears it.
func (s *Server) handleUpdateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, badRequest{err})
		return
	}
	task, err := s.boards.UpdateTask(c.Request.Context(), actorID(c), c.Param("id"), req.patch())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleDeleteTask removes a task completely.
func (s *Server) handleDeleteTask(c *gin.Context) {
	if err := s.boards.DeleteTask(c.Request.Context(), actorID(c), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

func getString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
