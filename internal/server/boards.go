package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type boardRequest struct {
	Name string `json:"name"`
}

// handleListBoards returns the caller's active boards.
func (s *Server) handleListBoards(c *gin.Context) {
	boards, err := s.boards.ListActiveBoards(c.Request.Context(), actorID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"boards": boards})
}

// handleListTrash returns the caller's trashed boards, most recently trashed first.
func (s *Server) handleListTrash(c *gin.Context) {
	boards, err := s.boards.ListTrashedBoards(c.Request.Context(), actorID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"boards": boards})
}

func (s *Server) handleCreateBoard(c *gin.Context) {
	var req boardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, badRequest{err})
		return
	}
	b, err := s.boards.CreateBoard(c.Request.Context(), actorID(c), req.Name)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"board": b})
}

func (s *Server) handleGetBoard(c *gin.Context) {
	b, err := s.boards.GetBoard(c.Request.Context(), actorID(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"board": b})
}

func (s *Server) handleRenameBoard(c *gin.Context) {
	var req boardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, badRequest{err})
		return
	}
	b, err := s.boards.RenameBoard(c.Request.Context(), actorID(c), c.Param("id"), req.Name)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"board": b})
}

// handleSoftDeleteBoard moves a board and its tasks to the trash.
func (s *Server) handleSoftDeleteBoard(c *gin.Context) {
	b, err := s.boards.SoftDeleteBoard(c.Request.Context(), actorID(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"board": b})
}

func (s *Server) handleRestoreBoard(c *gin.Context) {
	b, err := s.boards.RestoreBoard(c.Request.Context(), actorID(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"board": b})
}

// handlePurgeBoard removes a board and all of its tasks for good.
func (s *Server) handlePurgeBoard(c *gin.Context) {
	if err := s.boards.PurgeBoard(c.Request.Context(), actorID(c), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}
