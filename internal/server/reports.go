package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleSummary(c *gin.Context) {
	summary, err := s.boards.Summary(c.Request.Context(), actorID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"summary": summary})
}
