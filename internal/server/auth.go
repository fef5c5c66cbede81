package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profilePictureRequest struct {
	ProfilePicture string `json:"profile_picture"`
}

// handleRegister creates the account, seeds its welcome board and signs the user in.
func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, badRequest{err})
		return
	}

	ctx := c.Request.Context()
	user, err := s.users.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if _, err := s.boards.SeedWelcomeBoard(ctx, user.ID); err != nil {
		s.logger.Warn("welcome board not created", slog.String("user_id", user.ID), slog.String("error", err.Error()))
	}

	token, err := s.users.IssueToken(user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"user": user, "token": token})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, badRequest{err})
		return
	}
	user, token, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"user": user, "token": token})
}

func (s *Server) handleMe(c *gin.Context) {
	respondSuccess(c, http.StatusOK, gin.H{"user": currentUser(c)})
}

func (s *Server) handleProfilePicture(c *gin.Context) {
	var req profilePictureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, badRequest{err})
		return
	}
	user, err := s.users.UpdateProfilePicture(c.Request.Context(), actorID(c), req.ProfilePicture)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"user": user})
}
