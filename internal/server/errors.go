package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"flowtask/internal/auth"
	"flowtask/internal/board"
	"flowtask/internal/validator"
)

var (
	errMissingToken = errors.New("missing bearer token")
	errRateLimited  = errors.New("rate limit exceeded")
)

// badRequest marks request decoding failures.
type badRequest struct{ err error }

func (e badRequest) Error() string { return e.err.Error() }
func (e badRequest) Unwrap() error { return e.err }

type apiError struct {
	Status  int               `json:"-"`
	Message string            `json:"error"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"fields,omitempty"`
}

var errorTable = []struct {
	target error
	status int
	code   string
}{
	{board.ErrNotFound, http.StatusNotFound, "not_found"},
	{board.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{board.ErrBoardTrashed, http.StatusConflict, "board_trashed"},
	{auth.ErrEmailTaken, http.StatusConflict, "email_taken"},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{auth.ErrInvalidToken, http.StatusUnauthorized, "invalid_token"},
	{errMissingToken, http.StatusUnauthorized, "invalid_token"},
	{errRateLimited, http.StatusTooManyRequests, "rate_limited"},
}

// classify maps a service error onto its HTTP representation.
func classify(err error) apiError {
	var verr *validator.Error
	if errors.As(err, &verr) {
		return apiError{Status: http.StatusBadRequest, Message: "validation failed", Code: "validation_error", Fields: verr.Fields}
	}
	var bad badRequest
	if errors.As(err, &bad) {
		return apiError{Status: http.StatusBadRequest, Message: bad.Error(), Code: "bad_request"}
	}
	for _, e := range errorTable {
		if errors.Is(err, e.target) {
			return apiError{Status: e.status, Message: e.target.Error(), Code: e.code}
		}
	}
	return apiError{Status: http.StatusInternalServerError, Message: "internal server error", Code: "server_error"}
}

// respondError aborts the request with the JSON error envelope. Server errors are logged
// with their cause; the client only sees a generic message.
func (s *Server) respondError(c *gin.Context, err error) {
	out := classify(err)
	if out.Status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()))
	}
	c.AbortWithStatusJSON(out.Status, out)
}
