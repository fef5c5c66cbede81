// Package storage holds the errors and query filters shared by persistence backends.
package storage

import (
	"errors"

	"flowtask/internal/models"
)

var (
	// ErrNoRecord is returned when a lookup by id or key matches nothing.
	ErrNoRecord = errors.New("no matching record")
	// ErrDuplicate is returned when a write violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrUnavailable marks failures of the database itself rather than of the request.
	ErrUnavailable = errors.New("store unavailable")
)

// BoardFilter selects boards of one owner, optionally in a single lifecycle state.
// Results are ordered newest first by SortBy ("created_at" or "trashed_at").
type BoardFilter struct {
	OwnerID string
	State   *models.State
	SortBy  string
}

// TaskFilter selects tasks of one owner. Results are ordered newest first.
type TaskFilter struct {
	OwnerID string
	BoardID *string
	State   *models.State
}
