// Package testutil provides helpers shared by package tests.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"flowtask/internal/models"
	"flowtask/internal/storage/sqlstore"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewStore creates an in-memory SQLite store with all migrations applied.
// It automatically closes the store when the test completes.
func NewStore(t *testing.T) *sqlstore.Store {
	t.Helper()

	s, err := sqlstore.Open(sqlstore.Options{Driver: sqlstore.DriverSQLite, DSN: ":memory:"}, Logger())
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// CreateUser inserts a user with a unique email and returns it.
func CreateUser(t *testing.T, s *sqlstore.Store, name string) models.User {
	t.Helper()

	u := models.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     uuid.New().String() + "@example.com",
		CreatedAt: time.Now().UTC(),
	}
	if err := s.InsertUser(context.Background(), u); err != nil {
		t.Fatalf("creating test user: %v", err)
	}
	return u
}

// Clock is a manually advanced time source.
type Clock struct {
	now time.Time
}

// NewClock starts a clock at a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)}
}

// Now returns the current instant and advances the clock by one second so
// consecutive writes get distinct timestamps.
func (c *Clock) Now() time.Time {
	t := c.now
	c.now = c.now.Add(time.Second)
	return t
}
