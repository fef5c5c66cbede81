package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"flowtask/internal/models"
	"flowtask/internal/storage"
)

type userRow struct {
	ID             string    `db:"id"`
	Name           string    `db:"name"`
	Email          string    `db:"email"`
	PasswordHash   *string   `db:"password_hash"`
	ProfilePicture string    `db:"profile_picture"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r userRow) model() models.User {
	return models.User(r)
}

const userColumns = `id, name, email, password_hash, profile_picture, created_at`

// FindUser fetches a user by id.
func (s *Store) FindUser(ctx context.Context, id string) (models.User, error) {
	return s.findUserBy(ctx, "id", id)
}

// FindUserByEmail fetches a user by the exact (already normalized) email.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findUserBy(ctx, "email", email)
}

func (s *Store) findUserBy(ctx context.Context, column, value string) (models.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, s.q(`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`), value)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user: %w", storage.ErrNoRecord)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return row.model(), nil
}

// InsertUser persists a new user. A taken email yields storage.ErrDuplicate.
func (s *Store) InsertUser(ctx context.Context, u models.User) error {
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO users(`+userColumns+`) VALUES(?, ?, ?, ?, ?, ?)`),
		u.ID, u.Name, u.Email, u.PasswordHash, u.ProfilePicture, utc(u.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert user %s: %w", u.Email, storage.ErrDuplicate)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// UpdateUser writes the user's name and profile picture.
func (s *Store) UpdateUser(ctx context.Context, u models.User) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE users SET name = ?, profile_picture = ? WHERE id = ?`),
		u.Name, u.ProfilePicture, u.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return expectAffected(res, "user", u.ID)
}
