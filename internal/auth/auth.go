// Package auth registers users, checks their passwords and issues the bearer
// tokens that identify them on later requests.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"flowtask/internal/models"
	"flowtask/internal/storage"
	"flowtask/internal/validator"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
)

const (
	minPasswordLength = 6
	// bcrypt ignores everything past 72 bytes
	maxPasswordLength      = 72
	maxProfilePictureBytes = 5 << 20
)

const nameRule = "required,max=255"

var passwordRule = fmt.Sprintf("required,min=%d", minPasswordLength)

// Store is the user persistence the service needs.
type Store interface {
	FindUser(ctx context.Context, id string) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	InsertUser(ctx context.Context, u models.User) error
	UpdateUser(ctx context.Context, u models.User) error
}

// Config holds token and hashing settings.
type Config struct {
	Secret     string
	TokenTTL   time.Duration
	BcryptCost int
}

type Service struct {
	store  Store
	secret []byte
	ttl    time.Duration
	cost   int
	logger *slog.Logger
	now    func() time.Time
	// dummyHash is compared against when no account matches, so unknown emails
	// cost as much as wrong passwords.
	dummyHash   []byte
	compareHash func(hash, password []byte) error
}

func NewService(store Store, cfg Config, logger *slog.Logger) (*Service, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("empty token secret")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 30 * 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = slog.Default()
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("prepare password hashing: %w", err)
	}
	return &Service{
		store:       store,
		secret:      []byte(cfg.Secret),
		ttl:         cfg.TokenTTL,
		cost:        cfg.BcryptCost,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
		dummyHash:   dummy,
		compareHash: bcrypt.CompareHashAndPassword,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, storage.ErrUnavailable, err)
}

// Register creates a password account.
func (s *Service) Register(ctx context.Context, name, email, password string) (models.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	v := validator.New()
	v.Var(name, nameRule, "name")
	v.Email(email, "email")
	v.Var(password, passwordRule, "password")
	v.Check(len(password) <= maxPasswordLength, "password", "must be at most 72 bytes long")
	if err := v.Err(); err != nil {
		return models.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	hashed := string(hash)

	u := models.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: &hashed,
		CreatedAt:    s.now(),
	}
	if err := s.store.InsertUser(ctx, u); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, unavailable("register", err)
	}
	s.logger.Info("user registered", slog.String("user_id", u.ID))
	return u, nil
}

// Login checks the password and returns the user with a fresh token.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (models.User, string, error) {
	u, err := s.store.FindUserByEmail(ctx, normalizeEmail(email))
	if err != nil && !errors.Is(err, storage.ErrNoRecord) {
		return models.User{}, "", unavailable("login", err)
	}
	found := err == nil && u.PasswordHash != nil
	hash := s.dummyHash
	if found {
		hash = []byte(*u.PasswordHash)
	}
	if err := s.compareHash(hash, []byte(password)); err != nil || !found {
		return models.User{}, "", ErrInvalidCredentials
	}

	token, err := s.IssueToken(u.ID)
	if err != nil {
		return models.User{}, "", err
	}
	return u, token, nil
}

// Authenticate resolves a bearer token to a user that still exists.
func (s *Service) Authenticate(ctx context.Context, token string) (models.User, error) {
	userID, err := s.ParseToken(token)
	if err != nil {
		return models.User{}, err
	}
	u, err := s.store.FindUser(ctx, userID)
	if errors.Is(err, storage.ErrNoRecord) {
		return models.User{}, ErrInvalidToken
	}
	if err != nil {
		return models.User{}, unavailable("authenticate", err)
	}
	return u, nil
}

// UpdateProfilePicture stores a picture reference (URL or data URI) for the user.
func (s *Service) UpdateProfilePicture(ctx context.Context, userID, picture string) (models.User, error) {
	picture = strings.TrimSpace(picture)
	v := validator.New()
	v.Check(len(picture) <= maxProfilePictureBytes, "profile_picture", "is too large")
	if err := v.Err(); err != nil {
		return models.User{}, err
	}

	u, err := s.store.FindUser(ctx, userID)
	if errors.Is(err, storage.ErrNoRecord) {
		return models.User{}, ErrInvalidToken
	}
	if err != nil {
		return models.User{}, unavailable("profile picture", err)
	}

	u.ProfilePicture = picture
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return models.User{}, unavailable("profile picture", err)
	}
	return u, nil
}
