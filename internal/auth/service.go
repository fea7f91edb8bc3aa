// Package auth signs users in against local accounts and issues session
// tokens.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/trgovina/internal/model"
	"github.com/erazemk/trgovina/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserExists         = errors.New("an account with this email already exists")
	ErrInvalidEmail       = errors.New("enter a valid email address")
	ErrNameRequired       = errors.New("name is required")
	ErrPasswordMismatch   = errors.New("passwords do not match")
)

// UserRepository finds and creates local accounts.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, username, email, passwordHash, role string) (*model.User, error)
}

// Credentials is a sign-in attempt.
type Credentials struct {
	Email    string
	Password string
}

// Registration is a customer sign-up form.
type Registration struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// Session is a signed-in user and the token that proves it.
type Session struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// Service authenticates and registers users.
type Service struct {
	Users  UserRepository
	Secret string
	// Cost is the bcrypt cost for new passwords; zero means bcrypt.DefaultCost.
	Cost   int
	Logger *slog.Logger
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Authenticate checks credentials and issues a session. Unknown, deleted
// and wrong-password accounts all fail with ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, c Credentials) (*Session, error) {
	user, err := s.Users.FindByEmail(ctx, c.Email)
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if user == nil || user.DeletedAt != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(c.Password)); err != nil {
		s.logger().Warn("failed login", "email", user.Email)
		return nil, ErrInvalidCredentials
	}

	token, claims, err := GenerateToken(s.Secret, user)
	if err != nil {
		return nil, err
	}
	s.logger().Info("user logged in", "user_id", user.ID, "role", user.Role)
	return &Session{User: user, Token: token, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Register creates a customer account.
func (s *Service) Register(ctx context.Context, r Registration) (*model.User, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(r.Email))
	if err != nil || addr.Name != "" {
		return nil, ErrInvalidEmail
	}
	if err := model.ValidatePassword(r.Password); err != nil {
		return nil, err
	}
	if r.Password != r.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	existing, err := s.Users.FindByEmail(ctx, addr.Address)
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if existing != nil && existing.DeletedAt == nil {
		return nil, ErrUserExists
	}

	cost := s.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.Users.Create(ctx, name, addr.Address, string(hash), model.RoleCustomer)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, ErrUserExists
	}
	if err != nil {
		return nil, err
	}
	s.logger().Info("user registered", "user_id", user.ID)
	return user, nil
}
