package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/erazemk/trgovina/internal/model"
)

// ErrDuplicate is returned when a unique column already holds the value.
var ErrDuplicate = errors.New("already exists")

const userColumns = `id, username, email, password_hash, role, created_at, deleted_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.DeletedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser creates a new user. The email is stored trimmed and lowercased.
func CreateUser(ctx context.Context, db *sql.DB, username, email, passwordHash, role string) (*model.User, error) {
	email = normalizeEmail(email)
	result, err := db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, role) VALUES (?, ?, ?, ?)`,
		strings.TrimSpace(username), email, passwordHash, role,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("creating user %s: %w", email, ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, db *sql.DB, id int64) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns the user with email, compared case-insensitively.
// An active account wins over soft-deleted ones; a deleted account is still
// returned so sign-in can reject it.
func GetUserByEmail(ctx context.Context, db *sql.DB, email string) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE email = ? COLLATE NOCASE
		 ORDER BY deleted_at IS NULL DESC, id DESC LIMIT 1`, normalizeEmail(email),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}

// DeleteUser soft-deletes a user.
func DeleteUser(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}

// Users exposes the user table as the lookup and creation capability the
// sign-in and registration flows need.
type Users struct {
	DB *sql.DB
}

func (u Users) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return GetUserByEmail(ctx, u.DB, email)
}

func (u Users) Create(ctx context.Context, username, email, passwordHash, role string) (*model.User, error) {
	return CreateUser(ctx, u.DB, username, email, passwordHash, role)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}
