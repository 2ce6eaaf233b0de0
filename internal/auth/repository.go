package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mkravets/contactly/internal/apperror"
)

// UserRepository defines the data access contract for user records.
// All SQL lives in the concrete implementation -- no SQL leaks out.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)

	// UpdateRefreshToken replaces the stored refresh token; nil clears it,
	// forcing a fresh login.
	UpdateRefreshToken(ctx context.Context, email string, token *string) error

	// SetConfirmed marks the user's email address as verified.
	SetConfirmed(ctx context.Context, email string) error

	// UpdatePassword overwrites the stored password hash.
	UpdatePassword(ctx context.Context, email, passwordHash string) error

	// UpdateAvatar sets the user's avatar path.
	UpdateAvatar(ctx context.Context, email, avatar string) error
}

// userRepository implements UserRepository with hand-written MariaDB queries.
type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository backed by the given DB pool.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user row into the users table.
func (r *userRepository) Create(ctx context.Context, user *User) error {
	query := `INSERT INTO users (id, email, password_hash, avatar, refresh_token, confirmed, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Avatar,
		user.RefreshToken,
		user.Confirmed,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

// FindByEmail retrieves a user by their email address.
// Returns apperror.NotFound if no user exists with this email.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT id, email, password_hash, avatar, refresh_token, confirmed, created_at
	          FROM users WHERE email = ?`

	user := &User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Avatar,
		&user.RefreshToken,
		&user.Confirmed,
		&user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by email: %w", err)
	}

	return user, nil
}

// EmailExists returns true if a user with the given email already exists.
// Used during signup to check for duplicates before hashing the password.
func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking email existence: %w", err)
	}

	return exists, nil
}

// UpdateRefreshToken replaces the stored refresh token for a user.
func (r *userRepository) UpdateRefreshToken(ctx context.Context, email string, token *string) error {
	query := `UPDATE users SET refresh_token = ? WHERE email = ?`

	result, err := r.db.ExecContext(ctx, query, token, email)
	if err != nil {
		return fmt.Errorf("updating refresh token: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("user not found")
	}

	return nil
}

// SetConfirmed marks the user's email address as verified.
func (r *userRepository) SetConfirmed(ctx context.Context, email string) error {
	query := `UPDATE users SET confirmed = TRUE WHERE email = ?`

	result, err := r.db.ExecContext(ctx, query, email)
	if err != nil {
		return fmt.Errorf("confirming email: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("user not found")
	}

	return nil
}

// UpdatePassword overwrites the stored password hash for a user.
func (r *userRepository) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	query := `UPDATE users SET password_hash = ? WHERE email = ?`

	result, err := r.db.ExecContext(ctx, query, passwordHash, email)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("user not found")
	}

	return nil
}

// UpdateAvatar sets the user's avatar path.
func (r *userRepository) UpdateAvatar(ctx context.Context, email, avatar string) error {
	query := `UPDATE users SET avatar = ? WHERE email = ?`

	result, err := r.db.ExecContext(ctx, query, avatar, email)
	if err != nil {
		return fmt.Errorf("updating avatar: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("user not found")
	}

	return nil
}
