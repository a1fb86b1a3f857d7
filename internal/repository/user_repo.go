package repository

import (
	"context"
	"database/sql"
	"fmt"

	"familyledger/internal/database"
	"familyledger/internal/models"
)

// UserRepository handles database operations for identity records.
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, email, password_hash, is_verified, verification_code,
	oauth_provider, oauth_subject, created_at, updated_at`

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.IsVerified,
		&user.VerificationCode,
		&user.OAuthProvider,
		&user.OAuthSubject,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// CreateUser inserts a new unverified user.
func (r *UserRepository) CreateUser(ctx context.Context, username, email, passwordHash, verificationCode string) (*models.User, error) {
	query := `
		INSERT INTO users (username, email, password_hash, verification_code)
		VALUES (?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, username, email, passwordHash, verificationCode)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return r.GetUserByID(ctx, id)
}

// CreateVerifiedUser inserts a user that needs no email verification,
// used by the OAuth sign-in path.
func (r *UserRepository) CreateVerifiedUser(ctx context.Context, username, email, provider, subject string) (*models.User, error) {
	query := `
		INSERT INTO users (username, email, is_verified, oauth_provider, oauth_subject)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, username, email, true, provider, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return r.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by id.
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = ?"
	return scanUser(r.db.QueryRow(ctx, query, id))
}

// GetUserByEmail retrieves a user by email address.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE email = ?"
	return scanUser(r.db.QueryRow(ctx, query, email))
}

// GetUserByUsername retrieves a user by username.
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE username = ?"
	return scanUser(r.db.QueryRow(ctx, query, username))
}

// GetUserByIdentifier retrieves a user by email or username.
func (r *UserRepository) GetUserByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	user, err := r.GetUserByEmail(ctx, identifier)
	if err != nil || user != nil {
		return user, err
	}
	return r.GetUserByUsername(ctx, identifier)
}

// GetUserByOAuth retrieves a user by OAuth provider and subject.
func (r *UserRepository) GetUserByOAuth(ctx context.Context, provider, subject string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE oauth_provider = ? AND oauth_subject = ?"
	return scanUser(r.db.QueryRow(ctx, query, provider, subject))
}

// LinkOAuthProvider attaches OAuth identifiers to an existing account.
func (r *UserRepository) LinkOAuthProvider(ctx context.Context, userID int64, provider, subject string) error {
	query := `
		UPDATE users SET oauth_provider = ?, oauth_subject = ?, is_verified = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(ctx, query, provider, subject, true, userID); err != nil {
		return fmt.Errorf("failed to link oauth provider: %w", err)
	}
	return nil
}

// UpdateUnverified replaces the credentials of a not-yet-verified account,
// used when the same email registers again.
func (r *UserRepository) UpdateUnverified(ctx context.Context, email, username, passwordHash, verificationCode string) error {
	query := `
		UPDATE users SET username = ?, password_hash = ?, verification_code = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE email = ? AND is_verified = ?
	`
	if _, err := r.db.Exec(ctx, query, username, passwordHash, verificationCode, email, false); err != nil {
		return fmt.Errorf("failed to update unverified user: %w", err)
	}
	return nil
}

// MarkVerified flags the account as verified and clears its code.
func (r *UserRepository) MarkVerified(ctx context.Context, userID int64) error {
	query := `
		UPDATE users SET is_verified = ?, verification_code = '',
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(ctx, query, true, userID); err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}
	return nil
}

// SetVerificationCode stores a freshly generated code.
func (r *UserRepository) SetVerificationCode(ctx context.Context, userID int64, code string) error {
	query := "UPDATE users SET verification_code = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.Exec(ctx, query, code, userID); err != nil {
		return fmt.Errorf("failed to set verification code: %w", err)
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	query := "UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.Exec(ctx, query, passwordHash, userID); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}
