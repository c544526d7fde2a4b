package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned by repository lookups when no row matches.
var ErrNotFound = errors.New("not found")

// UserStore provides typed CRUD for the users table.
type UserStore struct{}

// CreateUserParams are the fields accepted on registration or OIDC
// first-login; zero-value pointers mean "column is null".
type CreateUserParams struct {
	Email        string
	Username     string
	PasswordHash *string
	AuthProvider AuthProvider
	OIDCSubject  *string
	OIDCIssuer   *string
	IsVerified   bool
}

func (s *UserStore) Create(ctx context.Context, tx DBTX, p CreateUserParams) (User, error) {
	const q = `
		INSERT INTO users (email, username, password_hash, auth_provider, oidc_subject, oidc_issuer, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, email, username, password_hash, auth_provider, oidc_subject, oidc_issuer,
		          is_active, is_verified, last_login_at, created_at, updated_at`
	row := tx.QueryRow(ctx, q, p.Email, p.Username, p.PasswordHash, p.AuthProvider, p.OIDCSubject, p.OIDCIssuer, p.IsVerified)
	return scanUser(row)
}

func (s *UserStore) GetByID(ctx context.Context, tx DBTX, id uuid.UUID) (User, error) {
	const q = `
		SELECT id, email, username, password_hash, auth_provider, oidc_subject, oidc_issuer,
		       is_active, is_verified, last_login_at, created_at, updated_at
		FROM users WHERE id = $1`
	return scanUser(tx.QueryRow(ctx, q, id))
}

func (s *UserStore) GetByEmail(ctx context.Context, tx DBTX, email string) (User, error) {
	const q = `
		SELECT id, email, username, password_hash, auth_provider, oidc_subject, oidc_issuer,
		       is_active, is_verified, last_login_at, created_at, updated_at
		FROM users WHERE email = $1`
	return scanUser(tx.QueryRow(ctx, q, email))
}

func (s *UserStore) GetByOIDCIdentity(ctx context.Context, tx DBTX, issuer, subject string) (User, error) {
	const q = `
		SELECT id, email, username, password_hash, auth_provider, oidc_subject, oidc_issuer,
		       is_active, is_verified, last_login_at, created_at, updated_at
		FROM users WHERE oidc_issuer = $1 AND oidc_subject = $2`
	return scanUser(tx.QueryRow(ctx, q, issuer, subject))
}

// UsernameTaken reports whether username already exists, used while
// generating a unique username for new OIDC accounts.
func (s *UserStore) UsernameTaken(ctx context.Context, tx DBTX, username string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`
	var exists bool
	if err := tx.QueryRow(ctx, q, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return exists, nil
}

func (s *UserStore) UpdatePasswordHash(ctx context.Context, tx DBTX, id uuid.UUID, hash string) error {
	const q = `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`
	tag, err := tx.Exec(ctx, q, id, hash)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *UserStore) UpdateLastLogin(ctx context.Context, tx DBTX, id uuid.UUID, at time.Time) error {
	const q = `UPDATE users SET last_login_at = $2 WHERE id = $1`
	_, err := tx.Exec(ctx, q, id, at)
	return err
}

// LinkOIDC converts a local account to a linked OIDC account (account
// resolution step 2 of the OIDC client).
func (s *UserStore) LinkOIDC(ctx context.Context, tx DBTX, id uuid.UUID, issuer, subject string) error {
	const q = `
		UPDATE users
		SET oidc_issuer = $2, oidc_subject = $3, auth_provider = 'oidc', is_verified = TRUE, updated_at = now()
		WHERE id = $1`
	_, err := tx.Exec(ctx, q, id, issuer, subject)
	return err
}

// Count returns the total user count via SELECT COUNT(*), replacing the
// inefficient load-all-then-len pattern flagged in the design notes.
func (s *UserStore) Count(ctx context.Context, tx DBTX) (int64, error) {
	var n int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// List returns a page of users ordered by creation time, plus the total
// count (computed separately with COUNT(*), never by loading every row).
func (s *UserStore) List(ctx context.Context, tx DBTX, limit, offset int) ([]User, int64, error) {
	total, err := s.Count(ctx, tx)
	if err != nil {
		return nil, 0, err
	}

	const q = `
		SELECT id, email, username, password_hash, auth_provider, oidc_subject, oidc_issuer,
		       is_active, is_verified, last_login_at, created_at, updated_at
		FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := tx.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUserRows(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row pgx.Row) (User, error) {
	return scanUserRows(row)
}

func scanUserRows(row rowScanner) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.AuthProvider, &u.OIDCSubject, &u.OIDCIssuer,
		&u.IsActive, &u.IsVerified, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}
