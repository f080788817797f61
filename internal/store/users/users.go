package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/5w1tchy/lms-catalog/internal/store/dbx"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ErrEmailTaken is returned by CreateUser for a duplicate email or username.
var ErrEmailTaken = errors.New("email or username already registered")

type User struct {
	ID           string // uuid
	Email        string
	Username     string
	PasswordHash string
	TokenVersion int
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type SQLStore struct {
	DB *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{DB: db} }

const userColumns = `id::text, email, username, password_hash,
	COALESCE(token_version, 1), role, created_at, updated_at`

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.TokenVersion, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s *SQLStore) CreateUser(ctx context.Context, email, username, passwordHash string) (User, error) {
	u, err := scanUser(s.DB.QueryRowContext(ctx, `
		INSERT INTO users (email, username, password_hash)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		strings.ToLower(strings.TrimSpace(email)), strings.TrimSpace(username), passwordHash,
	))
	if err != nil {
		if errors.Is(dbx.MapPGError(err), dbx.ErrConflict) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *SQLStore) FindUserByEmail(ctx context.Context, email string) (User, error) {
	u, err := scanUser(s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 LIMIT 1`,
		strings.ToLower(strings.TrimSpace(email)),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, dbx.ErrNotFound
	}
	return u, err
}

func (s *SQLStore) FindUserByID(ctx context.Context, id string) (User, error) {
	u, err := scanUser(s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, dbx.ErrNotFound
	}
	return u, err
}

// FindAuthInfo returns what the auth middleware checks on every request.
func (s *SQLStore) FindAuthInfo(ctx context.Context, userID string) (tokenVersion int, role string, err error) {
	err = s.DB.QueryRowContext(ctx,
		`SELECT COALESCE(token_version, 1), role FROM users WHERE id = $1`, userID,
	).Scan(&tokenVersion, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", dbx.ErrNotFound
	}
	return tokenVersion, role, err
}

func (s *SQLStore) UpdateUserPasswordHash(ctx context.Context, userID, newHash string) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`, newHash, userID)
	if err != nil {
		return err
	}
	return dbx.RowsAffected(res)
}

// BumpTokenVersion invalidates every access token issued so far.
func (s *SQLStore) BumpTokenVersion(ctx context.Context, userID string) (int, error) {
	var v int
	err := s.DB.QueryRowContext(ctx,
		`UPDATE users SET token_version = COALESCE(token_version, 1) + 1, updated_at = now()
		 WHERE id = $1 RETURNING token_version`, userID,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, dbx.ErrNotFound
	}
	return v, err
}
