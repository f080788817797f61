package auth

import (
	"context"
	"time"

	"github.com/5w1tchy/lms-catalog/internal/security/password"
	"github.com/5w1tchy/lms-catalog/internal/store/users"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type TokenPair struct {
	AccessToken     string            `json:"access_token"`
	RefreshToken    string            `json:"refresh_token,omitempty"`
	ExpiresIn       int               `json:"expires_in"`
	PasswordWarning *password.Warning `json:"password_warning,omitempty"`
}

type MeResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// UserStore is satisfied by *users.SQLStore.
type UserStore interface {
	CreateUser(ctx context.Context, email, username, passwordHash string) (users.User, error)
	FindUserByEmail(ctx context.Context, email string) (users.User, error)
	FindUserByID(ctx context.Context, id string) (users.User, error)
	FindAuthInfo(ctx context.Context, userID string) (tokenVersion int, role string, err error)
	UpdateUserPasswordHash(ctx context.Context, userID, newHash string) error
	BumpTokenVersion(ctx context.Context, userID string) (int, error)
}

// RefreshStore keeps the allowlist of live refresh tokens.
type RefreshStore interface {
	Issue(ctx context.Context, userID string, tokenVersion int) (string, error)
	// Consume deletes the token and returns what it was issued for.
	Consume(ctx context.Context, token string) (userID string, tokenVersion int, err error)
	Revoke(ctx context.Context, token string) error
}
