package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	jwtutil "github.com/5w1tchy/lms-catalog/internal/security/jwt"
)

// AuthLookup returns the current token version and role of a user.
type AuthLookup interface {
	FindAuthInfo(ctx context.Context, userID string) (tokenVersion int, role string, err error)
}

// RequireAuth verifies the Bearer JWT, checks token_version against the
// store, then injects the principal into the context.
func RequireAuth(users AuthLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("Authorization")
			if raw == "" {
				http.Error(w, "missing Authorization header", http.StatusUnauthorized)
				return
			}
			p, err := authenticate(r.Context(), users, raw)
			switch {
			case errors.Is(err, errBadHeader):
				http.Error(w, "invalid Authorization header", http.StatusUnauthorized)
				return
			case errors.Is(err, errRevoked):
				http.Error(w, "token revoked", http.StatusUnauthorized)
				return
			case err != nil:
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// OptionalAuth attaches the principal if a valid Bearer is present;
// otherwise continues unauthenticated.
func OptionalAuth(users AuthLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("Authorization")
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			p, err := authenticate(r.Context(), users, raw)
			if err != nil {
				next.ServeHTTP(w, r) // act as guest
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

var (
	errBadHeader = errors.New("no bearer")
	errRevoked   = errors.New("token revoked")
)

func authenticate(ctx context.Context, users AuthLookup, header string) (Principal, error) {
	tokenStr, err := bearer(header)
	if err != nil {
		return Principal{}, err
	}
	claims, err := jwtutil.ParseAccess(tokenStr)
	if err != nil {
		return Principal{}, err
	}
	// Role comes from the store so a demotion takes effect immediately.
	ver, role, err := users.FindAuthInfo(ctx, claims.Subject)
	if err != nil {
		return Principal{}, err
	}
	if claims.TokenVersion != ver {
		return Principal{}, errRevoked
	}
	return Principal{UserID: claims.Subject, Role: role}, nil
}

func bearer(h string) (string, error) {
	if !strings.HasPrefix(h, "Bearer ") && !strings.HasPrefix(h, "bearer ") {
		return "", errBadHeader
	}
	tok := strings.TrimSpace(h[len("Bearer "):])
	if tok == "" {
		return "", errBadHeader
	}
	return tok, nil
}
