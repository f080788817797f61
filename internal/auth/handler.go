package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/5w1tchy/lms-catalog/internal/api/middlewares"
	jwtutil "github.com/5w1tchy/lms-catalog/internal/security/jwt"
	"github.com/5w1tchy/lms-catalog/internal/security/password"
	"github.com/5w1tchy/lms-catalog/internal/store/users"
)

type Handler struct {
	Users UserStore
	// Refresh may be nil; then only access tokens are issued.
	Refresh RefreshStore
}

func New(store UserStore, refresh RefreshStore) *Handler {
	return &Handler{Users: store, Refresh: refresh}
}

func decode(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// POST /auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "bad_request", "Invalid JSON")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || !strings.Contains(req.Email, "@") || req.Username == "" {
		writeErr(w, http.StatusBadRequest, "invalid_input", "Invalid email or username")
		return
	}

	// Blocks only on length; weak passwords get a warning.
	pwd, warn, err := password.Check(req.Password, req.Email, req.Username)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	hash, err := password.Hash(pwd)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "hash_error", "Failed to hash password")
		return
	}

	u, err := h.Users.CreateUser(r.Context(), req.Email, req.Username, hash)
	if errors.Is(err, users.ErrEmailTaken) {
		writeErr(w, http.StatusConflict, "conflict", "Email or username already registered")
		return
	}
	if err != nil {
		log.Printf("[auth] register: %v", err)
		writeErr(w, http.StatusInternalServerError, "create_failed", "Cannot create user")
		return
	}

	pair, err := h.issue(r.Context(), u.ID, u.Role, u.TokenVersion)
	if err != nil {
		log.Printf("[auth] issue tokens: %v", err)
		writeErr(w, http.StatusInternalServerError, "token_error", "Failed to issue tokens")
		return
	}
	pair.PasswordWarning = warn
	writeJSON(w, http.StatusCreated, pair)
}

// POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "bad_request", "Invalid JSON")
		return
	}
	u, err := h.Users.FindUserByEmail(r.Context(), req.Email)
	if err != nil || u.ID == "" {
		writeErr(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
		return
	}
	ok, needsRehash, err := password.Verify(req.Password, u.PasswordHash)
	if err != nil || !ok {
		writeErr(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
		return
	}
	if needsRehash {
		if newPHC, err := password.Hash(req.Password); err == nil {
			_ = h.Users.UpdateUserPasswordHash(r.Context(), u.ID, newPHC)
		}
	}

	pair, err := h.issue(r.Context(), u.ID, u.Role, u.TokenVersion)
	if err != nil {
		log.Printf("[auth] issue tokens: %v", err)
		writeErr(w, http.StatusInternalServerError, "token_error", "Failed to issue tokens")
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// POST /auth/refresh rotates the refresh token.
func (h *Handler) RefreshTokens(w http.ResponseWriter, r *http.Request) {
	if h.Refresh == nil {
		writeErr(w, http.StatusServiceUnavailable, "refresh_disabled", "Refresh tokens are not enabled")
		return
	}
	var req RefreshRequest
	if err := decode(r, &req); err != nil || req.RefreshToken == "" {
		writeErr(w, http.StatusBadRequest, "bad_request", "Invalid JSON")
		return
	}
	ctx := r.Context()
	userID, tv, err := h.Refresh.Consume(ctx, req.RefreshToken)
	if err != nil {
		writeErr(w, http.StatusUnauthorized, "invalid_refresh", "Invalid refresh token")
		return
	}

	cur, role, err := h.Users.FindAuthInfo(ctx, userID)
	if err != nil || cur != tv {
		writeErr(w, http.StatusUnauthorized, "token_revoked", "Token has been revoked")
		return
	}

	pair, err := h.issue(ctx, userID, role, cur)
	if err != nil {
		log.Printf("[auth] issue tokens: %v", err)
		writeErr(w, http.StatusInternalServerError, "token_error", "Failed to issue tokens")
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// POST /auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	_ = decode(r, &req)
	if req.RefreshToken != "" && h.Refresh != nil {
		_ = h.Refresh.Revoke(r.Context(), req.RefreshToken)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// POST /auth/logout-all revokes every access token of the caller.
func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.UserIDFrom(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}
	if _, err := h.Users.BumpTokenVersion(r.Context(), userID); err != nil {
		writeErr(w, http.StatusInternalServerError, "update_failed", "Failed to update token version")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.UserIDFrom(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}
	u, err := h.Users.FindUserByID(r.Context(), userID)
	if err != nil {
		writeErr(w, http.StatusNotFound, "not_found", "User not found")
		return
	}
	writeJSON(w, http.StatusOK, MeResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	})
}

// POST /auth/change-password
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.UserIDFrom(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}
	var req ChangePasswordRequest
	if err := decode(r, &req); err != nil || req.OldPassword == "" {
		writeErr(w, http.StatusBadRequest, "invalid_input", "Invalid input")
		return
	}
	ctx := r.Context()
	u, err := h.Users.FindUserByID(ctx, userID)
	if err != nil {
		writeErr(w, http.StatusNotFound, "not_found", "User not found")
		return
	}
	okPass, _, err := password.Verify(req.OldPassword, u.PasswordHash)
	if err != nil || !okPass {
		writeErr(w, http.StatusForbidden, "forbidden", "Invalid old password")
		return
	}
	np, warn, err := password.Check(req.NewPassword, u.Email, u.Username)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	newPHC, err := password.Hash(np)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "hash_error", "Failed to hash new password")
		return
	}
	if err := h.Users.UpdateUserPasswordHash(ctx, userID, newPHC); err != nil {
		writeErr(w, http.StatusInternalServerError, "update_failed", "Failed to update password")
		return
	}
	// Old sessions die with the old password.
	tv, err := h.Users.BumpTokenVersion(ctx, userID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "update_failed", "Failed to update token version")
		return
	}

	pair, err := h.issue(ctx, userID, u.Role, tv)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "token_error", "Failed to issue tokens")
		return
	}
	pair.PasswordWarning = warn
	writeJSON(w, http.StatusOK, pair)
}

func (h *Handler) issue(ctx context.Context, userID, role string, tokenVersion int) (TokenPair, error) {
	access, _, err := jwtutil.SignAccess(userID, role, tokenVersion)
	if err != nil {
		return TokenPair{}, err
	}
	pair := TokenPair{AccessToken: access, ExpiresIn: int(jwtutil.AccessTTL().Seconds())}
	if h.Refresh != nil {
		if pair.RefreshToken, err = h.Refresh.Issue(ctx, userID, tokenVersion); err != nil {
			return TokenPair{}, err
		}
	}
	return pair, nil
}
