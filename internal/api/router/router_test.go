package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/5w1tchy/lms-catalog/internal/api/handlers/books"
	"github.com/5w1tchy/lms-catalog/internal/api/handlers/catalog"
	"github.com/5w1tchy/lms-catalog/internal/auth"
	jwtutil "github.com/5w1tchy/lms-catalog/internal/security/jwt"
	"github.com/5w1tchy/lms-catalog/internal/store/dbx"
)

type lookup struct{ role string }

func (l lookup) FindAuthInfo(_ context.Context, id string) (int, string, error) {
	if id != "u-1" {
		return 0, "", dbx.ErrNotFound
	}
	return 1, l.role, nil
}

// Only routes that stop before reaching a service are exercised here.
func newRouter(role string) http.Handler {
	return Router(Deps{
		Books:   books.New(nil, nil, 0),
		Catalog: catalog.New(nil, nil),
		Auth:    auth.New(nil, nil),
		Users:   lookup{role: role},
	})
}

func bearer(t *testing.T) string {
	t.Helper()
	jwtutil.Configure(jwtutil.Config{Secret: []byte("router-test-secret-router-test-secret")})
	tok, _, err := jwtutil.SignAccess("u-1", "", 1)
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + tok
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter("user").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestWritesRequireAuth(t *testing.T) {
	h := newRouter("user")
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/books/"},
		{http.MethodPatch, "/books/1"},
		{http.MethodPut, "/books/1"},
		{http.MethodDelete, "/books/1"},
		{http.MethodPost, "/books/1/cover"},
		{http.MethodGet, "/books/1/cover"},
		{http.MethodPost, "/admin/categories"},
		{http.MethodPost, "/admin/books/activate"},
		{http.MethodGet, "/auth/me"},
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, strings.NewReader("{}")))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: code = %d", tc.method, tc.path, rec.Code)
		}
	}
}

func TestAdminRoutesRejectPlainUsers(t *testing.T) {
	h := newRouter("user")
	req := httptest.NewRequest(http.MethodDelete, "/admin/courses/3", nil)
	req.Header.Set("Authorization", bearer(t))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestAdminReachesHandler(t *testing.T) {
	h := newRouter("admin")
	// a bad id is rejected by the handler before any store call
	req := httptest.NewRequest(http.MethodDelete, "/admin/courses/abc", nil)
	req.Header.Set("Authorization", bearer(t))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestLegacyBooksRedirect(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter("user").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books", nil))
	if rec.Code != http.StatusMovedPermanently || rec.Header().Get("Location") != "/books/" {
		t.Fatalf("code=%d location=%q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestUnknownMethodIs405(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter("user").ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/categories", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("code = %d", rec.Code)
	}
}
