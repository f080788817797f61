package middlewares_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	mw "github.com/5w1tchy/lms-catalog/internal/api/middlewares"
	jwtutil "github.com/5w1tchy/lms-catalog/internal/security/jwt"
)

type fakeUsers struct {
	ver  int
	role string
	err  error
}

func (f fakeUsers) FindAuthInfo(context.Context, string) (int, string, error) {
	return f.ver, f.role, f.err
}

func signed(t *testing.T, role string, ver int) string {
	t.Helper()
	jwtutil.Configure(jwtutil.Config{Secret: []byte("0123456789abcdef0123456789abcdef")})
	tok, _, err := jwtutil.SignAccess("user-1", role, ver)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func echoPrincipal() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := mw.PrincipalFrom(r.Context())
		if !ok {
			w.Write([]byte("guest"))
			return
		}
		w.Write([]byte(p.UserID + "/" + p.Role))
	})
}

func TestRequireAuth(t *testing.T) {
	tok := signed(t, "user", 2)

	cases := []struct {
		name   string
		header string
		users  fakeUsers
		code   int
		body   string
	}{
		{"missing header", "", fakeUsers{ver: 2, role: "user"}, http.StatusUnauthorized, ""},
		{"not bearer", "Basic abc", fakeUsers{ver: 2, role: "user"}, http.StatusUnauthorized, ""},
		{"garbage token", "Bearer nope", fakeUsers{ver: 2, role: "user"}, http.StatusUnauthorized, ""},
		{"revoked", "Bearer " + tok, fakeUsers{ver: 3, role: "user"}, http.StatusUnauthorized, ""},
		{"unknown user", "Bearer " + tok, fakeUsers{err: errors.New("no rows")}, http.StatusUnauthorized, ""},
		// role comes from the store, not the token
		{"ok", "Bearer " + tok, fakeUsers{ver: 2, role: "admin"}, http.StatusOK, "user-1/admin"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := mw.RequireAuth(tc.users)(echoPrincipal())
			req := httptest.NewRequest(http.MethodPost, "/books/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.code {
				t.Fatalf("code = %d, want %d", rec.Code, tc.code)
			}
			if tc.body != "" && rec.Body.String() != tc.body {
				t.Fatalf("body = %q", rec.Body.String())
			}
		})
	}
}

func TestOptionalAuthFallsBackToGuest(t *testing.T) {
	h := mw.OptionalAuth(fakeUsers{ver: 1, role: "user"})(echoPrincipal())

	req := httptest.NewRequest(http.MethodGet, "/books/", nil)
	req.Header.Set("Authorization", "Bearer broken")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "guest" {
		t.Fatalf("code=%d body=%q", rec.Code, rec.Body.String())
	}
}

func TestRequireRole(t *testing.T) {
	tok := signed(t, "user", 1)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	for role, want := range map[string]int{"user": http.StatusForbidden, "admin": http.StatusNoContent} {
		h := mw.Chain(ok, mw.RequireAuth(fakeUsers{ver: 1, role: role}), mw.RequireRole("admin"))
		req := httptest.NewRequest(http.MethodPost, "/admin/categories", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("role %s: code = %d, want %d", role, rec.Code, want)
		}
	}

	rec := httptest.NewRecorder()
	mw.RequireRole("admin")(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no principal: code = %d", rec.Code)
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	tag := func(name string) mw.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := mw.Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "handler") }),
		tag("outer"), nil, tag("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got := len(order); got != 3 || order[0] != "outer" || order[1] != "inner" || order[2] != "handler" {
		t.Fatalf("order = %v", order)
	}
}

func TestHPPKeepsFirstAndDropsUnknown(t *testing.T) {
	var got string
	h := mw.HPP(mw.BookListParams...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.RawQuery
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/books/?status=sold&status=rental&evil=1", nil))

	if got != "status=sold" {
		t.Fatalf("query = %q", got)
	}
}

func TestCorsBlocksUnknownOrigin(t *testing.T) {
	h := mw.Cors([]string{"https://app.example.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/books/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("code = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodOptions, "/books/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "https://app.example.com" {
		t.Fatalf("preflight code=%d headers=%v", rec.Code, rec.Header())
	}
}

func TestRateLimitersPassThroughWithoutRedis(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	for name, h := range map[string]http.Handler{
		"token bucket": mw.NewRedisTokenBucket(nil, 5, 20, mw.PerIPKey("tb")).Middleware(ok),
		"login":        mw.LoginRateLimit(nil, 1, 0)(ok),
	} {
		for range 3 {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("%s: code = %d", name, rec.Code)
			}
		}
	}
}
