package middlewares_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/5w1tchy/lms-catalog/internal/api/apperr"
	mw "github.com/5w1tchy/lms-catalog/internal/api/middlewares"
)

func TestRecoveryWritesProblem(t *testing.T) {
	boom := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic("boom") })
	h := mw.RequestID(mw.Recovery(boom))

	req := httptest.NewRequest(http.MethodGet, "/books/1", nil)
	req.Header.Set("X-Request-ID", "rid-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("code = %d", rec.Code)
	}
	var p apperr.Problem
	if err := json.NewDecoder(rec.Body).Decode(&p); err != nil {
		t.Fatal(err)
	}
	if p.RequestID != "rid-42" || p.Detail != "" {
		t.Fatalf("problem = %+v", p)
	}
}

func TestRecoveryPassesThrough(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("success")) })
	rec := httptest.NewRecorder()
	mw.Recovery(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "success" {
		t.Fatalf("code=%d body=%q", rec.Code, rec.Body.String())
	}
}
