package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/5w1tchy/lms-catalog/internal/api/reqid"
	"github.com/5w1tchy/lms-catalog/internal/catalog"
	"github.com/5w1tchy/lms-catalog/internal/lifecycle"
	"github.com/5w1tchy/lms-catalog/internal/models"
	"github.com/5w1tchy/lms-catalog/internal/store/books"
	"github.com/5w1tchy/lms-catalog/internal/store/dbx"
	"github.com/jackc/pgx/v5/pgconn"
)

func validationErr(t *testing.T) error {
	t.Helper()
	days := 3
	_, err := lifecycle.Validate(models.Book{Title: "T", RentalPeriodDays: &days})
	if err == nil {
		t.Fatal("expected validation error")
	}
	return err
}

func TestFromError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		field  string
		code   string
	}{
		{"validation", validationErr(t), http.StatusUnprocessableEntity, "published_date", "invalid"},
		{"not found", fmt.Errorf("get: %w", dbx.ErrNotFound), http.StatusNotFound, "", ""},
		{"referenced", fmt.Errorf("%w: books_category_id_fkey", dbx.ErrReferenced), http.StatusConflict, "id", "referenced"},
		{"unknown ref", &books.ReferenceError{Field: "course_id"}, http.StatusUnprocessableEntity, "course_id", "unknown"},
		{"forbidden", catalog.ErrForbidden, http.StatusForbidden, "", ""},
		{"unique", &pgconn.PgError{Code: "23505", ConstraintName: "categories_name_key"}, http.StatusConflict, "name", "unique"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := FromError(tc.err)
			if p.Status != tc.status {
				t.Fatalf("status = %d, want %d", p.Status, tc.status)
			}
			if tc.field == "" {
				return
			}
			if len(p.FieldErrors) == 0 || p.FieldErrors[0].Field != tc.field || p.FieldErrors[0].Code != tc.code {
				t.Fatalf("field errors = %+v", p.FieldErrors)
			}
		})
	}
}

func TestFromErrorHidesInternalDetail(t *testing.T) {
	p := FromError(errors.New("pq: password authentication failed"))
	if p.Detail != "" {
		t.Fatalf("detail leaked: %q", p.Detail)
	}
}

func TestHandleWritesProblemJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/books/9", nil)
	req.Header.Set("X-Request-ID", "rid-1")

	Handle(rec, req, dbx.ErrNotFound)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("code = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("content-type = %q", ct)
	}
	var p Problem
	if err := json.NewDecoder(rec.Body).Decode(&p); err != nil {
		t.Fatal(err)
	}
	if p.Instance != "/books/9" || p.RequestID != "rid-1" {
		t.Fatalf("problem = %+v", p)
	}
}

func TestWriteStampsRequestContext(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/books/3", nil)
	req.Header.Set(reqid.Header, "from-header")
	req = req.WithContext(reqid.NewContext(req.Context(), "from-ctx"))

	WriteStatus(rec, req, http.StatusConflict, "", "")

	var p Problem
	if err := json.NewDecoder(rec.Body).Decode(&p); err != nil {
		t.Fatal(err)
	}
	if p.RequestID != "from-ctx" {
		t.Fatalf("request_id = %q", p.RequestID)
	}
	if p.Instance != "/books/3" || p.Title != "Conflict" || p.Status != http.StatusConflict {
		t.Fatalf("problem = %+v", p)
	}
}

func TestWriteWithoutRequest(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, nil, Problem{})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("code = %d", rec.Code)
	}
	var p Problem
	if err := json.NewDecoder(rec.Body).Decode(&p); err != nil {
		t.Fatal(err)
	}
	if p.Instance != "" || p.RequestID != "" || p.Title != "Internal Server Error" {
		t.Fatalf("problem = %+v", p)
	}
}
