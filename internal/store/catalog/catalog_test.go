package catalog_test

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/5w1tchy/lms-catalog/internal/store/catalog"
	"github.com/5w1tchy/lms-catalog/internal/store/dbx"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func newMock(t *testing.T) (*catalog.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return catalog.New(db), mock
}

func TestDeleteCategory_Referenced(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM categories WHERE id = $1`)).
		WithArgs(int64(1)).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "books_category_id_fkey"})

	err := store.DeleteCategory(t.Context(), 1)
	if !errors.Is(err, dbx.ErrReferenced) {
		t.Fatalf("want ErrReferenced, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDeleteCategory_NotFound(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM categories WHERE id = $1`)).
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.DeleteCategory(t.Context(), 2); !errors.Is(err, dbx.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestDeleteCourse_Referenced(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM courses WHERE id = $1`)).
		WithArgs(int64(4)).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "books_course_id_fkey"})

	if err := store.DeleteCourse(t.Context(), 4); !errors.Is(err, dbx.ErrReferenced) {
		t.Fatalf("want ErrReferenced, got %v", err)
	}
}

func TestDeleteCourse_OK(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM courses WHERE id = $1`)).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.DeleteCourse(t.Context(), 4); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestCreateCategory_TrimsAndValidates(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO categories (name) VALUES ($1) RETURNING id`)).
		WithArgs("Science Fiction").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(8)))

	c, err := store.CreateCategory(t.Context(), "  Science   Fiction ")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if c.ID != 8 || c.Name != "Science Fiction" {
		t.Fatalf("got %+v", c)
	}

	if _, err := store.CreateCategory(t.Context(), "   "); !errors.Is(err, catalog.ErrInvalidName) {
		t.Fatalf("want ErrInvalidName, got %v", err)
	}
	long := "abcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyz"
	if _, err := store.CreateCategory(t.Context(), long); !errors.Is(err, catalog.ErrInvalidName) {
		t.Fatalf("want ErrInvalidName for %d chars, got %v", len(long), err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpdateCourse_KeepsCreatedAt(t *testing.T) {
	store, mock := newMock(t)

	created := time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE courses SET name = $2, description = $3 WHERE id = $1 RETURNING created_at`)).
		WithArgs(int64(3), "Go 101", "<p>intro</p>").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	c, err := store.UpdateCourse(t.Context(), 3, catalog.CourseInput{Name: "Go 101", Description: "<p>intro</p>"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !c.CreatedAt.Equal(created) || c.Description != "<p>intro</p>" {
		t.Fatalf("got %+v", c)
	}
}

func TestAutocompleteCourses(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery(`FROM courses WHERE name ILIKE`).
		WithArgs(`go\_`, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "created_at"}).
			AddRow(int64(1), "go_basics", "", time.Now()))

	got, err := store.AutocompleteCourses(t.Context(), "go_", 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 1 || got[0].Name != "go_basics" {
		t.Fatalf("got %+v", got)
	}

	empty, err := store.AutocompleteCourses(t.Context(), "  ", 5)
	if err != nil || len(empty) != 0 {
		t.Fatalf("blank query: %v %v", empty, err)
	}
}
