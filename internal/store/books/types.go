package books

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/5w1tchy/lms-catalog/internal/models"
	"github.com/5w1tchy/lms-catalog/internal/store/dbx"
)

// ErrUnknownReference is returned when a book points at a category or
// course that does not exist.
var ErrUnknownReference = errors.New("unknown reference")

// ReferenceError names the field whose foreign key was rejected.
type ReferenceError struct {
	Field string
	Err   error
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, ErrUnknownReference)
}

func (e *ReferenceError) Is(target error) bool { return target == ErrUnknownReference }

func (e *ReferenceError) Unwrap() error { return e.Err }

// Filter selects books. Zero values mean "any".
type Filter struct {
	Active      *bool
	Status      *models.Status
	CategoryID  *int64
	CourseID    *int64
	OwnerID     string
	Tag         string
	Query       string // title contains, case-insensitive
	TitleSuffix string // title ends with, case-sensitive
	Limit       int
	Offset      int
}

type CategoryCount struct {
	CategoryID *int64 `json:"category_id"`
	Name       string `json:"name"`
	Count      int    `json:"count"`
}

type Stats struct {
	Total      int             `json:"total"`
	Active     int             `json:"active"`
	ByStatus   map[string]int  `json:"by_status"`
	ByCategory []CategoryCount `json:"by_category"`
}

// Store persists books and their tags.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store { return &Store{db: db} }

var refColumns = map[string]string{
	"books_category_id_fkey": "category_id",
	"books_course_id_fkey":   "course_id",
	"books_owner_id_fkey":    "owner_id",
}

// mapWriteError turns FK violations on a book write into *ReferenceError.
func mapWriteError(err error) error {
	err = dbx.MapPGError(err)
	if errors.Is(err, dbx.ErrForeignKey) {
		field := refColumns[dbx.ConstraintOf(err)]
		if field == "" {
			field = "reference"
		}
		return &ReferenceError{Field: field, Err: err}
	}
	return err
}

func val[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func statusVal(s *models.Status) any {
	if s == nil {
		return nil
	}
	return string(*s)
}
