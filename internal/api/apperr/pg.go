package apperr

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// Map well-known constraint names to fields (extend as you add constraints)
var constraintField = map[string]string{
	"books_category_id_fkey":    "category_id",
	"books_course_id_fkey":      "course_id",
	"books_owner_id_fkey":       "owner_id",
	"books_pages_check":         "pages",
	"books_rental_period_check": "rental_period_days",
	"books_status_check":        "status",
	"categories_name_key":       "name",
	"courses_name_key":          "name",
	"users_email_key":           "email",
	"users_username_key":        "username",
	"book_tags_pkey":            "tags",
}

// Guess a field from a column name present in PG error detail
func fieldFromDetail(detail string) string {
	// crude but useful
	for _, k := range []string{"category_id", "course_id", "owner_id", "title", "name", "email", "id"} {
		if strings.Contains(detail, k) {
			return k
		}
	}
	return ""
}

func fieldFromConstraint(c string) string {
	if f, ok := constraintField[c]; ok {
		return f
	}
	return ""
}

// FromPG maps a pgconn.PgError to a Problem. Returns (Problem, true) if mapped.
func FromPG(err error) (Problem, bool) {
	var pg *pgconn.PgError
	if !errors.As(err, &pg) {
		return Problem{}, false
	}

	p := Problem{Title: "Database error", Status: http.StatusInternalServerError}

	field := fieldFromConstraint(pg.ConstraintName)
	if field == "" && pg.Detail != "" {
		field = fieldFromDetail(pg.Detail)
	}
	orDefault := func(def string) string {
		if field == "" {
			return def
		}
		return field
	}

	switch pg.Code {
	case pgerrcode.UniqueViolation:
		p.Status, p.Title = http.StatusConflict, "Conflict"
		p.FieldErrors = []FieldError{{Field: orDefault("resource"), Code: "unique", Message: "value already exists"}}
	case pgerrcode.ForeignKeyViolation:
		p.Status, p.Title = http.StatusConflict, "Conflict"
		p.FieldErrors = []FieldError{{Field: orDefault("resource"), Code: "fk", Message: "resource is referenced by other records"}}
	case pgerrcode.NotNullViolation:
		if field == "" {
			field = pg.ColumnName
		}
		p.Status, p.Title = http.StatusBadRequest, "Bad Request"
		p.FieldErrors = []FieldError{{Field: orDefault("field"), Code: "not_null", Message: "required field is missing"}}
	case pgerrcode.CheckViolation, pgerrcode.NumericValueOutOfRange:
		p.Status, p.Title = http.StatusUnprocessableEntity, "Unprocessable Entity"
		p.FieldErrors = []FieldError{{Field: orDefault("field"), Code: "check", Message: "constraint failed"}}
	case pgerrcode.InvalidTextRepresentation:
		p.Status, p.Title = http.StatusBadRequest, "Bad Request"
		p.FieldErrors = []FieldError{{Field: orDefault("id"), Code: "invalid", Message: "invalid format"}}
	case pgerrcode.StringDataRightTruncationDataException:
		p.Status, p.Title = http.StatusBadRequest, "Bad Request"
		p.FieldErrors = []FieldError{{Field: orDefault("field"), Code: "too_long", Message: "value is too long"}}
	case pgerrcode.SerializationFailure:
		p.Status, p.Title = http.StatusConflict, "Conflict"
		p.Detail = "transaction conflict, please retry"
		p.Retryable = true
	case pgerrcode.DeadlockDetected:
		p.Status, p.Title = http.StatusConflict, "Conflict"
		p.Detail = "deadlock detected, please retry"
		p.Retryable = true
	}

	return p, true
}
