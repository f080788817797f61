package apperr

import (
	"errors"
	"log"
	"net/http"

	"github.com/5w1tchy/lms-catalog/internal/catalog"
	"github.com/5w1tchy/lms-catalog/internal/lifecycle"
	"github.com/5w1tchy/lms-catalog/internal/store/books"
	storecatalog "github.com/5w1tchy/lms-catalog/internal/store/catalog"
	"github.com/5w1tchy/lms-catalog/internal/store/dbx"
)

// FromError maps a domain or store error to a Problem. Unknown errors
// become a bare 500 with no internal detail.
func FromError(err error) Problem {
	if ve, ok := lifecycle.AsValidationError(err); ok {
		p := Problem{Status: http.StatusUnprocessableEntity, Title: "Validation failed"}
		for _, f := range ve.Fields {
			p.FieldErrors = append(p.FieldErrors, FieldError{Field: f.Field, Code: "invalid", Message: f.Reason})
		}
		return p
	}

	var ref *books.ReferenceError
	switch {
	case errors.As(err, &ref):
		return Problem{
			Status:      http.StatusUnprocessableEntity,
			Title:       "Unknown reference",
			FieldErrors: []FieldError{{Field: ref.Field, Code: "unknown", Message: "referenced record does not exist"}},
		}
	case errors.Is(err, dbx.ErrNotFound):
		return Problem{Status: http.StatusNotFound, Title: "Not Found"}
	case errors.Is(err, dbx.ErrReferenced):
		return Problem{
			Status:      http.StatusConflict,
			Title:       "Conflict",
			Detail:      "record is still referenced by books",
			FieldErrors: []FieldError{{Field: "id", Code: "referenced", Message: "delete or reassign the referencing books first"}},
		}
	case errors.Is(err, storecatalog.ErrInvalidName):
		return Problem{
			Status:      http.StatusUnprocessableEntity,
			Title:       "Validation failed",
			FieldErrors: []FieldError{{Field: "name", Code: "invalid", Message: err.Error()}},
		}
	case errors.Is(err, catalog.ErrForbidden):
		return Problem{Status: http.StatusForbidden, Title: "Forbidden"}
	}

	if p, ok := FromPG(err); ok {
		return p
	}
	if errors.Is(err, dbx.ErrConflict) {
		return Problem{Status: http.StatusConflict, Title: "Conflict"}
	}
	return Problem{Status: http.StatusInternalServerError, Title: "Internal Server Error"}
}

// Handle logs 5xx causes and writes the mapped problem.
func Handle(w http.ResponseWriter, r *http.Request, err error) {
	p := FromError(err)
	if p.Status >= http.StatusInternalServerError {
		log.Printf("[api] %s %s: %v", r.Method, r.URL.Path, err)
	}
	Write(w, r, p)
}
