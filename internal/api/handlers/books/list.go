package books

import (
	"net/http"
	"strings"

	"github.com/5w1tchy/lms-catalog/internal/api/apperr"
	"github.com/5w1tchy/lms-catalog/internal/api/httpx"
	"github.com/5w1tchy/lms-catalog/internal/models"
	storebooks "github.com/5w1tchy/lms-catalog/internal/store/books"
	"github.com/5w1tchy/lms-catalog/internal/validate"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

func parseFilter(r *http.Request) (storebooks.Filter, []apperr.FieldError) {
	q := r.URL.Query()
	var f storebooks.Filter
	var bad []apperr.FieldError
	invalid := func(field, msg string) {
		bad = append(bad, apperr.FieldError{Field: field, Code: "invalid", Message: msg})
	}

	var err error
	if f.Active, err = validate.OptionalBool(q.Get("active")); err != nil {
		invalid("active", "must be true or false")
	}
	if s := strings.TrimSpace(q.Get("status")); s != "" {
		st := models.Status(strings.ToLower(s))
		if !st.Valid() {
			invalid("status", "must be one of available, rental, sold")
		}
		f.Status = &st
	}
	if f.CategoryID, err = validate.OptionalID(q.Get("category")); err != nil {
		invalid("category", "must be a positive integer")
	}
	if f.CourseID, err = validate.OptionalID(q.Get("course")); err != nil {
		invalid("course", "must be a positive integer")
	}
	mine, err := validate.OptionalBool(q.Get("mine"))
	if err != nil {
		invalid("mine", "must be true or false")
	}
	if mine != nil && *mine {
		f.OwnerID = actorFrom(r).UserID
		if f.OwnerID == "" {
			invalid("mine", "requires authentication")
		}
	}
	f.Tag = strings.TrimSpace(q.Get("tag"))
	f.Query = strings.TrimSpace(q.Get("q"))
	f.TitleSuffix = q.Get("suffix")
	f.Limit, f.Offset = validate.ClampLimitOffset(q.Get("limit"), q.Get("offset"), defaultLimit, maxLimit)
	return f, bad
}

// GET /books/
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	f, bad := parseFilter(r)
	if len(bad) > 0 {
		apperr.Write(w, r, apperr.Problem{Status: http.StatusBadRequest, Title: "Bad Request", FieldErrors: bad})
		return
	}
	list, total, err := h.svc.ListBooks(r.Context(), f)
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.Page[models.Book]{
		Status: "success",
		Data:   list,
		Total:  total,
		Limit:  f.Limit,
		Offset: f.Offset,
	})
}

// GET /books/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context())
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	httpx.OK(w, st)
}
