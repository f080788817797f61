package books

import (
	"net/http"

	"github.com/5w1tchy/lms-catalog/internal/api/apperr"
	"github.com/5w1tchy/lms-catalog/internal/api/httpx"
	"github.com/5w1tchy/lms-catalog/internal/validate"
)

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := validate.ParseID(r.PathValue("id"))
	if err != nil {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// GET /books/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b, err := h.svc.GetBook(r.Context(), id)
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	httpx.OK(w, b)
}

// HEAD /books/{id}
func (h *Handler) Head(w http.ResponseWriter, r *http.Request) {
	id, err := validate.ParseID(r.PathValue("id"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	found, err := h.svc.BookExists(r.Context(), id)
	switch {
	case err != nil:
		w.WriteHeader(http.StatusInternalServerError)
	case !found:
		w.WriteHeader(http.StatusNotFound)
	default:
		w.WriteHeader(http.StatusOK)
	}
}
