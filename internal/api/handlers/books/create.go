package books

import (
	"net/http"
	"strconv"

	"github.com/5w1tchy/lms-catalog/internal/api/apperr"
	"github.com/5w1tchy/lms-catalog/internal/api/httpx"
	"github.com/5w1tchy/lms-catalog/internal/catalog"
)

// POST /books/
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in catalog.BookInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	b, err := h.svc.CreateBook(r.Context(), in, actorFrom(r))
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	httpx.Created(w, "/books/"+strconv.FormatInt(b.ID, 10), b)
}
