package books

import (
	"net/http"

	"github.com/5w1tchy/lms-catalog/internal/api/apperr"
	"github.com/5w1tchy/lms-catalog/internal/api/httpx"
	"github.com/5w1tchy/lms-catalog/internal/catalog"
)

// PATCH /books/{id}
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var p catalog.BookPatch
	if err := httpx.DecodeJSON(r, &p); err != nil {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	b, err := h.svc.UpdateBook(r.Context(), id, p, actorFrom(r))
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	httpx.OK(w, b)
}

// PUT /books/{id}
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in catalog.BookInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	b, err := h.svc.ReplaceBook(r.Context(), id, in, actorFrom(r))
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	httpx.OK(w, b)
}

// DELETE /books/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteBook(r.Context(), id, actorFrom(r)); err != nil {
		apperr.Handle(w, r, err)
		return
	}
	httpx.NoContent(w)
}

// POST /admin/books/activate
func (h *Handler) ActivateInactive(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.ActivateInactive(r.Context())
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	httpx.OK(w, map[string]int{"activated": n})
}
