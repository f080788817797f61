package catalog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/5w1tchy/lms-catalog/internal/api/apperr"
	"github.com/5w1tchy/lms-catalog/internal/api/httpx"
	"github.com/5w1tchy/lms-catalog/internal/models"
	storecatalog "github.com/5w1tchy/lms-catalog/internal/store/catalog"
	"github.com/5w1tchy/lms-catalog/internal/validate"
)

// Store is satisfied by *storecatalog.Store.
type Store interface {
	CreateCategory(ctx context.Context, name string) (models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	RenameCategory(ctx context.Context, id int64, name string) (models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	CreateCourse(ctx context.Context, in storecatalog.CourseInput) (models.Course, error)
	ListCourses(ctx context.Context) ([]models.Course, error)
	GetCourse(ctx context.Context, id int64) (models.Course, error)
	UpdateCourse(ctx context.Context, id int64, in storecatalog.CourseInput) (models.Course, error)
	DeleteCourse(ctx context.Context, id int64) error
	AutocompleteCourses(ctx context.Context, q string, limit int) ([]models.Course, error)
}

type Handler struct {
	store Store
	// changed runs after category writes; book stats group by category name.
	changed func(ctx context.Context)
}

func New(store Store, changed func(ctx context.Context)) *Handler {
	if changed == nil {
		changed = func(context.Context) {}
	}
	return &Handler{store: store, changed: changed}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := validate.ParseID(r.PathValue("id"))
	if err != nil {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

type nameBody struct {
	Name string `json:"name"`
}

// GET /categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListCategories(r.Context())
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	httpx.OK(w, list)
}

// POST /admin/categories
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var body nameBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	c, err := h.store.CreateCategory(r.Context(), body.Name)
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	httpx.Created(w, "/categories/"+strconv.FormatInt(c.ID, 10), c)
}

// PATCH /admin/categories/{id}
func (h *Handler) RenameCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body nameBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	c, err := h.store.RenameCategory(r.Context(), id, body.Name)
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	h.changed(r.Context())
	httpx.OK(w, c)
}

// DELETE /admin/categories/{id}
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteCategory(r.Context(), id); err != nil {
		apperr.Handle(w, r, err)
		return
	}
	h.changed(r.Context())
	httpx.NoContent(w)
}

// GET /courses
func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListCourses(r.Context())
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	httpx.OK(w, list)
}

// GET /courses/{id}
func (h *Handler) GetCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.store.GetCourse(r.Context(), id)
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	httpx.OK(w, c)
}

// GET /courses/autocomplete?q=&limit=
func (h *Handler) AutocompleteCourses(w http.ResponseWriter, r *http.Request) {
	limit, _ := validate.ClampLimitOffset(r.URL.Query().Get("limit"), "", 10, 20)
	list, err := h.store.AutocompleteCourses(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	httpx.OK(w, list)
}

// POST /admin/courses
func (h *Handler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var in storecatalog.CourseInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	c, err := h.store.CreateCourse(r.Context(), in)
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	httpx.Created(w, "/courses/"+strconv.FormatInt(c.ID, 10), c)
}

// PATCH /admin/courses/{id}
func (h *Handler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in storecatalog.CourseInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	c, err := h.store.UpdateCourse(r.Context(), id, in)
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	httpx.OK(w, c)
}

// DELETE /admin/courses/{id}
func (h *Handler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteCourse(r.Context(), id); err != nil {
		apperr.Handle(w, r, err)
		return
	}
	httpx.NoContent(w)
}
