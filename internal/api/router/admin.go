package router

import (
	"net/http"

	mw "github.com/5w1tchy/lms-catalog/internal/api/middlewares"
	"github.com/5w1tchy/lms-catalog/internal/store/users"
)

// MountAdmin wires all /admin/* endpoints behind RequireRole(admin).
func MountAdmin(mux *http.ServeMux, d Deps) {
	authn := mw.RequireAuth(d.Users)
	admin := mw.RequireRole(users.RoleAdmin)
	gate := func(h http.HandlerFunc) http.Handler { return mw.Chain(h, authn, admin) }

	// Categories
	mux.Handle("POST /admin/categories", gate(d.Catalog.CreateCategory))
	mux.Handle("PATCH /admin/categories/{id}", gate(d.Catalog.RenameCategory))
	mux.Handle("DELETE /admin/categories/{id}", gate(d.Catalog.DeleteCategory))

	// Courses
	mux.Handle("POST /admin/courses", gate(d.Catalog.CreateCourse))
	mux.Handle("PATCH /admin/courses/{id}", gate(d.Catalog.UpdateCourse))
	mux.Handle("DELETE /admin/courses/{id}", gate(d.Catalog.DeleteCourse))

	// Books maintenance
	mux.Handle("POST /admin/books/activate", gate(d.Books.ActivateInactive))
}
