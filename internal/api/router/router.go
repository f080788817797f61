package router

import (
	"net/http"
	"time"

	"github.com/5w1tchy/lms-catalog/internal/api/handlers/books"
	"github.com/5w1tchy/lms-catalog/internal/api/handlers/catalog"
	"github.com/5w1tchy/lms-catalog/internal/api/httpx"
	mw "github.com/5w1tchy/lms-catalog/internal/api/middlewares"
	"github.com/5w1tchy/lms-catalog/internal/auth"
	"github.com/redis/go-redis/v9"
)

type Deps struct {
	Books   *books.Handler
	Catalog *catalog.Handler
	Auth    *auth.Handler
	Users   mw.AuthLookup
	// RDB may be nil; the auth limiters then pass everything.
	RDB *redis.Client
}

func Router(d Deps) http.Handler {
	mux := http.NewServeMux()
	authn := mw.RequireAuth(d.Users)
	optional := mw.OptionalAuth(d.Users)
	secured := func(h http.HandlerFunc) http.Handler { return authn(h) }

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.OK(w, map[string]string{"status": "ok"})
	})

	// Auth
	loginLimit := mw.LoginRateLimit(d.RDB, 10, 5*time.Minute)
	registerLimit := mw.NewRedisSlidingWindow(d.RDB, 10, time.Hour, mw.PerIPKey("sw:register"))
	mux.Handle("POST /auth/register", registerLimit.Middleware(http.HandlerFunc(d.Auth.Register)))
	mux.Handle("POST /auth/login", loginLimit(http.HandlerFunc(d.Auth.Login)))
	mux.HandleFunc("POST /auth/refresh", d.Auth.RefreshTokens)
	mux.HandleFunc("POST /auth/logout", d.Auth.Logout)
	mux.Handle("POST /auth/logout-all", secured(d.Auth.LogoutAll))
	mux.Handle("POST /auth/change-password", secured(d.Auth.ChangePassword))
	mux.Handle("GET /auth/me", secured(d.Auth.Me))

	// Keep legacy /books -> /books/
	mux.HandleFunc("GET /books", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/books/", http.StatusMovedPermanently)
	})

	// Books, reads
	mux.Handle("GET /books/", mw.Chain(http.HandlerFunc(d.Books.List), mw.HPP(mw.BookListParams...), optional))
	mux.HandleFunc("GET /books/stats", d.Books.Stats)
	mux.HandleFunc("GET /books/{id}", d.Books.Get)
	mux.HandleFunc("HEAD /books/{id}", d.Books.Head)

	// Books, writes
	mux.Handle("POST /books/", secured(d.Books.Create))
	mux.Handle("PATCH /books/{id}", secured(d.Books.Patch))
	mux.Handle("PUT /books/{id}", secured(d.Books.Put))
	mux.Handle("DELETE /books/{id}", secured(d.Books.Delete))

	// Book media
	mux.Handle("POST /books/{id}/cover", secured(d.Books.UploadCover))
	mux.Handle("POST /books/{id}/author-photo", secured(d.Books.UploadAuthorPhoto))
	mux.Handle("GET /books/{id}/cover", secured(d.Books.Cover))
	mux.Handle("GET /books/{id}/author-photo", secured(d.Books.AuthorPhoto))

	// Categories & courses
	mux.HandleFunc("GET /categories", d.Catalog.ListCategories)
	mux.HandleFunc("GET /courses", d.Catalog.ListCourses)
	mux.HandleFunc("GET /courses/autocomplete", d.Catalog.AutocompleteCourses)
	mux.HandleFunc("GET /courses/{id}", d.Catalog.GetCourse)

	MountAdmin(mux, d)
	return mux
}
