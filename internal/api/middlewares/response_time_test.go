package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	mw "github.com/5w1tchy/lms-catalog/internal/api/middlewares"
)

func TestResponseTimeHeader(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"explicit status": func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusCreated) },
		"implicit status": func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) },
		"nothing written": func(w http.ResponseWriter, r *http.Request) {},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mw.ResponseTime(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books/", nil))
			if rec.Header().Get("X-Response-Time") == "" {
				t.Fatal("missing X-Response-Time")
			}
		})
	}
}
