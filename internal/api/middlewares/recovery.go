package middlewares

import (
	"log"
	"net/http"
	"runtime/debug"

	"github.com/5w1tchy/lms-catalog/internal/api/apperr"
)

// Recovery turns a handler panic into a 500 problem. The panic value and
// stack go to the log only.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			rid := GetRequestID(r)
			log.Printf("[panic] rid=%s %s %s: %v\n%s", rid, r.Method, r.URL.Path, rec, debug.Stack())
			apperr.Write(w, r, apperr.Problem{
				Status:    http.StatusInternalServerError,
				Title:     "Internal Server Error",
				RequestID: rid,
			})
		}()
		next.ServeHTTP(w, r)
	})
}
