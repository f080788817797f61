package middlewares

import (
	"net/http"
	"regexp"

	"github.com/5w1tchy/lms-catalog/internal/api/reqid"
	"github.com/google/uuid"
)

type ctxKey int

const ctxKeyPrincipal ctxKey = iota

// Client-supplied ids outside this alphabet are replaced.
var ridRe = regexp.MustCompile(`^[A-Za-z0-9_.\-]{1,64}$`)

// RequestID accepts a sane incoming X-Request-ID or mints a UUID, and echoes
// it on the request, its context and the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get(reqid.Header)
		if !ridRe.MatchString(rid) {
			rid = uuid.NewString()
		}
		r = r.WithContext(reqid.NewContext(r.Context(), rid))
		r.Header.Set(reqid.Header, rid)
		w.Header().Set(reqid.Header, rid)
		next.ServeHTTP(w, r)
	})
}

func GetRequestID(r *http.Request) string {
	return reqid.FromRequest(r)
}
