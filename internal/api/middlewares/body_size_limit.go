package middlewares

import (
	"mime"
	"net/http"
)

// BodySizeLimit caps request bodies on POST, PUT and PATCH. Non-positive
// limits fall back to 10MB. multipart/form-data bodies are left to the
// upload handlers, which enforce their own, larger cap.
func BodySizeLimit(limit int64) func(http.Handler) http.Handler {
	if limit <= 0 {
		limit = 10 << 20
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch:
				if !isMultipart(r) {
					r.Body = http.MaxBytesReader(w, r.Body, limit)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}
