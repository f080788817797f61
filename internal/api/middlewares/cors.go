package middlewares

import (
	"log"
	"net/http"
	"slices"
)

var defaultOrigins = []string{
	"http://localhost:5173",
	"http://127.0.0.1:5173",
}

// Cors allows the given origins, or the local dev origins when none are set.
func Cors(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = defaultOrigins
	}
	allowed := slices.Clone(origins)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			ok := slices.Contains(allowed, origin)
			if origin != "" && !ok {
				log.Printf("[CORS] Blocked request from origin: %s on %s %s\n",
					origin, r.Method, r.URL.Path)
				http.Error(w, "Origin not allowed", http.StatusForbidden)
				return
			}

			if ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
			}

			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, POST, PATCH, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Max-Age", "3600")
			w.Header().Set("Access-Control-Expose-Headers",
				"X-Request-ID, X-RateLimit-Policy, X-RateLimit-Limit, X-RateLimit-Remaining, Retry-After, X-Response-Time, X-Total-Count")

			// Fast-path preflight
			if r.Method == http.MethodOptions {
				w.Header().Add("Vary", "Access-Control-Request-Method")
				w.Header().Add("Vary", "Access-Control-Request-Headers")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
