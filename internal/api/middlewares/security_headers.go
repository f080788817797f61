package middlewares

import "net/http"

// SecurityHeaders sets conservative response headers. strict adds the
// cross-origin isolation headers, which break embeds that are not compliant.
func SecurityHeaders(strict bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-DNS-Prefetch-Control", "off")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("Referrer-Policy", "no-referrer")
			w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")

			// HSTS is only honoured over HTTPS
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
			}

			w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

			if strict {
				w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
				w.Header().Set("Cross-Origin-Embedder-Policy", "require-corp")
				w.Header().Set("Cross-Origin-Resource-Policy", "same-origin")
			}

			w.Header().Set("Server", "")

			next.ServeHTTP(w, r)
		})
	}
}
