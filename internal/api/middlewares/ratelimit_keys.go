package middlewares

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/5w1tchy/lms-catalog/internal/api/apperr"
)

// KeyFunc picks the Redis key a request is counted under.
type KeyFunc func(r *http.Request) string

// PerIPKey counts requests per client IP under prefix.
func PerIPKey(prefix string) KeyFunc {
	return func(r *http.Request) string {
		ip := clientIP(r)
		if ip == "" {
			ip = "unknown"
		}
		return prefix + ":" + ip
	}
}

// clientIP trusts the first X-Forwarded-For hop; the API is expected to run
// behind a proxy that overwrites it.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xrip := strings.TrimSpace(r.Header.Get("X-Real-IP")); xrip != "" {
		return xrip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func isSafeMethod(m string) bool {
	return m == http.MethodGet || m == http.MethodHead || m == http.MethodOptions
}

// limitHeaders sets the informational X-RateLimit-* headers.
func limitHeaders(w http.ResponseWriter, policy string, limit, remaining int) {
	w.Header().Set("X-RateLimit-Policy", policy)
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(0, remaining)))
}

// tooManyRequests writes a 429 problem with Retry-After rounded up to at
// least one second.
func tooManyRequests(w http.ResponseWriter, r *http.Request, retry time.Duration, detail string) {
	sec := int(math.Ceil(retry.Seconds()))
	if sec < 1 {
		sec = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(sec))
	apperr.Write(w, r, apperr.Problem{
		Status:    http.StatusTooManyRequests,
		Title:     "Too Many Requests",
		Detail:    detail,
		Retryable: true,
	})
}
