package middlewares

import (
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginRateLimit allows max attempts per IP per window. It fails open when
// Redis is absent or erroring.
func LoginRateLimit(rdb *redis.Client, max int, window time.Duration) func(http.Handler) http.Handler {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = 5 * time.Minute
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if ip == "" || rdb == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			key := "rl:login:" + ip

			n, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				log.Printf("[ratelimit] login %s: %v (allowing)", key, err)
				next.ServeHTTP(w, r)
				return
			}
			if n == 1 {
				_ = rdb.Expire(ctx, key, window).Err()
			}
			if n > int64(max) {
				retry := window
				if ttl, err := rdb.PTTL(ctx, key).Result(); err == nil && ttl > 0 {
					retry = ttl
				}
				tooManyRequests(w, r, retry, "too many login attempts")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
