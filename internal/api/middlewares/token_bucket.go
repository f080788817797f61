package middlewares

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// tokenBucketLua refills at ARGV[1] tokens/s up to ARGV[2] and takes one.
// Returns {allowed, tokens_left, retry_after_ms}, all integers.
var tokenBucketLua = redis.NewScript(`
local rate = tonumber(ARGV[1])
local cap  = tonumber(ARGV[2])

local t   = redis.call('TIME')
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)

local state  = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens = tonumber(state[1]) or cap
local ts     = tonumber(state[2]) or now

if now > ts then
  tokens = math.min(cap, tokens + (now - ts) / 1000.0 * rate)
end

local allowed, retry = 0, 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
else
  retry = math.ceil((1 - tokens) * 1000 / rate)
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'ts', now)
redis.call('PEXPIRE', KEYS[1], math.ceil(cap / rate * 1000))
return {allowed, math.floor(tokens), retry}
`)

// RedisTokenBucket smooths bursts per key. A nil client or a Redis error
// lets the request through.
type RedisTokenBucket struct {
	rdb   *redis.Client
	keyFn KeyFunc
	rate  float64
	burst int

	// WritesOnly exempts GET, HEAD and OPTIONS.
	WritesOnly bool
}

func NewRedisTokenBucket(rdb *redis.Client, ratePerSecond float64, burst int, keyFn KeyFunc) *RedisTokenBucket {
	if ratePerSecond <= 0 {
		ratePerSecond = 5
	}
	if burst < 1 {
		burst = 20
	}
	return &RedisTokenBucket{rdb: rdb, keyFn: keyFn, rate: ratePerSecond, burst: burst}
}

func (tb *RedisTokenBucket) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tb.rdb == nil || (tb.WritesOnly && isSafeMethod(r.Method)) {
			next.ServeHTTP(w, r)
			return
		}
		key := tb.keyFn(r)
		res, err := tokenBucketLua.Run(r.Context(), tb.rdb, []string{key},
			strconv.FormatFloat(tb.rate, 'f', -1, 64), tb.burst,
		).Int64Slice()
		if err != nil || len(res) != 3 {
			log.Printf("[ratelimit] token bucket %s: %v (allowing)", key, err)
			next.ServeHTTP(w, r)
			return
		}

		limitHeaders(w, "token-bucket", tb.burst, int(res[1]))
		if res[0] != 1 {
			log.Printf("[ratelimit] blocked %s", key)
			tooManyRequests(w, r, time.Duration(res[2])*time.Millisecond, "request rate exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
