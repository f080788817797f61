package middlewares

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisSlidingWindow allows limit requests per key in any trailing window,
// tracked as a sorted set of request timestamps. A nil client or a Redis
// error lets the request through.
type RedisSlidingWindow struct {
	rdb    *redis.Client
	keyFn  KeyFunc
	limit  int
	window time.Duration
}

func NewRedisSlidingWindow(rdb *redis.Client, limit int, window time.Duration, keyFn KeyFunc) *RedisSlidingWindow {
	return &RedisSlidingWindow{rdb: rdb, keyFn: keyFn, limit: limit, window: window}
}

func (sw *RedisSlidingWindow) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sw.rdb == nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		key := sw.keyFn(r)
		now := time.Now()
		cutoff := now.Add(-sw.window).UnixMilli()

		var card *redis.IntCmd
		var oldest *redis.ZSliceCmd
		_, err := sw.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10))
			p.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: uuid.NewString()})
			card = p.ZCard(ctx, key)
			oldest = p.ZRangeWithScores(ctx, key, 0, 0)
			p.PExpire(ctx, key, sw.window+time.Second)
			return nil
		})
		if err != nil {
			log.Printf("[ratelimit] sliding window %s: %v (allowing)", key, err)
			next.ServeHTTP(w, r)
			return
		}

		count := int(card.Val())
		limitHeaders(w, "sliding-window", sw.limit, sw.limit-count)
		if count > sw.limit {
			retry := time.Second
			if z := oldest.Val(); len(z) == 1 {
				retry = time.UnixMilli(int64(z[0].Score)).Add(sw.window).Sub(now)
			}
			log.Printf("[ratelimit] blocked %s", key)
			tooManyRequests(w, r, retry, "too many requests in window")
			return
		}
		next.ServeHTTP(w, r)
	})
}
