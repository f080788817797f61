package artifacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const DefaultQueueKey = "catalog:jobs:artifacts"

// Envelope is the wire form of one submitted batch.
type Envelope struct {
	ID         string    `json:"id"`
	BookIDs    []int64   `json:"book_ids"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

func NewEnvelope(bookIDs []int64) Envelope {
	return Envelope{ID: uuid.NewString(), BookIDs: slices.Clone(bookIDs), EnqueuedAt: time.Now().UTC()}
}

func DecodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.ID == "" || len(env.BookIDs) == 0 {
		return Envelope{}, errors.New("decode envelope: missing id or book_ids")
	}
	return env, nil
}

// RedisQueue is the out-of-process Submitter. Producers LPUSH, a separate
// worker process BRPOPs (cmd/worker).
type RedisQueue struct {
	rdb     *redis.Client
	key     string
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewRedisQueue(rdb *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = DefaultQueueKey
	}
	return &RedisQueue{rdb: rdb, key: key, timeout: 2 * time.Second}
}

// Submit pushes in the background so the caller never waits on Redis.
func (q *RedisQueue) Submit(bookIDs []int64) {
	if len(bookIDs) == 0 {
		return
	}
	env := NewEnvelope(bookIDs)
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		b, err := json.Marshal(env)
		if err != nil {
			log.Printf("[artifacts] encode %s: %v", env.ID, err)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		defer cancel()
		if err := q.rdb.LPush(ctx, q.key, b).Err(); err != nil {
			log.Printf("[artifacts] enqueue %s %v failed: %v", env.ID, env.BookIDs, err)
		}
	}()
}

// Wait blocks until in-flight pushes have finished.
func (q *RedisQueue) Wait() { q.wg.Wait() }

// Consume pops envelopes until ctx is cancelled. A failing or panicking
// handler is logged and the loop moves on; batches are never retried.
func (q *RedisQueue) Consume(ctx context.Context, handle Handler) error {
	for {
		res, err := q.rdb.BRPop(ctx, 5*time.Second, q.key).Result()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			log.Printf("[artifacts] brpop: %v", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		// res = [key, value]
		env, err := DecodeEnvelope([]byte(res[1]))
		if err != nil {
			log.Printf("[artifacts] dropping malformed job: %v", err)
			continue
		}
		runEnvelope(ctx, handle, env)
	}
}

func runEnvelope(ctx context.Context, handle Handler, env Envelope) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[artifacts] job %s panicked: %v", env.ID, rec)
		}
	}()
	if err := handle(ctx, env.BookIDs); err != nil {
		log.Printf("[artifacts] job %s failed: %v", env.ID, err)
	}
}
