package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrInvalidRefresh = errors.New("invalid refresh token")

const refreshPrefix = "rt:"

// RedisRefreshStore stores "userID|tokenVersion" under rt:<token>.
type RedisRefreshStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisRefreshStore(rdb *redis.Client, ttl time.Duration) *RedisRefreshStore {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &RedisRefreshStore{rdb: rdb, ttl: ttl}
}

func (s *RedisRefreshStore) Issue(ctx context.Context, userID string, tokenVersion int) (string, error) {
	token, err := randToken()
	if err != nil {
		return "", err
	}
	val := userID + "|" + strconv.Itoa(tokenVersion)
	if err := s.rdb.Set(ctx, refreshPrefix+token, val, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store refresh token: %w", err)
	}
	return token, nil
}

// Consume is single-use: GETDEL makes a replayed token fail.
func (s *RedisRefreshStore) Consume(ctx context.Context, token string) (string, int, error) {
	val, err := s.rdb.GetDel(ctx, refreshPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", 0, ErrInvalidRefresh
	}
	if err != nil {
		return "", 0, err
	}
	return parseRefreshValue(val)
}

func (s *RedisRefreshStore) Revoke(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, refreshPrefix+token).Err()
}

func parseRefreshValue(val string) (string, int, error) {
	userID, tv, ok := strings.Cut(val, "|")
	if !ok || userID == "" {
		return "", 0, ErrInvalidRefresh
	}
	n, err := strconv.Atoi(tv)
	if err != nil {
		return "", 0, ErrInvalidRefresh
	}
	return userID, n, nil
}

func randToken() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
