// Command worker drains the Redis artifact queue filled by the API when
// ARTIFACT_QUEUE=redis.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/5w1tchy/lms-catalog/internal/config"
	"github.com/5w1tchy/lms-catalog/internal/jobs/artifacts"
	"github.com/5w1tchy/lms-catalog/internal/logging"
	"github.com/5w1tchy/lms-catalog/internal/repository/sqlconnect"
	"github.com/5w1tchy/lms-catalog/internal/store/books"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load(".env", "../../.env")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlconnect.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	opt, err := cfg.RedisOptions()
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	if opt == nil {
		log.Fatal("worker needs REDIS_URL or REDIS_ADDR")
	}
	rdb := redis.NewClient(opt)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("Redis connection failed: %v", err)
	}

	task := &artifacts.Task{Books: books.New(db), Log: logger.With("component", "artifacts")}
	queue := artifacts.NewRedisQueue(rdb, "")

	logger.Info("artifact worker started", "queue", artifacts.DefaultQueueKey)
	if err := queue.Consume(ctx, task.GenerateArtifacts); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("worker: %v", err)
	}
	logger.Info("artifact worker stopped")
}
