// Command activatebooks marks every inactive book active, running each one
// through the normal lifecycle hooks, and exits.
package main

import (
	"context"
	"log"
	"time"

	"github.com/5w1tchy/lms-catalog/internal/catalog"
	"github.com/5w1tchy/lms-catalog/internal/config"
	"github.com/5w1tchy/lms-catalog/internal/jobs/artifacts"
	"github.com/5w1tchy/lms-catalog/internal/lifecycle"
	"github.com/5w1tchy/lms-catalog/internal/logging"
	"github.com/5w1tchy/lms-catalog/internal/repository/sqlconnect"
	"github.com/5w1tchy/lms-catalog/internal/store/books"
	"github.com/5w1tchy/lms-catalog/internal/store/statscache"
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

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := sqlconnect.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var rdb *redis.Client
	if opt, err := cfg.RedisOptions(); err != nil {
		log.Fatalf("redis: %v", err)
	} else if opt != nil {
		rdb = redis.NewClient(opt)
		defer rdb.Close()
	}

	store := books.New(db)
	task := &artifacts.Task{Books: store, Log: logger.With("component", "artifacts")}
	runner := artifacts.NewRunner(task.GenerateArtifacts, cfg.ArtifactBuffer, 1, 0)
	engine := lifecycle.NewEngine(lifecycle.LogNotifier{Log: logger.With("component", "lifecycle")}, runner)
	svc := catalog.NewService(store, engine, statscache.New(rdb, cfg.StatsCacheTTL, 0))

	n, err := svc.ActivateInactive(ctx)
	if err != nil {
		log.Fatalf("activate: %v", err)
	}
	if err := runner.Shutdown(ctx); err != nil {
		log.Printf("artifact runner: %v", err)
	}
	log.Printf("activated %d book(s)", n)
}
