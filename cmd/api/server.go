package main

import (
	"context"
	"crypto/tls"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	booksh "github.com/5w1tchy/lms-catalog/internal/api/handlers/books"
	catalogh "github.com/5w1tchy/lms-catalog/internal/api/handlers/catalog"
	mw "github.com/5w1tchy/lms-catalog/internal/api/middlewares"
	"github.com/5w1tchy/lms-catalog/internal/api/router"
	"github.com/5w1tchy/lms-catalog/internal/auth"
	"github.com/5w1tchy/lms-catalog/internal/catalog"
	"github.com/5w1tchy/lms-catalog/internal/config"
	"github.com/5w1tchy/lms-catalog/internal/jobs/artifacts"
	"github.com/5w1tchy/lms-catalog/internal/lifecycle"
	"github.com/5w1tchy/lms-catalog/internal/logging"
	"github.com/5w1tchy/lms-catalog/internal/repository/sqlconnect"
	jwtutil "github.com/5w1tchy/lms-catalog/internal/security/jwt"
	"github.com/5w1tchy/lms-catalog/internal/security/password"
	s3store "github.com/5w1tchy/lms-catalog/internal/storage/s3"
	"github.com/5w1tchy/lms-catalog/internal/store/books"
	storecatalog "github.com/5w1tchy/lms-catalog/internal/store/catalog"
	"github.com/5w1tchy/lms-catalog/internal/store/statscache"
	"github.com/5w1tchy/lms-catalog/internal/store/users"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load(".env", "../../.env")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	for _, w := range cfg.HardeningWarnings() {
		log.Printf("[config] warning: %s", w)
	}

	logger, err := logging.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	db, err := sqlconnect.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to Postgres")

	rdb := connectRedis(ctx, cfg)
	if rdb != nil {
		defer rdb.Close()
	}

	jwtutil.Configure(jwtutil.Config{
		Secret:    []byte(cfg.JWTSecret),
		ClockSkew: cfg.ClockSkew,
		AccessTTL: cfg.AccessTTL,
	})
	password.SetParams(password.Params{
		Memory:      cfg.Argon2Memory,
		Iterations:  cfg.Argon2Iter,
		Parallelism: cfg.Argon2Par,
	})

	bookStore := books.New(db)
	catalogStore := storecatalog.New(db)
	userStore := users.NewSQLStore(db)

	task := &artifacts.Task{Books: bookStore, Log: logger.With("component", "artifacts")}
	var (
		submitter lifecycle.Submitter
		runner    *artifacts.Runner
		queue     *artifacts.RedisQueue
	)
	switch {
	case cfg.ArtifactQueue == "redis" && rdb != nil:
		queue = artifacts.NewRedisQueue(rdb, "")
		submitter = queue
	default:
		runner = artifacts.NewRunner(task.GenerateArtifacts, cfg.ArtifactBuffer, cfg.ArtifactWorkers, 0)
		submitter = runner
	}

	engine := lifecycle.NewEngine(lifecycle.LogNotifier{Log: logger.With("component", "lifecycle")}, submitter)
	cache := statscache.New(rdb, cfg.StatsCacheTTL, 0)
	svc := catalog.NewService(bookStore, engine, cache)

	var media booksh.Media
	if cfg.S3Bucket != "" {
		client, err := s3store.NewClient(ctx, s3store.Options{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			log.Fatalf("s3: %v", err)
		}
		media = client
	} else {
		log.Println("[media] S3_BUCKET not set; uploads disabled")
	}

	var refresh auth.RefreshStore
	if rdb != nil {
		refresh = auth.NewRedisRefreshStore(rdb, cfg.RefreshTTL)
	}

	api := router.Router(router.Deps{
		Books:   booksh.New(svc, media, cfg.MaxUploadBytes),
		Catalog: catalogh.New(catalogStore, svc.InvalidateStats),
		Auth:    auth.New(userStore, refresh),
		Users:   userStore,
		RDB:     rdb,
	})

	tb := mw.NewRedisTokenBucket(rdb, cfg.RateLimitPerSec, cfg.RateLimitBurst, mw.PerIPKey("tb"))
	tb.WritesOnly = true

	handler := mw.Chain(api,
		mw.RequestID,
		mw.Recovery,
		mw.ResponseTime,
		mw.Cors(cfg.CORSOrigins),
		mw.SecurityHeaders(cfg.TLSCert != ""),
		tb.Middleware,
		mw.BodySizeLimit(cfg.MaxBodyBytes),
		mw.Compression,
	)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
	}

	errCh := make(chan error, 1)
	go func() {
		log.Println("Server is running on", cfg.Addr)
		if cfg.TLSCert != "" && cfg.TLSKey != "" {
			errCh <- server.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
			return
		}
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalln("Error starting server:", err)
		}
	case sig := <-stop:
		log.Printf("shutting down (%s)", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	if runner != nil {
		if err := runner.Shutdown(shutdownCtx); err != nil {
			log.Printf("artifact runner shutdown: %v", err)
		}
	}
	if queue != nil {
		queue.Wait()
	}
}

// connectRedis returns nil when Redis is not configured. A configured but
// unreachable Redis is fatal.
func connectRedis(ctx context.Context, cfg config.Config) *redis.Client {
	opt, err := cfg.RedisOptions()
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	if opt == nil {
		log.Println("[redis] not configured; rate limits, refresh tokens and stats cache disabled")
		return nil
	}
	rdb := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Fatalf("Redis connection failed: %v", err)
	}
	log.Println("Connected to Redis")
	return rdb
}
