package config

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	AppEnv      string
	LogMode     string
	Addr        string
	TLSCert     string
	TLSKey      string
	DatabaseURL string

	RedisURL      string
	RedisAddr     string
	RedisUser     string
	RedisPassword string

	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ClockSkew  time.Duration

	Argon2Memory uint32
	Argon2Iter   uint32
	Argon2Par    uint8

	// ArtifactQueue is "memory" (in-process runner) or "redis".
	ArtifactQueue   string
	ArtifactWorkers int
	ArtifactBuffer  int

	StatsCacheTTL time.Duration

	RateLimitPerSec float64
	RateLimitBurst  int
	MaxBodyBytes    int64
	CORSOrigins     []string

	S3Bucket       string
	S3Endpoint     string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	MaxUploadBytes int64
}

// Load reads .env files (missing files are fine) and then the environment.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	var errs []error
	dur := func(key, def string) time.Duration {
		d, err := envDuration(key, def)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return d
	}

	c := Config{
		AppEnv:      env("APP_ENV", "development"),
		LogMode:     env("LOG_MODE", "dev"),
		Addr:        env("HTTP_ADDR", ":3000"),
		TLSCert:     os.Getenv("TLS_CERT_FILE"),
		TLSKey:      os.Getenv("TLS_KEY_FILE"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisURL:      os.Getenv("REDIS_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisUser:     os.Getenv("REDIS_USER"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret:  os.Getenv("AUTH_JWT_SECRET"),
		AccessTTL:  dur("AUTH_ACCESS_TTL", "15m"),
		RefreshTTL: dur("AUTH_REFRESH_TTL", "720h"),
		ClockSkew:  dur("AUTH_CLOCK_SKEW", "60s"),

		Argon2Memory: uint32(envUint("ARGON2_MEMORY", 131072, 32)),
		Argon2Iter:   uint32(envUint("ARGON2_ITER", 3, 32)),
		Argon2Par:    uint8(envUint("ARGON2_PAR", 1, 8)),

		ArtifactQueue:   strings.ToLower(env("ARTIFACT_QUEUE", "memory")),
		ArtifactWorkers: int(envUint("ARTIFACT_WORKERS", 2, 16)),
		ArtifactBuffer:  int(envUint("ARTIFACT_BUFFER", 1024, 32)),

		StatsCacheTTL: dur("STATS_CACHE_TTL", "10m"),

		RateLimitBurst: int(envUint("RATE_LIMIT_BURST", 20, 32)),
		MaxBodyBytes:   int64(envUint("MAX_BODY_BYTES", 1<<20, 63)),
		CORSOrigins:    splitCSV(os.Getenv("CORS_ORIGINS")),

		S3Bucket:       os.Getenv("S3_BUCKET"),
		S3Endpoint:     os.Getenv("S3_ENDPOINT"),
		S3Region:       env("S3_REGION", "auto"),
		S3AccessKey:    os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretKey:    os.Getenv("S3_SECRET_ACCESS_KEY"),
		MaxUploadBytes: int64(envUint("MAX_UPLOAD_BYTES", 5<<20, 63)),
	}
	rate, err := strconv.ParseFloat(env("RATE_LIMIT_PER_SEC", "5"), 64)
	if err != nil || rate <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_SEC: must be a positive number"))
	}
	c.RateLimitPerSec = rate

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return c, nil
}

// Validate fails fast on configuration the API cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL not set"))
	}
	if len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("AUTH_JWT_SECRET must be at least 32 characters"))
	}
	if c.Argon2Memory < 65536 {
		errs = append(errs, errors.New("ARGON2_MEMORY must be >= 65536 (64 MiB)"))
	}
	if c.Argon2Iter < 2 {
		errs = append(errs, errors.New("ARGON2_ITER must be >= 2"))
	}
	if c.Argon2Par < 1 {
		errs = append(errs, errors.New("ARGON2_PAR must be >= 1"))
	}
	switch c.ArtifactQueue {
	case "memory":
	case "redis":
		if !c.HasRedis() {
			errs = append(errs, errors.New("ARTIFACT_QUEUE=redis requires REDIS_URL or REDIS_ADDR"))
		}
	default:
		errs = append(errs, fmt.Errorf("ARTIFACT_QUEUE must be memory or redis, got %q", c.ArtifactQueue))
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		errs = append(errs, errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together"))
	}
	return errors.Join(errs...)
}

// HardeningWarnings returns non-fatal warnings worth logging on startup.
func (c Config) HardeningWarnings() []string {
	var warns []string
	if c.AccessTTL > time.Hour {
		warns = append(warns, fmt.Sprintf("AUTH_ACCESS_TTL=%s is > 1h; consider shorter access tokens", c.AccessTTL))
	}
	if c.RefreshTTL < 24*time.Hour {
		warns = append(warns, fmt.Sprintf("AUTH_REFRESH_TTL=%s is < 24h; users may be logged out too often", c.RefreshTTL))
	}
	if !c.HasRedis() {
		warns = append(warns, "no Redis configured; rate limiting, refresh tokens and the stats cache are disabled")
	}
	if c.S3Bucket == "" {
		warns = append(warns, "S3_BUCKET not set; cover and author photo uploads are disabled")
	}
	if strings.EqualFold(c.AppEnv, "production") {
		if os.Getenv("ARGON2_MEMORY") == "" || os.Getenv("ARGON2_ITER") == "" {
			warns = append(warns, "ARGON2_* not explicitly set; using code defaults. Set strong values in production")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			warns = append(warns, "REDIS_URL uses redis:// (no TLS). Prefer rediss:// for TLS")
		}
		if c.RedisURL == "" && c.RedisAddr != "" && (c.RedisUser == "" || c.RedisPassword == "") {
			warns = append(warns, "REDIS_ADDR provided without REDIS_USER/REDIS_PASSWORD; require auth in production")
		}
		if c.TLSCert == "" {
			warns = append(warns, "TLS_CERT_FILE not set; serving plain HTTP")
		}
		if len(c.CORSOrigins) == 0 {
			warns = append(warns, "CORS_ORIGINS empty; browsers will be refused cross-origin access")
		}
	}
	return warns
}

func (c Config) HasRedis() bool { return c.RedisURL != "" || c.RedisAddr != "" }

// RedisOptions builds client options from either REDIS_URL or the split
// REDIS_ADDR/REDIS_USER/REDIS_PASSWORD fields. It returns nil, nil when no
// Redis is configured.
func (c Config) RedisOptions() (*redis.Options, error) {
	if c.RedisURL != "" {
		opt, err := redis.ParseURL(c.RedisURL) // e.g. rediss://default:<token>@host:port
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		if strings.HasPrefix(c.RedisURL, "rediss://") && opt.TLSConfig == nil {
			opt.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		opt.DialTimeout = 5 * time.Second
		opt.ReadTimeout = time.Second
		opt.WriteTimeout = time.Second
		return opt, nil
	}
	if c.RedisAddr == "" {
		return nil, nil
	}
	opt := &redis.Options{
		Addr:         c.RedisAddr,
		Username:     c.RedisUser,
		Password:     c.RedisPassword,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	}
	if c.RedisPassword != "" {
		opt.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opt, nil
}

// --- helpers ---

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envDuration(key, def string) (time.Duration, error) {
	s := env(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

func envUint(key string, def uint64, bits int) uint64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, bits); err == nil {
			return n
		}
	}
	return def
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
