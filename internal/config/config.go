// Package config loads runtime settings from the environment (optionally via
// a .env file) and holds the gamification constants.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the backend.
type Config struct {
	// UseLocalBackend selects the store-backed services; false selects the
	// HTTP-backed ones talking to APIBaseURL.
	UseLocalBackend bool
	APIBaseURL      string
	APITimeout      time.Duration
	APIMaxRetries   int

	// Store
	DBDriver    string // sqlite | postgres
	DBDSN       string
	WorkDir     string
	SnapshotKey string

	// Host key/value persistence
	KVBackend   string // memory | file | redis
	KVDir       string
	RedisAddr   string
	RedisPass   string
	RedisDB     int
	RedisPrefix string

	// HTTP surface
	HTTPAddr     string
	JWTSecret    string
	JWTTTL       time.Duration
	RateLimitRPS int
	RateBurst    int

	TelegramBotToken string
	LogLevel         string
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		UseLocalBackend: getBool("USE_LOCAL_BACKEND", true),
		APIBaseURL:      getEnv("API_BASE_URL", "http://localhost:8080"),
		APITimeout:      getDuration("API_TIMEOUT", 30*time.Second),
		APIMaxRetries:   getInt("API_MAX_RETRIES", 2),

		DBDriver:    getEnv("DB_DRIVER", "sqlite"),
		DBDSN:       os.Getenv("DB_DSN"),
		WorkDir:     getEnv("WORK_DIR", os.TempDir()),
		SnapshotKey: getEnv("SNAPSHOT_KEY", "complaints_db"),

		KVBackend:   getEnv("KV_BACKEND", "file"),
		KVDir:       getEnv("KV_DIR", "data"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:     getInt("REDIS_DB", 0),
		RedisPrefix: getEnv("REDIS_PREFIX", "complaints:"),

		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		JWTSecret:    getEnv("JWT_SECRET", "changeme"),
		JWTTTL:       getDuration("JWT_TTL", 72*time.Hour),
		RateLimitRPS: getInt("RATE_LIMIT_RPS", 20),
		RateBurst:    getInt("RATE_LIMIT_BURST", 40),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected backends are fully configured.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite":
	case "postgres":
		if c.DBDSN == "" {
			return fmt.Errorf("DB_DSN is required when DB_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch c.KVBackend {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("unsupported KV_BACKEND %q", c.KVBackend)
	}

	if !c.UseLocalBackend && c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required when USE_LOCAL_BACKEND=false")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return b
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return d
}
