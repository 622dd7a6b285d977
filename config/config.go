package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Env      string
	Port     string
	LogLevel string

	DBDriver string
	DSN      string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	SearchCacheTTL time.Duration

	BillingURL  string
	BillingPage string
	HTTPTimeout time.Duration

	InvoiceDir string
	ChromePath string
}

// LoadEnv pulls .env into the process environment outside production.
// A missing file is not an error.
func LoadEnv() error {
	if os.Getenv("ENV") == "production" {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load reads the configuration from the environment.
func Load() (cfg Config, err error) {
	if err = LoadEnv(); err != nil {
		return
	}
	cfg = Config{
		Env:         getenv("ENV", "development"),
		Port:        strings.TrimPrefix(getenv("PORT", "8080"), ":"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		DBDriver:    getenv("DB_DRIVER", "postgres"),
		RedisAddr:   redisAddr(),
		BillingURL:  getenv("BILLING_URL", "http://localhost:8080"),
		BillingPage: getenv("BILLING_PAGE", "/billing/"),
		InvoiceDir:  getenv("INVOICE_DIR", "invoices"),
		ChromePath:  os.Getenv("CHROME_PATH"),

		RedisPassword: os.Getenv("REDIS_PASSWORD"),
	}

	switch cfg.DBDriver {
	case "postgres", "pgx", "sqlite3":
	default:
		err = fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
		return
	}
	if cfg.DSN, err = dsn(cfg.DBDriver); err != nil {
		return
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return
	}
	if cfg.SearchCacheTTL, err = getDuration("SEARCH_CACHE_TTL", time.Minute); err != nil {
		return
	}
	if cfg.HTTPTimeout, err = getDuration("HTTP_TIMEOUT", 30*time.Second); err != nil {
		return
	}
	return
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func dsn(driver string) (string, error) {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url, nil
	}
	if driver == "sqlite3" {
		return "file:billing.db?_foreign_keys=on", nil
	}
	host := os.Getenv("DATABASE_HOST")
	user := os.Getenv("DATABASE_USER")
	name := os.Getenv("DATABASE_NAME")
	if host == "" || user == "" || name == "" {
		return "", fmt.Errorf("database connection variables not set. Set DATABASE_URL or DATABASE_HOST, DATABASE_USER, DATABASE_NAME")
	}
	port := getenv("DATABASE_PORT", "5432")
	pass := os.Getenv("DATABASE_PASSWORD")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, pass, host, port, name), nil
}

// redisAddr is empty when REDIS_HOST is unset, which disables the search cache.
func redisAddr() string {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		return ""
	}
	return host + ":" + getenv("REDIS_PORT", "6379")
}

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// getDuration accepts Go durations ("45s") or bare seconds ("45").
func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// NewLogger builds a production logger in production and a development
// logger elsewhere, at LOG_LEVEL.
func (c Config) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	zc := zap.NewDevelopmentConfig()
	if c.IsProduction() {
		zc = zap.NewProductionConfig()
	}
	zc.Level = level
	return zc.Build()
}
