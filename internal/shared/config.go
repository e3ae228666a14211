package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration

	BackendURL string
	BackendRPS int

	SentimentURL     string
	SentimentWorkers int
	SentimentTimeout time.Duration
	SentimentRetries int
	SentimentRawPath bool

	ScanWorkers int
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/dealership?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,

		// lower-case names are what the original .env files use
		BackendURL: env("BACKEND_URL", env("backend_url", "http://localhost:3030")),
		BackendRPS: atoi("BACKEND_RPS", 20),

		SentimentURL:     env("SENTIMENT_ANALYZER_URL", env("sentiment_analyzer_url", "http://localhost:5050/")),
		SentimentWorkers: atoi("SENTIMENT_WORKERS", 4),
		SentimentTimeout: time.Duration(atoi("SENTIMENT_TIMEOUT_MS", 3000)) * time.Millisecond,
		SentimentRetries: atoi("SENTIMENT_RETRIES", 1),
		SentimentRawPath: boolean(os.Getenv("SENTIMENT_RAW_PATH")),

		ScanWorkers: atoi("SCAN_WORKERS", 4),
	}
	if c.SentimentWorkers <= 0 {
		log.Warn().Int("workers", c.SentimentWorkers).Msg("SENTIMENT_WORKERS must be positive, using 1")
		c.SentimentWorkers = 1
	}
	if c.SentimentRawPath {
		log.Warn().Msg("SENTIMENT_RAW_PATH enabled: review text is sent unescaped")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func boolean(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
