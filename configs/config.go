package configs

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config is the flat env-driven configuration for the service. Load
// reads .env when present, then the process environment.
type Config struct {
	Port      string
	AppEnv    string
	MongoURI  string
	DBName    string
	JWTSecret string

	LogLevel  string
	LogFormat string

	RedisAddr    string
	KafkaBrokers []string
	KafkaTopic   string

	TrendingWindowDays int
	TrendingCacheTTL   time.Duration
	ViewRateLimit      int
	ViewRatePeriod     time.Duration
	ViewDedupWindow    time.Duration
}

func Load() Config {
	// Missing .env is fine in containers; env vars take over.
	_ = godotenv.Load()

	return Config{
		Port:      getenv("PORT", "3000"),
		AppEnv:    getenv("APP_ENV", "production"),
		MongoURI:  getenv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:    getenv("DB_NAME", "roamly"),
		JWTSecret: os.Getenv("JWT_SECRET"),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "json"),

		RedisAddr:    os.Getenv("REDIS_ADDR"),
		KafkaBrokers: splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getenv("KAFKA_TOPIC", "engagement.events"),

		TrendingWindowDays: getenvInt("TRENDING_WINDOW_DAYS", 7),
		TrendingCacheTTL:   getenvDuration("TRENDING_CACHE_TTL", time.Minute),
		ViewRateLimit:      getenvInt("VIEW_RATE_LIMIT", 30),
		ViewRatePeriod:     getenvDuration("VIEW_RATE_PERIOD", time.Minute),
		ViewDedupWindow:    getenvDuration("VIEW_DEDUP_WINDOW", 5*time.Minute),
	}
}

func (c Config) DevMode() bool { return c.AppEnv == "development" }

// NewLogger builds the process logger: JSON by default, console when
// LOG_FORMAT=console.
func (c Config) NewLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if c.LogFormat == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
