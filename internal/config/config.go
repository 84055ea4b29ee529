package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/openwitness/witness-backend/internal/logger"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// Feed — внешняя лента для автоматического импорта.
type Feed struct {
	Name string
	URL  string
}

// Config хранит все параметры запуска приложения.
type Config struct {
	Env              string
	LogLevel         string
	HTTPPort         string
	StorageDriver    string
	DatabaseURL      string
	SQLitePath       string
	MediaStoragePath string
	MaxUploadSizeMB  int64
	AllowedOrigins   []string
	RateLimitLimit   int64
	RateLimitPeriod  time.Duration

	IngestionEnabled        bool
	IngestionSchedule       string
	IngestionFeeds          []Feed
	ReputationSweepSchedule string
	NewsWitnessID           string

	// SeedSampleData загружает демонстрационные свидетельства при старте.
	SeedSampleData bool
}

// Load читает .env (если он есть) и переменные окружения.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		logger.Log.Debugf("config: .env не найден, используем переменные окружения: %v", err)
	}
	return FromEnv()
}

// FromEnv собирает конфигурацию только из переменных окружения.
func FromEnv() (*Config, error) {
	env := getEnv("APP_ENV", "development")

	cfg := &Config{
		Env:                     env,
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		HTTPPort:                getEnv("HTTP_PORT", "8080"),
		StorageDriver:           strings.ToLower(getEnv("STORAGE_DRIVER", StorageMemory)),
		DatabaseURL:             getDatabaseURL(),
		SQLitePath:              getEnv("SQLITE_PATH", "./storage/witness.db"),
		MediaStoragePath:        getEnv("MEDIA_STORAGE_PATH", "./storage/media"),
		IngestionSchedule:       getEnv("INGESTION_SCHEDULE", "*/10 * * * *"),
		ReputationSweepSchedule: getEnv("REPUTATION_SWEEP_SCHEDULE", "@hourly"),
		NewsWitnessID:           getEnv("NEWS_WITNESS_ID", "OW_AI_NEWS"),
	}

	switch cfg.StorageDriver {
	case StorageMemory, StoragePostgres, StorageSQLite:
	default:
		return nil, fmt.Errorf("config: неизвестный STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	if cfg.StorageDriver == StoragePostgres && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("config: для STORAGE_DRIVER=postgres нужен DATABASE_URL или POSTGRESQL_*")
	}

	originsStr := getEnv("CORS_ALLOWED_ORIGINS", "")
	if originsStr == "" {
		if env == "production" {
			return nil, fmt.Errorf("config: CORS_ALLOWED_ORIGINS обязателен в production")
		}
		cfg.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	} else {
		cfg.AllowedOrigins = splitList(originsStr)
	}

	var err error
	if cfg.MaxUploadSizeMB, err = parseInt64("MAX_UPLOAD_MB", "25"); err != nil {
		return nil, err
	}
	if cfg.RateLimitLimit, err = parseInt64("RATE_LIMIT_LIMIT", "30"); err != nil {
		return nil, err
	}
	if cfg.RateLimitPeriod, err = parseDuration("RATE_LIMIT_PERIOD", "1m"); err != nil {
		return nil, err
	}
	if cfg.IngestionEnabled, err = parseBool("INGESTION_ENABLED", "false"); err != nil {
		return nil, err
	}
	if cfg.SeedSampleData, err = parseBool("SEED_SAMPLE_DATA", "false"); err != nil {
		return nil, err
	}
	if cfg.IngestionFeeds, err = ParseFeeds(getEnv("INGESTION_FEEDS", "")); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ParseFeeds разбирает список вида name=url,name=url.
func ParseFeeds(raw string) ([]Feed, error) {
	var feeds []Feed
	for _, part := range splitList(raw) {
		name, rawURL, ok := strings.Cut(part, "=")
		name, rawURL = strings.TrimSpace(name), strings.TrimSpace(rawURL)
		if !ok || name == "" || rawURL == "" {
			return nil, fmt.Errorf("config: запись INGESTION_FEEDS %q должна иметь вид name=url", part)
		}
		u, err := url.Parse(rawURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return nil, fmt.Errorf("config: некорректный адрес ленты %q", rawURL)
		}
		feeds = append(feeds, Feed{Name: name, URL: rawURL})
	}
	return feeds, nil
}

// getEnv возвращает значение переменной окружения или дефолт.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getDatabaseURL возвращает DATABASE_URL либо собирает его из POSTGRESQL_*.
func getDatabaseURL() string {
	if dbURL := getEnv("DATABASE_URL", ""); dbURL != "" {
		return dbURL
	}

	host := getEnv("POSTGRESQL_HOST", "")
	port := getEnv("POSTGRESQL_PORT", "5432")
	user := getEnv("POSTGRESQL_USER", "")
	password := getEnv("POSTGRESQL_PASSWORD", "")
	dbname := getEnv("POSTGRESQL_DBNAME", "")

	if host != "" && user != "" && dbname != "" {
		userInfo := url.UserPassword(user, password)
		return fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=disable",
			userInfo.String(), host, port, dbname)
	}
	return ""
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseDuration(key, fallback string) (time.Duration, error) {
	v := getEnv(key, fallback)
	dur, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: не удалось распарсить %s=%q: %w", key, v, err)
	}
	return dur, nil
}

func parseInt64(key, fallback string) (int64, error) {
	v := getEnv(key, fallback)
	num, err := strconv.ParseInt(v, 10, 64)
	if err != nil || num <= 0 {
		return 0, fmt.Errorf("config: %s должен быть положительным числом, получено %q", key, v)
	}
	return num, nil
}

func parseBool(key, fallback string) (bool, error) {
	v := getEnv(key, fallback)
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: не удалось распарсить %s=%q: %w", key, v, err)
	}
	return b, nil
}
