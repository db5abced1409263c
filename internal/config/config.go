package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment    string
	DBDSN          string
	HTTPAddr       string
	JWTSecret      string
	MigrationsPath string

	Location          *time.Location
	LastBookingTime   time.Duration
	ClosingTime       time.Duration
	ReconcileInterval time.Duration
	CompletionGrace   time.Duration
	SweepBatchSize    int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RabbitMQURL   string
	TelegramToken string
}

func Load() (*Config, error) {
	// .env необязателен, переменные окружения имеют приоритет
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	return FromLookup(os.LookupEnv)
}

// FromLookup собирает конфиг из произвольного источника переменных
func FromLookup(lookup func(key string) (string, bool)) (*Config, error) {
	env := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := &Config{
		Environment:    env("ENV", "development"),
		DBDSN:          env("DB_DSN", ""),
		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		JWTSecret:      env("JWT_SECRET", ""),
		MigrationsPath: env("MIGRATIONS_PATH", "migrations"),
		RedisAddr:      env("REDIS_ADDR", ""),
		RedisPassword:  env("REDIS_PASSWORD", ""),
		RabbitMQURL:    env("RABBITMQ_URL", ""),
		TelegramToken:  env("TELEGRAM_TOKEN", ""),
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	var err error

	if cfg.Location, err = time.LoadLocation(env("TIMEZONE", "Europe/Warsaw")); err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}

	if cfg.LastBookingTime, err = ParseClock(env("LAST_BOOKING_TIME", "19:00")); err != nil {
		return nil, fmt.Errorf("LAST_BOOKING_TIME: %w", err)
	}

	if cfg.ClosingTime, err = ParseClock(env("CLOSING_TIME", "22:00")); err != nil {
		return nil, fmt.Errorf("CLOSING_TIME: %w", err)
	}

	if cfg.LastBookingTime >= cfg.ClosingTime {
		return nil, fmt.Errorf("LAST_BOOKING_TIME must be earlier than CLOSING_TIME")
	}

	if cfg.ReconcileInterval, err = positiveDuration(env("RECONCILE_INTERVAL", "5m")); err != nil {
		return nil, fmt.Errorf("RECONCILE_INTERVAL: %w", err)
	}

	if cfg.CompletionGrace, err = time.ParseDuration(env("COMPLETION_GRACE", "10m")); err != nil || cfg.CompletionGrace < 0 {
		return nil, fmt.Errorf("COMPLETION_GRACE: invalid value %q", env("COMPLETION_GRACE", "10m"))
	}

	if cfg.SweepBatchSize, err = strconv.Atoi(env("SWEEP_BATCH_SIZE", "500")); err != nil || cfg.SweepBatchSize < 1 {
		return nil, fmt.Errorf("SWEEP_BATCH_SIZE: invalid value %q", env("SWEEP_BATCH_SIZE", "500"))
	}

	if cfg.RedisDB, err = strconv.Atoi(env("REDIS_DB", "0")); err != nil {
		return nil, fmt.Errorf("REDIS_DB: %w", err)
	}

	return cfg, nil
}

// ParseClock разбирает время суток "HH:MM" в смещение от полуночи
func ParseClock(value string) (time.Duration, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q, expected HH:MM", value)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func positiveDuration(value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
