package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string
	LogLevel       string

	DatabaseURL string
	DBHost      string
	DBUser      string
	DBPass      string
	DBName      string
	DBPort      string
	RedisURL    string

	JWTSecret string

	// StreakLocation anchors "today" for daily streak comparisons.
	StreakLocation *time.Location
	PulseWindow    time.Duration
	PulseSweepCron string

	RateLimitPulse      time.Duration
	RateLimitBulkInvite time.Duration

	NotifyWorkers   int
	NotifyQueueSize int

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string

	OTLPEndpoint string
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPass:      os.Getenv("DB_PASS"),
		DBName:      getEnv("DB_NAME", "celia"),
		DBPort:      getEnv("DB_PORT", "5432"),
		RedisURL:    os.Getenv("REDIS_URL"),

		JWTSecret: getEnv("JWT_SECRET", "change-me"),

		PulseSweepCron: getEnv("PULSE_SWEEP_CRON", "@hourly"),

		VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
		VAPIDSubject:    getEnv("VAPID_SUBJECT", "mailto:ops@celia.app"),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	var err error
	cfg.StreakLocation, err = time.LoadLocation(getEnv("STREAK_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid STREAK_TIMEZONE: %w", err)
	}

	cfg.PulseWindow, err = time.ParseDuration(getEnv("PULSE_WINDOW", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid PULSE_WINDOW: %w", err)
	}
	cfg.RateLimitPulse, err = time.ParseDuration(getEnv("RATE_LIMIT_PULSE", "1s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PULSE: %w", err)
	}
	cfg.RateLimitBulkInvite, err = time.ParseDuration(getEnv("RATE_LIMIT_BULK_INVITE", "3s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BULK_INVITE: %w", err)
	}

	cfg.NotifyWorkers, err = getInt("NOTIFY_WORKERS", 4)
	if err != nil {
		return nil, err
	}
	cfg.NotifyQueueSize, err = getInt("NOTIFY_QUEUE_SIZE", 256)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}
