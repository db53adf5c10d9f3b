package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                   string
	DatabaseURL            string
	BcryptCost             int
	SessionMaxAge          time.Duration
	SessionSweepInterval   time.Duration
	RateLimitPerMinute     int
	RateLimitBurst         int
	UserRateLimitPerMinute int
	UserRateLimitBurst     int
	OTelEndpoint           string
	OTelInsecure           bool
}

func Load() Config {
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return Config{
		Port:                   port,
		DatabaseURL:            os.Getenv("DB_DSN"),
		BcryptCost:             readInt("BCRYPT_COST", 10),
		SessionMaxAge:          readDurationHours("SESSION_MAX_AGE_HOURS", 12),
		SessionSweepInterval:   readDurationSeconds("SESSION_SWEEP_INTERVAL_SECONDS", 300),
		RateLimitPerMinute:     readInt("RATE_LIMIT_PER_MIN", 120),
		RateLimitBurst:         readInt("RATE_LIMIT_BURST", 30),
		UserRateLimitPerMinute: readInt("USER_RATE_LIMIT_PER_MIN", 300),
		UserRateLimitBurst:     readInt("USER_RATE_LIMIT_BURST", 60),
		OTelEndpoint:           os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTelInsecure:           readBool("OTEL_EXPORTER_OTLP_INSECURE", false),
	}
}

func readDurationHours(key string, fallback int) time.Duration {
	value := readInt(key, fallback)
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Hour
}

func readDurationSeconds(key string, fallback int) time.Duration {
	value := readInt(key, fallback)
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Second
}

func readBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}

func readInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
