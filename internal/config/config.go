// Package config loads runtime configuration from environment
// variables.  main calls godotenv.Load first so a local .env file can
// provide them during development; in production the process
// environment wins.
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config carries every runtime knob for the server process.
type Config struct {
	HTTPPort string

	// MySQL
	DBUser string
	DBPass string
	DBHost string
	DBPort string
	DBName string

	// Auth
	JWTSecret       []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	BcryptCost      int

	// Redis (optional; response cache and rate limiting are skipped
	// when unset)
	RedisAddr string
	RedisDB   int

	// RabbitMQ (optional; notifications fall back to log-only when
	// unset)
	AMQPURL string

	// SMTP (optional; the consumer appends to a local log file when
	// unset)
	SMTPHost string
	SMTPPort string
	SMTPFrom string
	SMTPUser string
	SMTPPass string

	// Daily sweep schedules, standard five-field cron specs.
	// SchedulerEnabled turns both jobs off for one-off tooling runs.
	SchedulerEnabled      bool
	SemesterSweepSpec     string
	SubscriptionSweepSpec string
}

// Load reads the environment and terminates the process on missing
// required values.  Optional integrations default to off.
func Load() *Config {
	return &Config{
		HTTPPort: getenv("HTTP_PORT", "8080"),

		DBUser: must("DB_USER"),
		DBPass: must("DB_PASS"),
		DBHost: getenv("DB_HOST", "127.0.0.1"),
		DBPort: getenv("DB_PORT", "3306"),
		DBName: must("DB_NAME"),

		JWTSecret:       []byte(must("JWT_SECRET")),
		AccessTokenTTL:  time.Duration(mustInt("ACCESS_TOKEN_TTL_MIN", 15)) * time.Minute,
		RefreshTokenTTL: time.Duration(mustInt("REFRESH_TOKEN_TTL_HOURS", 720)) * time.Hour,
		BcryptCost:      mustInt("BCRYPT_COST", 10),

		RedisAddr: os.Getenv("REDIS_ADDR"),
		RedisDB:   mustInt("REDIS_DB", 0),

		AMQPURL: os.Getenv("AMQP_URL"),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: getenv("SMTP_PORT", "587"),
		SMTPFrom: os.Getenv("SMTP_FROM"),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),

		SchedulerEnabled:      getenv("SCHEDULER_ENABLED", "true") != "false",
		SemesterSweepSpec:     getenv("SEMESTER_SWEEP_CRON", "0 8 * * *"),
		SubscriptionSweepSpec: getenv("SUBSCRIPTION_SWEEP_CRON", "0 9 * * *"),
	}
}

func must(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("missing required env var %s", key)
	}
	return v
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func mustInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("env var %s must be an integer, got %q", key, v)
	}
	return n
}
