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
	AppHost string
	AppPort string
	AppURL  string // base URL embedded in verification/reset links

	DatabaseURL string

	AccessSecret  []byte
	RefreshSecret []byte

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	VerifyTTL  time.Duration
	ResetTTL   time.Duration

	RequireVerifiedEmail bool

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string

	KafkaBrokers []string
	KafkaTopic   string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	RedisAddr     string
	RedisPassword string

	RateLimitMax    int
	RateLimitWindow time.Duration

	LogLevel string
}

func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v, using system environment", err)
	}

	cfg := &Config{
		AppHost: envDefault("APP_HOST", "0.0.0.0"),
		AppPort: envDefault("APP_PORT", "8080"),
		AppURL:  envDefault("APP_URL", "http://localhost:8080"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		AccessSecret:  []byte(os.Getenv("JWT_ACCESS_SECRET")),
		RefreshSecret: []byte(os.Getenv("JWT_REFRESH_SECRET")),

		AccessTTL:  durDefault("JWT_ACCESS_EXPIRES", 15*time.Minute),
		RefreshTTL: durDefault("JWT_REFRESH_EXPIRES", 7*24*time.Hour),
		VerifyTTL:  durDefault("EMAIL_TOKEN_EXPIRES", 24*time.Hour),
		ResetTTL:   durDefault("RESET_TOKEN_EXPIRES", time.Hour),

		RequireVerifiedEmail: boolDefault("AUTH_REQUIRE_VERIFIED_EMAIL", true),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: intDefault("SMTP_PORT", 587),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		MailFrom: envDefault("MAIL_FROM", "Task Manager <no-reply@taskmanager.com>"),

		KafkaBrokers: csv(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   envDefault("KAFKA_TOPIC", "user_events"),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    envDefault("ES_TASK_INDEX", "tasks"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		RateLimitMax:    intDefault("RATE_LIMIT_MAX", 30),
		RateLimitWindow: durDefault("RATE_LIMIT_WINDOW", time.Minute),

		LogLevel: envDefault("LOG_LEVEL", "info"),
	}

	mustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	mustNonEmptyBytes(cfg.AccessSecret, "JWT_ACCESS_SECRET")
	mustNonEmptyBytes(cfg.RefreshSecret, "JWT_REFRESH_SECRET")

	return cfg
}

// ParseDuration understands time.ParseDuration syntax plus a "d" suffix for
// whole days ("7d", "1d").
func ParseDuration(v string) (time.Duration, error) {
	if strings.HasSuffix(v, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(v, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", v)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(v)
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func boolDefault(key string, def bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

func durDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := ParseDuration(v)
	if err != nil {
		log.Printf("notice: invalid duration in %s: %q, using default", key, v)
		return def
	}
	return d
}

func csv(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func mustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func mustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}
