package config

import (
	"os"
	"strings"
	"time"
)

// Config carries everything the server reads from the environment.
type Config struct {
	// Server
	Addr           string
	TrustedProxies []string

	// Storage
	DBPath string

	// Admin auth (single shared password; see ADMIN_PASSWORD)
	AdminPassword string
	SessionTTL    time.Duration

	// Notifications
	SMTPAddr string
	SMTPFrom string

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		Addr:           getEnv("ADDR", ":8080"),
		TrustedProxies: getEnvList("TRUSTED_PROXIES", "127.0.0.1,::1"),
		DBPath:         getEnv("DB_PATH", "wusa_schedule.db"),
		AdminPassword:  getEnv("ADMIN_PASSWORD", ""),
		SessionTTL:     getEnvDuration("SESSION_TTL", 30*24*time.Hour),
		SMTPAddr:       getEnv("SMTP_ADDR", ""),
		SMTPFrom:       getEnv("SMTP_FROM", "schedule@wusa.local"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvList(key, defaultValue string) []string {
	parts := strings.Split(getEnv(key, defaultValue), ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
