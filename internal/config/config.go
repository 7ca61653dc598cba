// Package config loads and validates the environment-driven configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"finanzas/internal/currency"
)

type Config struct {
	// HTTP Server
	Port        string
	CORSOrigins []string

	// Database
	SQLiteDBPath string

	// Auth
	AccessSecret      string
	RefreshSecret     string
	EmailVerification bool

	// Quote service
	QuoteAPIURL  string
	QuoteTimeout time.Duration

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Rate limiting
	RateLimitPerMinute int
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/finanzas.db"),

		AccessSecret:      getEnv("ACCESS_SECRET", ""),
		RefreshSecret:     getEnv("REFRESH_SECRET", ""),
		EmailVerification: getEnvBool("EMAIL_VERIFICATION", false),

		QuoteAPIURL:  getEnv("QUOTE_API_URL", currency.DefaultBaseURL),
		QuoteTimeout: getEnvDuration("QUOTE_TIMEOUT", 10*time.Second),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finanzas"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "element_events"),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
	}
}

// Validate checks the configuration and returns every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.AccessSecret == "" {
		errors = append(errors, "ACCESS_SECRET cannot be empty")
	}
	if c.RefreshSecret == "" {
		errors = append(errors, "REFRESH_SECRET cannot be empty")
	}
	if c.AccessSecret != "" && c.AccessSecret == c.RefreshSecret {
		errors = append(errors, "ACCESS_SECRET and REFRESH_SECRET must differ")
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.QuoteAPIURL == "" {
		errors = append(errors, "quote API URL cannot be empty")
	} else if parsed, err := url.Parse(c.QuoteAPIURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid quote API URL '%s': %v", c.QuoteAPIURL, err))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid quote API URL scheme '%s': must be 'http' or 'https'", parsed.Scheme))
	}

	if c.QuoteTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid quote timeout %v: must be at least 1 second", c.QuoteTimeout))
	} else if c.QuoteTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid quote timeout %v: must be at most 1 minute", c.QuoteTimeout))
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
