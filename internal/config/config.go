package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// AMQP
	AMQPURL            string
	AMQPExchange       string
	AMQPRequestQueue   string
	AMQPCompletedQueue string

	// External source of record
	SourceBackend string // memory | http | sheets
	SourceBaseURL string
	SourceTimeout time.Duration

	// Auth
	JWTSecret string

	// Analytics cache
	CacheFreshness time.Duration

	// Rate limiting
	RateLimitInterval time.Duration
	RateLimitBurst    int
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8082"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/bilancio.db"),

		AMQPURL:            getEnv("AMQP_URL", ""),
		AMQPExchange:       getEnv("AMQP_EXCHANGE", "bilancio"),
		AMQPRequestQueue:   getEnv("AMQP_REQUEST_QUEUE", "sync_requests"),
		AMQPCompletedQueue: getEnv("AMQP_COMPLETED_QUEUE", "sync_completed"),

		SourceBackend: getEnv("SOURCE_BACKEND", "memory"),
		SourceBaseURL: getEnv("SOURCE_BASE_URL", ""),
		SourceTimeout: getEnvDuration("SOURCE_TIMEOUT", 15*time.Second),

		JWTSecret: getEnv("JWT_SECRET", ""),

		CacheFreshness: getEnvDuration("CACHE_FRESHNESS", time.Hour),

		RateLimitInterval: getEnvDuration("RATE_LIMIT_INTERVAL", 100*time.Millisecond),
		RateLimitBurst:    getEnvInt("RATE_LIMIT_BURST", 30),
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "http", "sheets"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.SourceBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errs = append(errs, fmt.Sprintf("invalid source backend '%s': must be one of %v", c.SourceBackend, validBackends))
	}

	if c.SourceBackend == "http" {
		if c.SourceBaseURL == "" {
			errs = append(errs, "SOURCE_BASE_URL is required when using the http source backend")
		} else if parsed, err := url.Parse(c.SourceBaseURL); err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			errs = append(errs, fmt.Sprintf("invalid SOURCE_BASE_URL '%s': must be an http(s) URL", c.SourceBaseURL))
		}
	}

	if c.SQLiteDBPath == "" {
		errs = append(errs, "SQLite database path cannot be empty")
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPRequestQueue == "" || c.AMQPCompletedQueue == "" {
			errs = append(errs, "AMQP queue names cannot be empty when AMQP URL is provided")
		}
	}

	if c.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET is required")
	}

	if c.CacheFreshness < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid cache freshness %v: must be at least 1 minute", c.CacheFreshness))
	} else if c.CacheFreshness > 24*time.Hour {
		errs = append(errs, fmt.Sprintf("invalid cache freshness %v: must be at most 24 hours", c.CacheFreshness))
	}

	if c.RateLimitBurst < 1 {
		errs = append(errs, fmt.Sprintf("invalid rate limit burst %d: must be at least 1", c.RateLimitBurst))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
