package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// Card
	TurnoverDay     int
	DueDay          int
	Timezone        string
	MaxInstallments int

	// Receipts
	BlobBackend       string
	MinioEndpoint     string
	MinioPort         int
	MinioUseSSL       bool
	MinioAccessKey    string
	MinioSecretKey    string
	MinioBucket       string
	ReceiptCacheSize  int
	ReceiptCacheBytes int64
	ReceiptCacheTTL   time.Duration

	// AMQP (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Auth
	AuthLogin        string
	AuthPassword     string
	AuthPasswordHash string
	JWTSecret        string
	SessionTTL       time.Duration
	CookieSecure     bool
	LoginRateLimit   int
	TrustedProxies   []string

	// Logging
	LogLevel  string
	LogFormat string

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "8081"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/cartao.db"),

		TurnoverDay:     getEnvInt("CARD_TURNOVER_DAY", 2),
		DueDay:          getEnvInt("CARD_DUE_DAY", 12),
		Timezone:        getEnv("CARD_TIMEZONE", "America/Sao_Paulo"),
		MaxInstallments: getEnvInt("MAX_INSTALLMENTS", 48),

		BlobBackend:       getEnv("BLOB_BACKEND", "memory"),
		MinioEndpoint:     getEnv("MINIO_ENDPOINT", "localhost"),
		MinioPort:         getEnvInt("MINIO_PORT", 9000),
		MinioUseSSL:       getEnvBool("MINIO_USE_SSL", false),
		MinioAccessKey:    getEnv("MINIO_ROOT_USER", ""),
		MinioSecretKey:    getEnv("MINIO_ROOT_PASSWORD", ""),
		MinioBucket:       getEnv("MINIO_BUCKET_NAME", "card-manager"),
		ReceiptCacheSize:  getEnvInt("RECEIPT_CACHE_SIZE", 64),
		ReceiptCacheBytes: int64(getEnvInt("RECEIPT_CACHE_BYTES", 64<<20)),
		ReceiptCacheTTL:   getEnvDuration("RECEIPT_CACHE_TTL", time.Hour),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "cartao"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "receipt_cleanup"),

		AuthLogin:        getEnv("AUTH_LOGIN", "admin"),
		AuthPassword:     getEnv("AUTH_PASSWORD", ""),
		AuthPasswordHash: getEnv("AUTH_PASSWORD_HASH", ""),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		SessionTTL:       getEnvDuration("SESSION_TTL", 24*time.Hour),
		CookieSecure:     getEnvBool("COOKIE_SECURE", false),
		LoginRateLimit:   getEnvInt("LOGIN_RATE_LIMIT", 10),
		TrustedProxies:   getEnvList("TRUSTED_PROXIES"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
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

	if c.TurnoverDay < 1 || c.TurnoverDay > 31 {
		errors = append(errors, fmt.Sprintf("invalid card turnover day %d: must be between 1 and 31", c.TurnoverDay))
	}
	if c.DueDay < 1 || c.DueDay > 31 {
		errors = append(errors, fmt.Sprintf("invalid card due day %d: must be between 1 and 31", c.DueDay))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid card timezone '%s': %v", c.Timezone, err))
	}
	if c.MaxInstallments < 1 || c.MaxInstallments > 120 {
		errors = append(errors, fmt.Sprintf("invalid max installments %d: must be between 1 and 120", c.MaxInstallments))
	}

	validBackends := []string{"memory", "minio"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.BlobBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid blob backend '%s': must be one of %v", c.BlobBackend, validBackends))
	}

	if c.BlobBackend == "minio" {
		if c.MinioEndpoint == "" {
			errors = append(errors, "MinIO endpoint is required when using minio backend")
		}
		if c.MinioPort < 0 || c.MinioPort > 65535 {
			errors = append(errors, fmt.Sprintf("invalid MinIO port %d", c.MinioPort))
		}
		if c.MinioAccessKey == "" || c.MinioSecretKey == "" {
			errors = append(errors, "MINIO_ROOT_USER and MINIO_ROOT_PASSWORD are required when using minio backend")
		}
		if c.MinioBucket == "" {
			errors = append(errors, "MinIO bucket name cannot be empty")
		}
	}

	if c.ReceiptCacheSize < 0 {
		errors = append(errors, fmt.Sprintf("invalid receipt cache size %d: must not be negative", c.ReceiptCacheSize))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.LoginRateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid login rate limit %d: must be at least 1", c.LoginRateLimit))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateServer checks the settings only the web server needs.
func (c *Config) ValidateServer() error {
	var errors []string
	if c.AuthLogin == "" {
		errors = append(errors, "AUTH_LOGIN cannot be empty")
	}
	if c.AuthPassword == "" && c.AuthPasswordHash == "" {
		errors = append(errors, "either AUTH_PASSWORD or AUTH_PASSWORD_HASH must be provided")
	}
	if len(c.JWTSecret) < 32 {
		errors = append(errors, "JWT_SECRET must be at least 32 characters")
	}
	if len(errors) > 0 {
		return fmt.Errorf("server configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateExport checks the settings the Sheets report exporter needs.
func (c *Config) ValidateExport() error {
	var errors []string
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID is required for report export")
	}
	if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided")
	}
	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}
	if len(errors) > 0 {
		return fmt.Errorf("export configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// Location returns the configured card timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
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
