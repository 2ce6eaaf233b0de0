// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// BaseURL is the public-facing URL used in verification and reset links.
	BaseURL string

	// CORSOrigins is the list of origins allowed to call the API.
	CORSOrigins []string

	// Database holds MariaDB connection settings.
	Database DatabaseConfig

	// Redis holds Redis connection settings.
	Redis RedisConfig

	// Auth holds token and cache settings.
	Auth AuthConfig

	// Mail holds SMTP settings for verification and reset mail.
	Mail MailConfig

	// Upload holds avatar upload settings.
	Upload UploadConfig

	// RateLimit holds per-IP rate limiter settings for auth endpoints.
	RateLimit RateLimitConfig
}

// DatabaseConfig holds MariaDB connection parameters. Individual fields are
// read from separate env vars so container orchestrators can manage each
// independently. If DATABASE_URL is set, it takes precedence.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format (default: "localhost:3306").
	Host string

	// User is the MariaDB username (default: "contactly").
	User string

	// Password is the MariaDB password (default: "contactly").
	Password string

	// Name is the database name (default: "contactly").
	Name string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	// MaxOpenConns is the maximum number of open connections in the pool.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// ConnMaxLifetime is how long a connection can be reused.
	ConnMaxLifetime time.Duration
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL was
// set, it is returned as-is. Otherwise the DSN is built from the individual
// fields using the driver's Config.FormatDSN() to safely handle special
// characters in passwords.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	// Count matched rows, not changed rows, so repositories can use
	// RowsAffected==0 as "row does not exist" even for no-op updates.
	cfg.ClientFoundRows = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string
}

// AuthConfig holds token signing and identity cache settings.
type AuthConfig struct {
	// SecretKey signs every token kind (HMAC, 32+ bytes in production).
	SecretKey string

	// AccessTTL is the access token lifetime (default: 15m).
	AccessTTL time.Duration

	// RefreshTTL is the refresh token lifetime (default: 168h).
	RefreshTTL time.Duration

	// VerifyTTL is the email verification token lifetime (default: 168h).
	VerifyTTL time.Duration

	// ResetTTL is the password reset token lifetime (default: 1h).
	ResetTTL time.Duration

	// CacheTTL is how long a resolved user stays in the identity cache.
	CacheTTL time.Duration
}

// MailConfig holds SMTP settings. Mail is best-effort: if Host is empty,
// delivery is skipped and logged.
type MailConfig struct {
	// Host is the SMTP server hostname. Empty disables mail delivery.
	Host string

	// Port is the SMTP server port (default: 587).
	Port int

	// Username and Password are the SMTP credentials.
	Username string
	Password string

	// From is the sender address; FromName the display name.
	From     string
	FromName string

	// Encryption is "starttls", "ssl", or "none" (default: "starttls").
	Encryption string
}

// UploadConfig holds avatar upload settings.
type UploadConfig struct {
	// MaxSize is the maximum upload file size in bytes.
	MaxSize int64

	// AvatarPath is the directory where processed avatars are stored.
	AvatarPath string
}

// RateLimitConfig holds per-IP limits applied to the API.
type RateLimitConfig struct {
	// Requests is the number of requests allowed per IP per Window.
	Requests int

	// Window is the length of the counting window.
	Window time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{
		Env:         getEnv("ENV", "development"),
		Port:        getEnvInt("PORT", 8080),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		CORSOrigins: splitAndTrim(getEnv("CORS_ORIGINS", "http://localhost:3000")),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "contactly"),
			Password:        getEnv("DB_PASSWORD", "contactly"),
			Name:            getEnv("DB_NAME", "contactly"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},

		Auth: AuthConfig{
			SecretKey:  getEnv("SECRET_KEY", ""),
			AccessTTL:  getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
			RefreshTTL: getEnvDuration("REFRESH_TOKEN_TTL", 168*time.Hour),
			VerifyTTL:  getEnvDuration("VERIFY_TOKEN_TTL", 168*time.Hour),
			ResetTTL:   getEnvDuration("RESET_TOKEN_TTL", time.Hour),
			CacheTTL:   getEnvDuration("USER_CACHE_TTL", 9000*time.Second),
		},

		Mail: MailConfig{
			Host:       getEnv("MAIL_HOST", ""),
			Port:       getEnvInt("MAIL_PORT", 587),
			Username:   getEnv("MAIL_USERNAME", ""),
			Password:   getEnv("MAIL_PASSWORD", ""),
			From:       getEnv("MAIL_FROM", "no-reply@localhost"),
			FromName:   getEnv("MAIL_FROM_NAME", "Contactly"),
			Encryption: getEnv("MAIL_ENCRYPTION", "starttls"),
		},

		Upload: UploadConfig{
			MaxSize:    getEnvInt64("MAX_UPLOAD_SIZE", 10*1024*1024), // 10MB
			AvatarPath: getEnv("AVATAR_PATH", "./media/avatars"),
		},

		RateLimit: RateLimitConfig{
			Requests: getEnvInt("RATE_LIMIT_REQUESTS", 10),
			Window:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}

	// Validate required fields in production. Case-insensitive check catches
	// common variants like "Production", "prod", etc.
	envLower := strings.ToLower(cfg.Env)
	if envLower == "production" || envLower == "prod" {
		if cfg.Auth.SecretKey == "" {
			return nil, fmt.Errorf("SECRET_KEY is required in production")
		}
		if len(cfg.Auth.SecretKey) < 32 {
			return nil, fmt.Errorf("SECRET_KEY must be at least 32 characters in production")
		}
	}

	// Provide a dev-only default secret so local dev works without .env.
	if cfg.Auth.SecretKey == "" {
		cfg.Auth.SecretKey = "dev-secret-key-do-not-use-in-production!!"
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvInt64 reads an int64 env var or returns the default.
func getEnvInt64(key string, defaultVal int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "15m") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// splitAndTrim splits a comma-separated env value into trimmed entries.
func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
