// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. The loaded Config is immutable after startup and passed to
// other packages via dependency injection.
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
// variables at startup.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// MigrationsPath is the directory containing SQL migration files.
	MigrationsPath string

	// Database holds MariaDB connection settings.
	Database DatabaseConfig

	// Redis holds Redis connection settings.
	Redis RedisConfig

	// Auth holds admin authentication settings.
	Auth AuthConfig

	// Webhook holds the shared secret for the report ingestion webhook.
	Webhook WebhookConfig

	// Storage holds S3 object storage settings for PDF artifacts.
	Storage StorageConfig
}

// DatabaseConfig holds MariaDB connection parameters. Individual fields are
// read from separate env vars so container orchestrators can manage each
// independently. If DATABASE_URL is set, it takes precedence.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format.
	// If no port is specified, 3306 is appended automatically.
	Host string

	// User is the MariaDB username.
	User string

	// Password is the MariaDB password.
	Password string

	// Name is the database name.
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

// RedisConfig holds Redis connection parameters. Redis backs the per-email
// ingestion lock, not sessions -- sessions are stateless signed tokens.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string
}

// AuthConfig holds admin authentication settings. There is a single admin
// account whose credentials live in the environment, not in the database.
type AuthConfig struct {
	// JWTSecret signs session tokens. Required.
	JWTSecret string

	// AdminEmail is the only email allowed to log in. Lowercased at load.
	AdminEmail string

	// AdminPasswordHash is the scrypt hash of the admin password in
	// "base64(salt):base64(key)" format. Required. Generate with cmd/hashgen.
	AdminPasswordHash string

	// SessionTTL is how long issued session tokens remain valid.
	SessionTTL time.Duration
}

// WebhookConfig holds settings for the report ingestion webhook.
type WebhookConfig struct {
	// Secret is the bearer token the assessment vendor must present. Required.
	Secret string
}

// StorageConfig holds S3 (or S3-compatible) object storage settings.
type StorageConfig struct {
	// Bucket is the bucket PDF artifacts are uploaded to. Required.
	Bucket string

	// Region is the AWS region.
	Region string

	// AccessKeyID and SecretKey are static credentials. If empty, the AWS
	// SDK falls back to its default credential chain (IAM roles, env vars).
	AccessKeyID string
	SecretKey   string

	// Endpoint is a custom endpoint for S3-compatible services (MinIO, etc.).
	Endpoint string

	// BaseURL is the public URL prefix for uploaded objects. If empty, a
	// standard S3 URL is derived from bucket and region.
	BaseURL string

	// MaxPDFBytes is the size cap for a single PDF artifact.
	MaxPDFBytes int64
}

// Load reads configuration from environment variables. Returns an error if
// any required variable is missing -- the process must refuse to start with
// an incomplete configuration rather than fail at the first request.
func Load() (*Config, error) {
	cfg := &Config{
		Env:            getEnv("ENV", "development"),
		Port:           getEnvInt("PORT", 8080),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "assessment"),
			Password:        getEnv("DB_PASSWORD", "assessment"),
			Name:            getEnv("DB_NAME", "assessment"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},

		Auth: AuthConfig{
			JWTSecret:         getEnv("JWT_SECRET", ""),
			AdminEmail:        strings.ToLower(strings.TrimSpace(getEnv("ADMIN_EMAIL", ""))),
			AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
			SessionTTL:        getEnvDuration("SESSION_TTL", 12*time.Hour),
		},

		Webhook: WebhookConfig{
			Secret: getEnv("WEBHOOK_SECRET", ""),
		},

		Storage: StorageConfig{
			Bucket:      getEnv("S3_BUCKET", ""),
			Region:      getEnv("S3_REGION", "us-east-1"),
			AccessKeyID: getEnv("S3_ACCESS_KEY_ID", ""),
			SecretKey:   getEnv("S3_SECRET_KEY", ""),
			Endpoint:    getEnv("S3_ENDPOINT", ""),
			BaseURL:     getEnv("S3_BASE_URL", ""),
			MaxPDFBytes: getEnvInt64("MAX_PDF_BYTES", 7*1024*1024),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks that every secret the security model depends on is
// present. These have no safe defaults in any environment.
func (c *Config) validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"JWT_SECRET", c.Auth.JWTSecret},
		{"ADMIN_EMAIL", c.Auth.AdminEmail},
		{"ADMIN_PASSWORD_HASH", c.Auth.AdminPasswordHash},
		{"WEBHOOK_SECRET", c.Webhook.Secret},
		{"S3_BUCKET", c.Storage.Bucket},
	}

	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}

	return nil
}

// IsProduction returns true if running in production mode. Controls the
// Secure flag on the session cookie and the log output format.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Env)
	return env == "production" || env == "prod"
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

// getEnvDuration reads a duration env var (e.g., "12h") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
