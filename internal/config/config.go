package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // seconds
}

// SessionConfig holds session cookie configuration.
type SessionConfig struct {
	Secret string
	MaxAge time.Duration
}

// JWTConfig holds mobile token signing configuration.
// Secret may be empty: mobile login then fails with a configuration
// error while web session auth keeps working.
type JWTConfig struct {
	Secret    string
	ExpiresIn time.Duration
}

// RedisConfig holds the optional Redis connection address.
// When Addr is empty the token blacklist and login rate limiter fall
// back to in-process implementations.
type RedisConfig struct {
	Addr string
}

// NotifyConfig holds notification provider configuration.
type NotifyConfig struct {
	APIKey       string   // provider API key; empty disables the HTTP provider
	BaseURL      string   // provider API base URL
	AppBaseURL   string   // public app URL used to build links in emails
	KafkaBrokers []string // non-empty switches delivery to Kafka publishing
}

// AdminSeedConfig holds the bootstrap admin account settings.
type AdminSeedConfig struct {
	Email    string
	Password string
	FullName string
}

type Config struct {
	Port        string
	Environment string
	Database    DatabaseConfig
	Session     SessionConfig
	JWT         JWTConfig
	Redis       RedisConfig
	Notify      NotifyConfig
	AdminSeed   AdminSeedConfig
}

// IsProduction reports whether the server runs in production mode.
// Controls the Secure flag on session cookies.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads configuration from environment variables.
// It fails fast with clear errors for missing required values.
func Load() (*Config, error) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	env := os.Getenv("ENV")
	if env == "" {
		env = "development"
	}
	if env != "development" && env != "staging" && env != "production" {
		return nil, fmt.Errorf("invalid ENV value %q: must be development, staging, or production", env)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("missing required environment variable: DATABASE_URL")
	}
	if err := validateDatabaseURL(databaseURL); err != nil {
		return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}

	// Session secret must be explicit in production. A development
	// fallback keeps local setups friction-free.
	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		if env == "production" {
			return nil, fmt.Errorf("SESSION_SECRET must be set in production environment")
		}
		sessionSecret = "dev_session_secret"
	}

	jwtExpiry, err := getEnvDuration("JWT_EXPIRES_IN", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRES_IN: %w", err)
	}

	sessionMaxAge, err := getEnvDuration("SESSION_MAX_AGE", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_MAX_AGE: %w", err)
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	notifyBaseURL := os.Getenv("NOTIFY_BASE_URL")
	if notifyBaseURL == "" {
		notifyBaseURL = "https://api.novu.co/v1"
	}

	appBaseURL := strings.TrimRight(os.Getenv("APP_BASE_URL"), "/")
	if appBaseURL == "" {
		appBaseURL = "http://localhost:" + port
	}

	return &Config{
		Port:        port,
		Environment: env,
		Database: DatabaseConfig{
			URL:             databaseURL,
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("DB_CONN_MAX_LIFETIME", 300),
		},
		Session: SessionConfig{
			Secret: sessionSecret,
			MaxAge: sessionMaxAge,
		},
		JWT: JWTConfig{
			Secret:    os.Getenv("JWT_SECRET"),
			ExpiresIn: jwtExpiry,
		},
		Redis: RedisConfig{
			Addr: os.Getenv("REDIS_ADDR"),
		},
		Notify: NotifyConfig{
			APIKey:       os.Getenv("NOTIFY_API_KEY"),
			BaseURL:      notifyBaseURL,
			AppBaseURL:   appBaseURL,
			KafkaBrokers: brokers,
		},
		AdminSeed: AdminSeedConfig{
			Email:    getEnvDefault("ADMIN_EMAIL", "admin@logistics.com"),
			Password: getEnvDefault("ADMIN_PASSWORD", "admin123"),
			FullName: getEnvDefault("ADMIN_NAME", "System Admin"),
		},
	}, nil
}

// validateDatabaseURL ensures the database URL is a valid PostgreSQL connection string.
func validateDatabaseURL(dbURL string) error {
	parsed, err := url.Parse(dbURL)
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}

	if parsed.Scheme != "postgres" && parsed.Scheme != "postgresql" {
		return fmt.Errorf("URL must use postgres or postgresql scheme, got %q", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must include a host")
	}

	return nil
}

// getEnvInt reads an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return intVal
}

// getEnvDuration reads an environment variable as a Go duration string
// (e.g. "24h", "30m") with a default fallback.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}

func getEnvDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
