package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/learn/internal/learn/service"
	"github.com/aussiebroadwan/learn/internal/learn/session"
	"github.com/aussiebroadwan/learn/pkg/cryptox"
	"github.com/aussiebroadwan/learn/pkg/jwtx"
	"github.com/joho/godotenv"
)

type Config struct {
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)

	SiteURL        string   // Public base URL, needed for OAuth redirects
	IdPURL         string   // Identity provider base URL
	IdPAnonKey     string   // Identity provider public key
	IdPServiceKey  string   // Optional: service role key for admin role updates
	OAuthProviders []string // Providers offered on the login page (default: github)

	SessionSecret string        // Required in prod: HMAC key of the session cookie
	SessionTTL    time.Duration // Session cookie lifetime (default: 7 days)

	DBDriver    string // sqlite or postgres (default: sqlite)
	DBPath      string // SQLite database file (default: ./learn.db)
	DatabaseURL string // PostgreSQL connection string
	RedisURL    string // Optional: keep OAuth verifiers in Redis

	ContentDir           string        // Course markdown directory (default: ./content/courses)
	ProtectedPrefixes    []string      // Paths that require a session cookie
	VerifierTTL          time.Duration // OAuth verifier lifetime (default: 10m)
	HousekeepingInterval time.Duration // Expired verifier purge interval (default: 15m)
}

// LoadConfig reads the environment, after loading .env files when present.
func LoadConfig(envFiles ...string) Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// Variables already set win over the file, and a missing file is fine.
		_ = godotenv.Load(f)
	}

	return Config{
		Env:                 getEnvOrDefault("LEARN_ENV", "dev"),
		LogLevel:            getEnvOrDefault("LEARN_LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LEARN_LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("LEARN_PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("LEARN_SHUTDOWN_GRACE", 10*time.Second),

		SiteURL:        strings.TrimRight(os.Getenv("LEARN_SITE_URL"), "/"),
		IdPURL:         os.Getenv("LEARN_IDP_URL"),
		IdPAnonKey:     os.Getenv("LEARN_IDP_ANON_KEY"),
		IdPServiceKey:  os.Getenv("LEARN_IDP_SERVICE_KEY"),
		OAuthProviders: getEnvListOrDefault("LEARN_OAUTH_PROVIDERS", []string{"github"}),

		SessionSecret: os.Getenv("LEARN_SESSION_SECRET"),
		SessionTTL:    getEnvDurationOrDefault("LEARN_SESSION_TTL", session.DefaultTTL),

		DBDriver:    strings.ToLower(getEnvOrDefault("LEARN_DB_DRIVER", "sqlite")),
		DBPath:      getEnvOrDefault("LEARN_DB_PATH", "learn.db"),
		DatabaseURL: os.Getenv("LEARN_DATABASE_URL"),
		RedisURL:    os.Getenv("LEARN_REDIS_URL"),

		ContentDir:           getEnvOrDefault("LEARN_CONTENT_DIR", "content/courses"),
		ProtectedPrefixes:    getEnvListOrDefault("LEARN_PROTECTED_PREFIXES", nil),
		VerifierTTL:          getEnvDurationOrDefault("LEARN_VERIFIER_TTL", service.DefaultVerifierTTL),
		HousekeepingInterval: getEnvDurationOrDefault("LEARN_HOUSEKEEPING_INTERVAL", 15*time.Minute),
	}
}

func (c Config) Production() bool { return c.Env == "prod" }

// Validate reports settings the server cannot start with. Identity
// provider settings are not checked here; requests that need them fail
// with a configuration error instead.
func (c Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("LEARN_DATABASE_URL is required with the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("LEARN_DB_DRIVER %q is not one of sqlite, postgres", c.DBDriver))
	}

	if c.SessionSecret == "" && c.Production() {
		errs = append(errs, errors.New("LEARN_SESSION_SECRET is required in prod"))
	}
	if c.SessionSecret != "" && len(c.SessionSecret) < jwtx.MinHMACKeySize {
		errs = append(errs, fmt.Errorf("LEARN_SESSION_SECRET must be at least %d bytes", jwtx.MinHMACKeySize))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("LEARN_PORT %d is out of range", c.Port))
	}

	return errors.Join(errs...)
}

// SessionKey returns the cookie signing key. Outside prod a missing secret
// is replaced by a random one, so sessions end on restart. generated
// reports that case.
func (c Config) SessionKey() (key []byte, generated bool, err error) {
	if c.SessionSecret != "" {
		return []byte(c.SessionSecret), false, nil
	}
	if c.Production() {
		return nil, false, errors.New("LEARN_SESSION_SECRET is required in prod")
	}

	secret, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, false, fmt.Errorf("generate session secret: %w", err)
	}
	return []byte(secret), true, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

// getEnvListOrDefault splits a comma separated variable, dropping blanks.
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
