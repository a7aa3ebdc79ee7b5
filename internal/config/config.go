package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Metering. EnterpriseMode turns quota enforcement on.
	EnterpriseMode      bool
	SerializeAdmissions bool
	// DailyCreditReset is a cron expression; empty disables the reset.
	DailyCreditReset    string
	// PlanCatalogFile is a YAML catalog seeded into an empty plans table
	// instead of the built-in Free and Pro plans.
	PlanCatalogFile     string

	// Internal API (execution backend, operators)
	InternalToken string

	// Feature switches
	SignupActive      bool
	LoginActive       bool
	GithubLoginActive bool
	GoogleLoginActive bool
	GithubClientID    string
	GoogleClientID    string
	GoogleAnalyticsID string

	MaxCrawlConcurrency int
	MCPServer           string
	APIVersion          string
	PolicyURL           string
	TermsURL            string
	FrontendURL         string
	CheckoutURL         string
	BillingPortalURL    string

	// Server
	Port               string
	CORSOrigins        string
	RateLimitPerMinute int

	// Redis (rate limiter storage, optional)
	RedisHost     string
	RedisPort     int
	RedisPassword string

	// Observability
	SentryDSN        string
	AppEnv           string
	LogLevel         string
	LogFormat        string
	LogRetentionDays int
	LogCleanup       string
}

// Load reads an optional .env file and then the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to read .env file", "error", err)
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "spraply"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "5m")),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "720h")),

		EnterpriseMode:      getBool("ENTERPRISE_MODE", false),
		SerializeAdmissions: getBool("SERIALIZE_ADMISSIONS", true),
		DailyCreditReset:    getEnv("DAILY_CREDIT_RESET", ""),
		PlanCatalogFile:     getEnv("PLAN_CATALOG_FILE", ""),

		InternalToken: getEnv("INTERNAL_TOKEN", ""),

		SignupActive:      getBool("SIGNUP_ACTIVE", true),
		LoginActive:       getBool("LOGIN_ACTIVE", true),
		GithubLoginActive: getBool("GITHUB_LOGIN_ACTIVE", false),
		GoogleLoginActive: getBool("GOOGLE_LOGIN_ACTIVE", false),
		GithubClientID:    getEnv("GITHUB_CLIENT_ID", ""),
		GoogleClientID:    getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleAnalyticsID: getEnv("GOOGLE_ANALYTICS_ID", ""),

		MaxCrawlConcurrency: getInt("MAX_CRAWL_CONCURRENCY", 10),
		MCPServer:           getEnv("MCP_SERVER", ""),
		APIVersion:          getEnv("API_VERSION", "v1"),
		PolicyURL:           getEnv("POLICY_URL", ""),
		TermsURL:            getEnv("TERMS_URL", ""),
		FrontendURL:         getEnv("FRONTEND_URL", "http://localhost:3000"),
		CheckoutURL:         getEnv("CHECKOUT_URL", ""),
		BillingPortalURL:    getEnv("BILLING_PORTAL_URL", ""),

		Port:               getEnv("PORT", "8080"),
		CORSOrigins:        getEnv("CORS_ORIGINS", "*"),
		RateLimitPerMinute: getInt("RATE_LIMIT_PER_MINUTE", 120),

		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getInt("REDIS_PORT", 6379),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		SentryDSN:        getEnv("SENTRY_DSN", ""),
		AppEnv:           getEnv("APP_ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
		LogRetentionDays: getInt("LOG_RETENTION_DAYS", 30),
		LogCleanup:       getEnv("LOG_CLEANUP_SCHEDULE", "@daily"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}
