package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode string // Set via flag, not env

	// MongoDB
	MongoURI    string
	MongoDbName string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JwtSecret string
	JwtTTL    time.Duration

	// Server
	ApiPort string

	// Google Calendar
	GoogleCredentialsJSON string // path to a service-account credentials file; empty disables the integration
	CalendarTimeout       time.Duration
	CalendarOrganizer     string // email the calendar events are created under

	// Pipeline
	MaxActiveRequests int      // per-user cap on active opportunity requests
	PrivilegedRoles   []string // roles allowed to counter/accept/reject offers

	// Rate Limiting Defaults
	RateLimitSoftBucketSize int
	RateLimitSoftRefillRate int // tokens per second
	RateLimitHardBucketSize int
	RateLimitHardRefillRate int // tokens per second
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	godotenv.Load()

	cfg := &Config{
		RunMode: runMode, // Set from flag
	}

	var err error

	// Helper function to get env var or default
	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	// Helper function to get required env var
	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	// Load basic string values
	cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
	if err != nil {
		return nil, err
	}
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "casaflow")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.JwtSecret, err = getRequiredEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	cfg.ApiPort = getEnv("API_PORT", "8080")
	cfg.GoogleCredentialsJSON = getEnv("GOOGLE_CREDENTIALS_JSON", "")
	cfg.CalendarOrganizer = getEnv("CALENDAR_ORGANIZER", "visits@casaflow.example.com")

	// Load numeric and time duration values with defaults and parsing
	cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	jwtTTLSeconds, err := strconv.ParseInt(getEnv("JWT_TTL_SECONDS", "3600"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL_SECONDS: %w", err)
	}
	cfg.JwtTTL = time.Duration(jwtTTLSeconds) * time.Second

	calendarTimeoutSeconds, err := strconv.ParseInt(getEnv("CALENDAR_TIMEOUT_SECONDS", "5"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid CALENDAR_TIMEOUT_SECONDS: %w", err)
	}
	cfg.CalendarTimeout = time.Duration(calendarTimeoutSeconds) * time.Second

	cfg.MaxActiveRequests, err = strconv.Atoi(getEnv("MAX_ACTIVE_REQUESTS", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_ACTIVE_REQUESTS: %w", err)
	}

	// Roles allowed on the property side of a negotiation. Comma-separated.
	rolesRaw := getEnv("PRIVILEGED_ROLES", "owner,seller,admin")
	for _, role := range strings.Split(rolesRaw, ",") {
		if trimmed := strings.TrimSpace(role); trimmed != "" {
			cfg.PrivilegedRoles = append(cfg.PrivilegedRoles, trimmed)
		}
	}

	cfg.RateLimitSoftBucketSize, err = strconv.Atoi(getEnv("RATE_LIMIT_SOFT_BUCKET_SIZE", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_SOFT_BUCKET_SIZE: %w", err)
	}
	cfg.RateLimitSoftRefillRate, err = strconv.Atoi(getEnv("RATE_LIMIT_SOFT_REFILL_RATE", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_SOFT_REFILL_RATE: %w", err)
	}
	cfg.RateLimitHardBucketSize, err = strconv.Atoi(getEnv("RATE_LIMIT_HARD_BUCKET_SIZE", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_HARD_BUCKET_SIZE: %w", err)
	}
	cfg.RateLimitHardRefillRate, err = strconv.Atoi(getEnv("RATE_LIMIT_HARD_REFILL_RATE", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_HARD_REFILL_RATE: %w", err)
	}

	return cfg, nil
}
