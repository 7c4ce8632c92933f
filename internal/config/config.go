package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment names, mirroring the development/production/testing profiles.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTesting     = "testing"
)

// Config holds application configuration
type Config struct {
	Environment     string
	ServerPort      string
	DatabaseType    string
	DatabasePath    string
	DatabaseURL     string
	StaticFilesPath string
	TemplatesPath   string
	MigrationsPath  string
	SecretKey       string
	Debug           bool
	PrettyLog       bool

	// Validation limits
	MaxTitleLength       int
	MaxDescriptionLength int
	MaxQuestionLength    int
	MaxAnswerLength      int

	// UI settings
	CardsPerPage     int
	StudyModeEnabled bool
	StudySessionTTL  time.Duration
	SessionDuration  time.Duration

	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// APP_ENV selects the profile whose defaults apply before overrides.
func Load() *Config {
	env := strings.ToLower(getEnv("APP_ENV", EnvDevelopment))

	cfg := &Config{
		Environment:     env,
		ServerPort:      getEnv("PORT", "8080"),
		DatabaseType:    getEnv("DATABASE_TYPE", "sqlite"),
		DatabasePath:    getEnv("DB_PATH", "./flashforge.db"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		StaticFilesPath: getEnv("STATIC_PATH", "./static"),
		TemplatesPath:   getEnv("TEMPLATES_PATH", "./internal/templates"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
		SecretKey:       getEnv("SECRET_KEY", "your-secret-key-here"),
		PrettyLog:       getEnvBool("PRETTY_LOG", false),

		MaxTitleLength:       100,
		MaxDescriptionLength: 500,
		MaxQuestionLength:    1000,
		MaxAnswerLength:      1000,

		CardsPerPage:     getEnvInt("CARDS_PER_PAGE", 12),
		StudyModeEnabled: getEnvBool("STUDY_MODE_ENABLED", true),
		StudySessionTTL:  getEnvDuration("STUDY_SESSION_TTL", 2*time.Hour),
		SessionDuration:  30 * 24 * time.Hour,

		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
	}

	switch env {
	case EnvProduction:
		cfg.Debug = getEnvBool("DEBUG", false)
		if os.Getenv("SECRET_KEY") == "" {
			cfg.SecretKey = "hard-to-guess-string"
		}
	case EnvTesting:
		cfg.Debug = getEnvBool("DEBUG", true)
		cfg.DatabasePath = getEnv("DB_PATH", "./test_flashforge.db")
	default:
		cfg.Debug = getEnvBool("DEBUG", true)
	}

	if cfg.CardsPerPage <= 0 {
		cfg.CardsPerPage = 12
	}

	return cfg
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
