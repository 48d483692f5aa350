package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	App      AppConfig
	Credits  CreditsConfig
	Scoring  ScoringConfig
	Billing  BillingConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret string
}

// CreditsConfig holds the tunables of the credit engine. Trust thresholds and
// reward amounts are configuration, not hardcoded constants.
type CreditsConfig struct {
	InitialBonus        int64
	BlogReward          int64
	GraceWindow         time.Duration
	BaseConsumption     time.Duration // drain interval for a single welcomebook
	MinConsumption      time.Duration // floor for accounts with many welcomebooks
	ConsumptionTick     time.Duration
	TrustMinApprovals   int
	ConflictMaxRetries  int
}

// ScoringConfig holds the external personalization-scoring providers
type ScoringConfig struct {
	Endpoints []string
	APIKey    string
	Timeout   time.Duration
}

// BillingConfig holds the billing-webhook settings
type BillingConfig struct {
	WebhookSecret string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "welcomebook_credits"),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		App: AppConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Credits: CreditsConfig{
			InitialBonus:       getEnvInt64("INITIAL_BONUS_CREDITS", 150),
			BlogReward:         getEnvInt64("BLOG_REWARD_CREDITS", 150),
			GraceWindow:        getEnvDuration("GRACE_WINDOW", 7*24*time.Hour),
			BaseConsumption:    getEnvDuration("BASE_CONSUMPTION_INTERVAL", 24*time.Hour),
			MinConsumption:     getEnvDuration("MIN_CONSUMPTION_INTERVAL", time.Hour),
			ConsumptionTick:    getEnvDuration("CONSUMPTION_TICK", time.Hour),
			TrustMinApprovals:  getEnvInt("TRUST_MIN_APPROVALS", 3),
			ConflictMaxRetries: getEnvInt("CONFLICT_MAX_RETRIES", 3),
		},
		Scoring: ScoringConfig{
			Endpoints: splitEnv("SCORING_ENDPOINTS", ""),
			APIKey:    getEnv("SCORING_API_KEY", ""),
			Timeout:   getEnvDuration("SCORING_TIMEOUT", 10*time.Second),
		},
		Billing: BillingConfig{
			WebhookSecret: getEnv("BILLING_WEBHOOK_SECRET", ""),
		},
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if config.Billing.WebhookSecret == "" {
		return nil, fmt.Errorf("BILLING_WEBHOOK_SECRET is required")
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// splitEnv parses a comma-separated environment variable into a slice
func splitEnv(key, defaultValue string) []string {
	value := getEnv(key, defaultValue)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
