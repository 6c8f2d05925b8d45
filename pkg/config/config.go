package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	RedisURL       string
	Port           string
	IsProduction   bool
	EnableDBCheck  bool
	JWTSecret      string
	RateLimit      string
	PostingRetries int
	IdempotencyTTL time.Duration
	CORSOrigins    []string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("POSTING_RETRIES", 3)
	viper.SetDefault("IDEMPOTENCY_TTL", "24h")
	viper.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.RedisURL = viper.GetString("REDIS_URL")
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set. Idempotency keys will not be honored.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	cfg.PostingRetries = viper.GetInt("POSTING_RETRIES")
	if cfg.PostingRetries <= 0 {
		log.Println("Warning: POSTING_RETRIES must be positive. Defaulting to 3.")
		cfg.PostingRetries = 3
	}

	idempotencyTTLStr := viper.GetString("IDEMPOTENCY_TTL")
	idempotencyTTL, err := time.ParseDuration(idempotencyTTLStr)
	if err != nil {
		idempotencyTTL = 24 * time.Hour
		log.Printf("Warning: Invalid value for IDEMPOTENCY_TTL ('%s'). Defaulting to %s.\n", idempotencyTTLStr, idempotencyTTL)
	}
	cfg.IdempotencyTTL = idempotencyTTL

	cfg.CORSOrigins = viper.GetStringSlice("CORS_ORIGINS")

	return cfg, nil
}
