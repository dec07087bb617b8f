package config

import (
	"fmt"
	"github.com/joho/godotenv"
	"os"
	"strconv"
	"time"
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

	// JWT (tokens are minted by the external auth provider, we only verify them)
	JwtSecret string
	JwtTTL    time.Duration

	// Server
	ApiPort        string
	ServiceApiPort string
	WebBaseURL     string

	// Email
	SmtpHost        string
	SmtpPort        int
	SmtpUsername    string
	SmtpPassword    string
	SmtpFromAddress string
	MockServices    bool   // MOCK_SERVICES=true stores mail in Redis instead of sending it
	EmailLogFile    string // LOG_EMAILS, optional file copy of every outgoing mail

	// AWS S3
	AwsAccessKeyID      string
	AwsSecretAccessKey  string
	AwsRegion           string
	AwsS3Bucket         string
	ImageBaseS3URL      string
	ImageMaxDimension   int
	ImageMaxSizeMB      int
	MaxImagesPerListing int

	// App Defaults
	AppName        string
	CurrencySymbol string
	GetCacheTTL    time.Duration
	StoreTimeout   time.Duration

	// Rate Limiting Defaults
	RateLimitBucketSize        int
	RateLimitRefillRate        int // tokens per second
	RateLimitMessageBucketSize int
	RateLimitMessageRefillRate int
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

	getSeconds := func(key, defaultValue string) (time.Duration, error) {
		seconds, err := strconv.ParseInt(getEnv(key, defaultValue), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}

	// Load basic string values
	cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
	if err != nil {
		return nil, err
	}
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "bookloop")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.JwtSecret, err = getRequiredEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	cfg.ApiPort = getEnv("API_PORT", "8080")
	cfg.ServiceApiPort = getEnv("SERVICE_API_PORT", "12345")
	cfg.WebBaseURL = getEnv("WEB_BASE_URL", "http://localhost:5173")
	cfg.SmtpHost = getEnv("SMTP_HOST", "")
	cfg.SmtpUsername = getEnv("SMTP_USERNAME", "")
	cfg.SmtpPassword = getEnv("SMTP_PASSWORD", "")
	cfg.SmtpFromAddress = getEnv("SMTP_FROM_ADDRESS", "noreply@bookloop.example.com")
	cfg.MockServices = getEnv("MOCK_SERVICES", "") == "true"
	cfg.EmailLogFile = getEnv("LOG_EMAILS", "")
	cfg.AwsAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.AwsSecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")
	cfg.AwsRegion = getEnv("AWS_REGION", "")
	cfg.AwsS3Bucket = getEnv("AWS_S3_BUCKET", "")
	cfg.ImageBaseS3URL = getEnv("IMAGE_BASE_S3_URL", "")
	cfg.AppName = getEnv("APP_NAME", "BookLoop")
	cfg.CurrencySymbol = getEnv("CURRENCY_SYMBOL", "₹")

	// Load numeric and time duration values with defaults and parsing
	cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg.JwtTTL, err = getSeconds("JWT_TTL_SECONDS", "3600")
	if err != nil {
		return nil, err
	}

	cfg.SmtpPort, err = strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	cfg.ImageMaxDimension, err = strconv.Atoi(getEnv("IMAGE_MAX_DIMENSION", "2048"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMAGE_MAX_DIMENSION: %w", err)
	}

	cfg.ImageMaxSizeMB, err = strconv.Atoi(getEnv("IMAGE_MAX_SIZE_MB", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMAGE_MAX_SIZE_MB: %w", err)
	}

	cfg.MaxImagesPerListing, err = strconv.Atoi(getEnv("MAX_IMAGES_PER_LISTING", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_IMAGES_PER_LISTING: %w", err)
	}

	cfg.GetCacheTTL, err = getSeconds("GET_CACHE_TTL_SECONDS", "60")
	if err != nil {
		return nil, err
	}

	cfg.StoreTimeout, err = getSeconds("STORE_TIMEOUT_SECONDS", "10")
	if err != nil {
		return nil, err
	}

	// Rate Limiting
	cfg.RateLimitBucketSize, err = strconv.Atoi(getEnv("RATE_LIMIT_BUCKET_SIZE", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BUCKET_SIZE: %w", err)
	}
	cfg.RateLimitRefillRate, err = strconv.Atoi(getEnv("RATE_LIMIT_REFILL_RATE", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REFILL_RATE: %w", err)
	}
	cfg.RateLimitMessageBucketSize, err = strconv.Atoi(getEnv("RATE_LIMIT_MESSAGE_BUCKET_SIZE", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_MESSAGE_BUCKET_SIZE: %w", err)
	}
	cfg.RateLimitMessageRefillRate, err = strconv.Atoi(getEnv("RATE_LIMIT_MESSAGE_REFILL_RATE", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_MESSAGE_REFILL_RATE: %w", err)
	}

	return cfg, nil
}

// ImageMaxSizeBytes returns the per-image upload limit in bytes.
func (c *Config) ImageMaxSizeBytes() int64 {
	return int64(c.ImageMaxSizeMB) * 1024 * 1024
}
