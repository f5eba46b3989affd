package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultJWTSecret       = "your-very-secure-and-long-jwt-secret-key-for-hs256-minimum-32-bytes"
	defaultPriceAPIBaseURL = "https://query1.finance.yahoo.com"
)

type AppConfig struct {
	Port               string
	LogLevel           string
	DatabasePath       string // Empty keeps portfolios in memory only
	JWTSecret          string
	SessionTokenExpiry time.Duration
	MaxUploadSizeBytes int64
	AllowedOrigins     []string

	PriceAPIBaseURL     string
	PriceBatchSize      int
	PriceBatchPause     time.Duration
	PriceRequestTimeout time.Duration
	PriceCacheTTL       time.Duration

	// Cron expression for the background refresh of stored portfolios. Empty disables it.
	PriceRefreshSchedule string

	RateLimitRPS   int
	RateLimitBurst int

	TransactionDisplayLimit int
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")
	Cfg = Load()

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, PriceBatchSize=%d, RefreshSchedule=%q",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.PriceBatchSize, Cfg.PriceRefreshSchedule)
}

// Load builds an AppConfig from the environment without touching the global.
func Load() *AppConfig {
	jwtSecret := getEnv("JWT_SECRET", defaultJWTSecret)
	if jwtSecret == defaultJWTSecret {
		log.Println("WARNING: Using default insecure JWT_SECRET. Set JWT_SECRET environment variable for production.")
	}

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760")
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil || maxUploadSizeBytes <= 0 {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	batchSize := getEnvAsInt("PRICE_BATCH_SIZE", 5)
	if batchSize <= 0 {
		log.Printf("WARNING: PRICE_BATCH_SIZE must be positive, got %d. Using default 5.", batchSize)
		batchSize = 5
	}

	return &AppConfig{
		Port:               getEnv("PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabasePath:       getEnv("DATABASE_PATH", "./stockfolio.db"),
		JWTSecret:          jwtSecret,
		SessionTokenExpiry: getEnvAsDuration("SESSION_TOKEN_EXPIRY", 30*24*time.Hour),
		MaxUploadSizeBytes: maxUploadSizeBytes,
		AllowedOrigins:     splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		PriceAPIBaseURL:     strings.TrimRight(getEnv("PRICE_API_BASE_URL", defaultPriceAPIBaseURL), "/"),
		PriceBatchSize:      batchSize,
		PriceBatchPause:     getEnvAsDuration("PRICE_BATCH_PAUSE", 100*time.Millisecond),
		PriceRequestTimeout: getEnvAsDuration("PRICE_REQUEST_TIMEOUT", 20*time.Second),
		PriceCacheTTL:       getEnvAsDuration("PRICE_CACHE_TTL", time.Minute),

		PriceRefreshSchedule: getEnv("PRICE_REFRESH_SCHEDULE", ""),

		RateLimitRPS:   getEnvAsInt("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 30),

		TransactionDisplayLimit: getEnvAsInt("TRANSACTION_DISPLAY_LIMIT", 10),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
