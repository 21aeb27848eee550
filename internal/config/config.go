package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	JWTSecret   string
	MongoURI    string
	DBName      string
	SkipAuth    bool
	Environment string
	AppId       string
	CORSOrigins string // comma separated

	// Listing limits
	MaxPageSize     int // Upper bound for the "limit" query parameter
	MaxEnumerateIDs int // Refuse id enumeration beyond this many matches
	MaxResolveItems int // Refuse bulk resolution beyond this many records

	// Bulk operation housekeeping
	BulkRetentionDays   int
	BulkCleanupSchedule string // cron spec, e.g. "@daily"
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:                getEnv("PORT", "8080"),
		JWTSecret:           getEnv("JWT_SECRET", "secret"),
		MongoURI:            getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:              getEnv("DB_NAME", "go-freight"),
		SkipAuth:            getEnv("SKIP_AUTH", "false") == "true",
		Environment:         getEnv("ENVIRONMENT", "development"),
		AppId:               getEnv("APP_ID", "go-freight"),
		CORSOrigins:         getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		MaxPageSize:         getEnvInt("MAX_PAGE_SIZE", 100),
		MaxEnumerateIDs:     getEnvInt("MAX_ENUMERATE_IDS", 50000),
		MaxResolveItems:     getEnvInt("MAX_RESOLVE_ITEMS", 10000),
		BulkRetentionDays:   getEnvInt("BULK_RETENTION_DAYS", 30),
		BulkCleanupSchedule: getEnv("BULK_CLEANUP_SCHEDULE", "@daily"),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		log.Printf("Ignoring invalid %s=%q, using %d", key, value, fallback)
		return fallback
	}
	return n
}
