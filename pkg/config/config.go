package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration. The token signing key
// and lifetime live here, injected at startup, so they can be rotated
// per environment instead of being compiled in.
type Config struct {
	Environment string
	ServerPort  int
	LogLevel    string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	JWTSecret string
	TokenTTL  time.Duration

	RedisURL       string // empty disables the redis view cache
	RegionCacheTTL time.Duration

	CORSAllowedOrigins []string

	AdminUsername string
	AdminPassword string // initial seed password, change after first login
	SeedDistricts bool
}

// Districts seeded at startup when SEED_DISTRICTS is enabled. Code is
// the natural key referenced by clusters.
var DistrictSeed = map[string]string{
	"qarshi":     "Qarshi tumani",
	"kasbi":      "Kasbi tumani",
	"nishon":     "Nishon tumani",
	"mirishkor":  "Mirishkor tumani",
	"kitob":      "Kitob tumani",
	"shahrisabz": "Shahrisabz tumani",
	"guzor":      "G'uzor tumani",
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	tokenTTLMin, err := strconv.Atoi(getEnv("TOKEN_TTL_MINUTES", "1440"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL_MINUTES: %w", err)
	}

	cacheTTLSec, err := strconv.Atoi(getEnv("REGION_CACHE_TTL_SECONDS", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid REGION_CACHE_TTL_SECONDS: %w", err)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		ServerPort:  port,
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "agroregistry"),
		DBPassword: getEnv("DB_PASSWORD", "dev"),
		DBName:     getEnv("DB_NAME", "agroregistry"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret: secret,
		TokenTTL:  time.Duration(tokenTTLMin) * time.Minute,

		RedisURL:       os.Getenv("REDIS_URL"),
		RegionCacheTTL: time.Duration(cacheTTLSec) * time.Second,

		CORSAllowedOrigins: parseCSVEnv("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:5173",
			"http://localhost:3000",
		}),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin"),
		SeedDistricts: getEnv("SEED_DISTRICTS", "true") == "true",
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
