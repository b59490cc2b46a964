package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database  DatabaseConfig
	Redis     RedisConfig
	Server    ServerConfig
	Providers ProvidersConfig
	Jobs      JobsConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	DB       int
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int
}

// ProvidersConfig holds the external stats provider configuration
type ProvidersConfig struct {
	GitHubBaseURL   string
	GitHubToken     string
	LeetCodeMirrors []string
	Timeout         time.Duration
	CacheTTL        time.Duration
}

// JobsConfig holds the background refresher configuration
type JobsConfig struct {
	RefreshInterval time.Duration
	StaleAfter      time.Duration
	Workers         int
	QueueSize       int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file from root directory (parent of backend/)
	if err := godotenv.Load("../.env"); err != nil {
		// Try loading from current directory as fallback
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, using environment variables")
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "coderooms"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Username: getEnv("REDIS_USERNAME", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Server: ServerConfig{
			Port: getEnvAsInt("BACKEND_PORT", 8000),
		},
		Providers: ProvidersConfig{
			GitHubBaseURL:   getEnv("GITHUB_API_URL", "https://api.github.com"),
			GitHubToken:     getEnv("GITHUB_TOKEN", ""),
			LeetCodeMirrors: getEnvAsList("LEETCODE_MIRRORS", nil),
			Timeout:         getEnvAsDuration("PROVIDER_TIMEOUT_SEC", 10*time.Second),
			CacheTTL:        getEnvAsDuration("STATS_CACHE_TTL_SEC", 10*time.Minute),
		},
		Jobs: JobsConfig{
			RefreshInterval: getEnvAsDuration("REFRESH_INTERVAL_SEC", 15*time.Minute),
			StaleAfter:      getEnvAsDuration("STATS_STALE_AFTER_SEC", 30*time.Minute),
			Workers:         getEnvAsInt("REFRESH_WORKERS", 4),
			QueueSize:       getEnvAsInt("REFRESH_QUEUE_SIZE", 100),
		},
	}

	return cfg, nil
}

// GetDSN returns the PostgreSQL DSN
func (c *Config) GetDSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration retrieves an environment variable holding a number of
// seconds or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil && value > 0 {
		return time.Duration(value) * time.Second
	}
	return defaultValue
}

// getEnvAsList retrieves a comma-separated environment variable or
// returns a default value
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
