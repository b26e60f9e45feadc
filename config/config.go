package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingMongoURI is returned when no connection string is configured.
var ErrMissingMongoURI = errors.New("MONGODB_CONNECTION_STRING is not set")

type Config struct {
	MongoURI      string
	Database      string
	Port          string
	JWTSecret     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
	QueryTimeout  time.Duration
	LogLevel      string
}

// LoadEnv loads environment variables from a .env file. A missing file is
// not an error; the process environment is used as is.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	err := godotenv.Load(files...)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

// GetEnv retrieves environment variables with a fallback
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		MongoURI:      GetEnv("MONGODB_CONNECTION_STRING", os.Getenv("MONGODB_URI")),
		Database:      GetEnv("MONGODB_DATABASE", "olistDB"),
		Port:          GetEnv("PORT", "3000"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		LogLevel:      GetEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getDuration("CACHE_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.QueryTimeout, err = getDuration("QUERY_TIMEOUT", time.Minute); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RequireMongo fails fast when the store location is missing.
func (c *Config) RequireMongo() error {
	if c.MongoURI == "" {
		return ErrMissingMongoURI
	}
	return nil
}
