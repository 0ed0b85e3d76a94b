package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Host    string
	Port    string
	OpsPort string // empty disables the operator listener
	Env     string
}

type DatabaseConfig struct {
	Type string // "sqlite" or "postgres"
	DSN  string
	Path string // For SQLite: file path
}

// StorageConfig selects the key-value medium backing sessions, the profile
// registry and the activity log.
type StorageConfig struct {
	Backend       string // "gorm", "redis" or "memory"
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

type AuthConfig struct {
	AdminAccessCode   string
	Delay             time.Duration
	AdminSessionTTL   time.Duration
	DefaultSessionTTL time.Duration
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dbType := getEnv("DB_TYPE", "sqlite")
	dsn, dbPath := buildDSN(dbType)

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	delay, err := getDuration("AUTH_DELAY", 1200*time.Millisecond)
	if err != nil {
		return nil, err
	}
	adminTTL, err := getDuration("ADMIN_SESSION_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	defaultTTL, err := getDuration("SESSION_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:    getEnv("SERVER_PORT", "8080"),
			OpsPort: getEnv("OPS_PORT", "9091"),
			Env:     getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Type: dbType,
			DSN:  dsn,
			Path: dbPath,
		},
		Storage: StorageConfig{
			Backend:       getEnv("STORAGE_BACKEND", "gorm"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
		},
		Auth: AuthConfig{
			AdminAccessCode:   getEnv("ADMIN_ACCESS_CODE", ""),
			Delay:             delay,
			AdminSessionTTL:   adminTTL,
			DefaultSessionTTL: defaultTTL,
		},
	}

	switch cfg.Storage.Backend {
	case "gorm", "redis", "memory":
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.Storage.Backend)
	}

	return cfg, nil
}

// Address returns the host:port the HTTP server listens on.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// OpsAddress returns the operator listener address, or "" when disabled.
func (c *Config) OpsAddress() string {
	if c.Server.OpsPort == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.OpsPort)
}

func buildDSN(dbType string) (string, string) {
	if dbType == "postgres" {
		dbHost := getEnv("DB_HOST", "localhost")
		dbPort := getEnv("DB_PORT", "5432")
		dbUser := getEnv("DB_USER", "postgres")
		dbPassword := getEnv("DB_PASSWORD", "postgres")
		dbName := getEnv("DB_NAME", "radlearn")
		sslMode := getEnv("DB_SSLMODE", "disable")

		dsn := fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			dbHost, dbPort, dbUser, dbPassword, dbName, sslMode,
		)
		return dsn, ""
	}

	// SQLite configuration (default for development)
	dbPath := getEnv("SQLITE_PATH", "./data/radlearn.db")
	dsn := dbPath + "?mode=rwc&cache=shared&timeout=5000"
	return dsn, dbPath
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return d, nil
}
