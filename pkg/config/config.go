package config

import (
	"fmt"
	"os"
	"strconv"

	// Load environment variables from .env files when present.
	_ "github.com/joho/godotenv/autoload"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Classifier    ClassifierConfig
	Ingest        IngestConfig
	Observability ObservabilityConfig
}

type ServerConfig struct {
	Host    string
	Port    int
	BaseURL string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// ClassifierConfig configures the optional LLM categorization pass. Leaving
// the API key empty disables the classifier; the rule engines still run.
type ClassifierConfig struct {
	APIKey   string
	Model    string
	Endpoint string
}

type IngestConfig struct {
	Currency          string
	SnapshotLimit     int
	MaxUploadBytes    int64
	AliasIndexPath    string
	UploadArchivePath string
	SnapshotRefresh   string // Cron expression for the snapshot cache job
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsPort    int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", "localhost"),
			Port:    getEnvAsInt("SERVER_PORT", 8080),
			BaseURL: getEnv("BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "centsible-dev"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Classifier: ClassifierConfig{
			APIKey:   getEnv("GEMINI_API_KEY", ""),
			Model:    getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			Endpoint: getEnv("GEMINI_ENDPOINT", ""),
		},
		Ingest: IngestConfig{
			Currency:          getEnv("INGEST_CURRENCY", "NZD"),
			SnapshotLimit:     getEnvAsInt("INGEST_SNAPSHOT_LIMIT", 2000),
			MaxUploadBytes:    int64(getEnvAsInt("INGEST_MAX_UPLOAD_BYTES", 10<<20)),
			AliasIndexPath:    getEnv("INGEST_ALIAS_INDEX_PATH", ""),
			UploadArchivePath: getEnv("INGEST_UPLOAD_ARCHIVE_PATH", "./uploads"),
			SnapshotRefresh:   getEnv("INGEST_SNAPSHOT_REFRESH", "0 3 * * *"),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		},
	}

	return cfg, nil
}

// ClassifierEnabled reports whether the LLM pass should be wired in.
func (c *Config) ClassifierEnabled() bool {
	return c.Classifier.APIKey != ""
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
