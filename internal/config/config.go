package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Fingerprint backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendGCS    = "gcs"
	BackendMemory = "memory"
)

var validBackends = []string{BackendFile, BackendSQLite, BackendGCS, BackendMemory}

type Config struct {
	// Notion
	NotionToken      string
	NotionDatabaseID string
	NotionRateLimit  float64
	NotionPageSize   int
	FieldMappingFile string

	// Output
	SiteDir     string
	ReportTitle string
	PublishGCS  bool

	// Fingerprint
	FingerprintBackend string
	FingerprintFile    string
	SQLiteDBPath       string

	// Google Cloud
	GCSBucket       string
	GCSPrefix       string
	BigQueryProject string
	BigQueryDataset string
	BigQueryTable   string
	GeminiModel     string

	// AMQP
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	// Server
	Port            string
	RefreshInterval time.Duration
	LogLevel        string
}

// LoadDotEnv reads a .env file into the environment when one exists.
// Variables already set take precedence.
func LoadDotEnv(paths ...string) {
	_ = godotenv.Load(paths...)
}

func Load() *Config {
	cfg := &Config{
		NotionToken:      getEnv("NOTION_TOKEN", ""),
		NotionDatabaseID: getEnv("NOTION_DATABASE_ID", getEnv("DATABASE_ID", "")),
		NotionRateLimit:  getEnvFloat("NOTION_RATE_LIMIT", 3),
		NotionPageSize:   getEnvInt("NOTION_PAGE_SIZE", 100),
		FieldMappingFile: getEnv("FIELD_MAPPING_FILE", ""),

		SiteDir:     getEnv("SITE_DIR", "site"),
		ReportTitle: getEnv("REPORT_TITLE", "Gastos"),
		PublishGCS:  getEnvBool("PUBLISH_GCS", false),

		FingerprintBackend: getEnv("FINGERPRINT_BACKEND", BackendFile),
		FingerprintFile:    getEnv("FINGERPRINT_FILE", "data/fingerprint.txt"),
		SQLiteDBPath:       getEnv("SQLITE_DB_PATH", "./data/dashboard.db"),

		GCSBucket:       getEnv("GCS_BUCKET", ""),
		GCSPrefix:       getEnv("GCS_PREFIX", "expense-dashboard"),
		BigQueryProject: getEnv("BIGQUERY_PROJECT", ""),
		BigQueryDataset: getEnv("BIGQUERY_DATASET", ""),
		BigQueryTable:   getEnv("BIGQUERY_TABLE", "expense_views"),
		GeminiModel:     getEnv("GEMINI_MODEL", ""),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "expense_dashboard"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "report.updated"),

		Port:            getEnv("PORT", "8080"),
		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 15*time.Minute),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// BigQueryEnabled reports whether view rows are exported to BigQuery.
func (c *Config) BigQueryEnabled() bool {
	return c.BigQueryProject != "" && c.BigQueryDataset != ""
}

// Validate validates the configuration and returns an error listing every problem.
func (c *Config) Validate() error {
	var errors []string

	if c.NotionToken == "" {
		errors = append(errors, "NOTION_TOKEN is required")
	}
	if c.NotionDatabaseID == "" {
		errors = append(errors, "NOTION_DATABASE_ID (or DATABASE_ID) is required")
	}
	if c.NotionRateLimit <= 0 {
		errors = append(errors, fmt.Sprintf("invalid Notion rate limit %v: must be positive", c.NotionRateLimit))
	}
	if c.NotionPageSize < 1 || c.NotionPageSize > 100 {
		errors = append(errors, fmt.Sprintf("invalid Notion page size %d: must be between 1 and 100", c.NotionPageSize))
	}

	isValidBackend := false
	for _, backend := range validBackends {
		if c.FingerprintBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid fingerprint backend '%s': must be one of %v", c.FingerprintBackend, validBackends))
	}

	switch c.FingerprintBackend {
	case BackendFile:
		if c.FingerprintFile == "" {
			errors = append(errors, "FINGERPRINT_FILE cannot be empty when using file backend")
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	case BackendGCS:
		if c.GCSBucket == "" {
			errors = append(errors, "GCS_BUCKET is required when using gcs backend")
		}
	}

	if c.PublishGCS && c.GCSBucket == "" {
		errors = append(errors, "GCS_BUCKET is required when PUBLISH_GCS is set")
	}
	if c.SiteDir == "" && !c.PublishGCS {
		errors = append(errors, "SITE_DIR cannot be empty unless the site is published to GCS")
	}

	if (c.BigQueryProject == "") != (c.BigQueryDataset == "") {
		errors = append(errors, "BIGQUERY_PROJECT and BIGQUERY_DATASET must be set together")
	}
	if c.BigQueryEnabled() && c.BigQueryTable == "" {
		errors = append(errors, "BIGQUERY_TABLE cannot be empty when BigQuery export is enabled")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RefreshInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid refresh interval %v: must be at least 1 minute", c.RefreshInterval))
	} else if c.RefreshInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid refresh interval %v: must be at most 24 hours", c.RefreshInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
