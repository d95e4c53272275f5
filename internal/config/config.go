// Package config provides configuration for the data API serving service.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration, read once at startup.
type Config struct {
	// Server settings
	Port string

	// Served table
	DataCatalog string
	DataSchema  string
	DataTable   string
	MaxPageSize int

	// Warehouse settings
	WarehouseBackend  string // "databricks" | "postgres"
	QueryTimeout      time.Duration
	WarehouseMaxConns int

	// Databricks settings
	DatabricksHostname     string
	DatabricksHTTPPath     string
	DatabricksAuthType     string // "pat" | "oauth" | "oauth-m2m"
	DatabricksToken        string
	DatabricksClientID     string
	DatabricksClientSecret string

	// Postgres backend (local development)
	PostgresURL string

	// Rate limiting of warehouse round-trips; zero disables
	RateLimitPerSec float64
	RateLimitBurst  int

	// Auth settings; both empty means anonymous access
	AuthToken   string
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	// Audit settings
	AuditSink           string // "none" | "postgres" | "object"
	AuditDatabaseURL    string
	AuditMigrationsPath string
	AuditBucket         string
	AuditPrefix         string

	// Object store settings (audit sink + bulk export)
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	LocalStorePath string

	// Bulk export settings
	ExportBucket   string
	ExportPrefix   string
	ExportFormat   string // "parquet" | "jsonl"
	ExportPageSize int
}

// QualifiedTable returns the fully qualified table the API serves.
func (c *Config) QualifiedTable() string {
	return c.DataCatalog + "." + c.DataSchema + "." + c.DataTable
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port: getEnv("SERVING_PORT", "8080"),

		DataCatalog: getEnv("DATA_CATALOG", "demo"),
		DataSchema:  getEnv("DATA_SCHEMA", "data_api_serving"),
		DataTable:   getEnv("DATA_TABLE", "customer_details"),
		MaxPageSize: getEnvInt("MAX_PAGE_SIZE", 200),

		WarehouseBackend:  getEnv("WAREHOUSE_BACKEND", "databricks"),
		QueryTimeout:      getEnvDuration("QUERY_TIMEOUT", 30*time.Second),
		WarehouseMaxConns: getEnvInt("WAREHOUSE_MAX_CONNS", 10),

		DatabricksHostname:     getEnv("DATABRICKS_SERVER_HOSTNAME", ""),
		DatabricksHTTPPath:     getEnv("DATABRICKS_HTTP_PATH", ""),
		DatabricksAuthType:     getEnv("DATABRICKS_AUTH_TYPE", "pat"),
		DatabricksToken:        getEnv("DATABRICKS_TOKEN", ""),
		DatabricksClientID:     getEnv("DATABRICKS_CLIENT_ID", ""),
		DatabricksClientSecret: getEnv("DATABRICKS_CLIENT_SECRET", ""),

		PostgresURL: getEnv("POSTGRES_URL", ""),

		RateLimitPerSec: getEnvFloat("RATE_LIMIT_PER_SEC", 0),
		RateLimitBurst:  getEnvInt("RATE_LIMIT_BURST", 1),

		AuthToken:   getEnv("SERVING_AUTH_TOKEN", ""),
		JWTSecret:   getEnv("SERVING_JWT_SECRET", ""),
		JWTIssuer:   getEnv("SERVING_JWT_ISSUER", ""),
		JWTAudience: getEnv("SERVING_JWT_AUDIENCE", ""),

		AuditSink:           getEnv("AUDIT_SINK", "none"),
		AuditDatabaseURL:    getEnv("AUDIT_DATABASE_URL", ""),
		AuditMigrationsPath: getEnv("AUDIT_MIGRATIONS_PATH", "./migrations"),
		AuditBucket:         getEnv("AUDIT_BUCKET", "serving-audit"),
		AuditPrefix:         getEnv("AUDIT_PREFIX", "audit"),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		LocalStorePath: getEnv("LOCAL_STORE_PATH", "./data"),

		ExportBucket:   getEnv("EXPORT_BUCKET", "serving-exports"),
		ExportPrefix:   getEnv("EXPORT_PREFIX", "exports"),
		ExportFormat:   getEnv("EXPORT_FORMAT", "parquet"),
		ExportPageSize: getEnvInt("EXPORT_PAGE_SIZE", 200),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
