package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.DataCatalog != "demo" || cfg.DataSchema != "data_api_serving" || cfg.DataTable != "customer_details" {
		t.Errorf("table defaults = %s.%s.%s", cfg.DataCatalog, cfg.DataSchema, cfg.DataTable)
	}
	if cfg.MaxPageSize != 200 {
		t.Errorf("MaxPageSize = %d", cfg.MaxPageSize)
	}
	if cfg.WarehouseBackend != "databricks" {
		t.Errorf("WarehouseBackend = %q", cfg.WarehouseBackend)
	}
	if cfg.DatabricksAuthType != "pat" {
		t.Errorf("DatabricksAuthType = %q", cfg.DatabricksAuthType)
	}
	if cfg.QueryTimeout != 30*time.Second {
		t.Errorf("QueryTimeout = %v", cfg.QueryTimeout)
	}
	if cfg.AuditSink != "none" {
		t.Errorf("AuditSink = %q", cfg.AuditSink)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATA_CATALOG", "prod")
	t.Setenv("MAX_PAGE_SIZE", "500")
	t.Setenv("QUERY_TIMEOUT", "5s")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("RATE_LIMIT_PER_SEC", "2.5")

	cfg := Load()
	if cfg.DataCatalog != "prod" {
		t.Errorf("DataCatalog = %q", cfg.DataCatalog)
	}
	if cfg.MaxPageSize != 500 {
		t.Errorf("MaxPageSize = %d", cfg.MaxPageSize)
	}
	if cfg.QueryTimeout != 5*time.Second {
		t.Errorf("QueryTimeout = %v", cfg.QueryTimeout)
	}
	if !cfg.MinioUseSSL {
		t.Error("MinioUseSSL = false")
	}
	if cfg.RateLimitPerSec != 2.5 {
		t.Errorf("RateLimitPerSec = %v", cfg.RateLimitPerSec)
	}
}

func TestLoadBadValuesFallBack(t *testing.T) {
	t.Setenv("MAX_PAGE_SIZE", "many")
	t.Setenv("QUERY_TIMEOUT", "soon")

	cfg := Load()
	if cfg.MaxPageSize != 200 {
		t.Errorf("MaxPageSize = %d, want default", cfg.MaxPageSize)
	}
	if cfg.QueryTimeout != 30*time.Second {
		t.Errorf("QueryTimeout = %v, want default", cfg.QueryTimeout)
	}
}

func TestQualifiedTable(t *testing.T) {
	cfg := &Config{DataCatalog: "demo", DataSchema: "data_api_serving", DataTable: "customer_details"}
	if got := cfg.QualifiedTable(); got != "demo.data_api_serving.customer_details" {
		t.Errorf("QualifiedTable = %q", got)
	}
}
