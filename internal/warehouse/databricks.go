package warehouse

import (
	"context"
	"database/sql"
	"fmt"

	dbsql "github.com/databricks/databricks-sql-go"
	"github.com/databricks/databricks-sql-go/auth/oauth/m2m"

	"github.com/skyler-myers-db/data-api-serving/internal/config"
)

func init() {
	Register("databricks", func(ctx context.Context, cfg *config.Config) (Executor, error) {
		return NewDatabricks(cfg)
	})
}

// Databricks executes statements against a Databricks SQL warehouse through
// the official driver. Named parameters bind server-side.
type Databricks struct {
	db *sql.DB
}

// NewDatabricks opens a warehouse connection. PAT and OAuth
// machine-to-machine credentials are supported; sessions are tagged so
// warehouse query history attributes traffic to this API.
func NewDatabricks(cfg *config.Config) (*Databricks, error) {
	opts, err := databricksOptions(cfg)
	if err != nil {
		return nil, err
	}
	connector, err := dbsql.NewConnector(opts...)
	if err != nil {
		return nil, fmt.Errorf("databricks connector: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(cfg.WarehouseMaxConns)
	return &Databricks{db: db}, nil
}

func databricksOptions(cfg *config.Config) ([]dbsql.ConnOption, error) {
	if cfg.DatabricksHostname == "" || cfg.DatabricksHTTPPath == "" {
		return nil, fmt.Errorf("databricks backend requires DATABRICKS_SERVER_HOSTNAME and DATABRICKS_HTTP_PATH")
	}

	opts := []dbsql.ConnOption{
		dbsql.WithServerHostname(cfg.DatabricksHostname),
		dbsql.WithHTTPPath(cfg.DatabricksHTTPPath),
		dbsql.WithInitialNamespace(cfg.DataCatalog, cfg.DataSchema),
		dbsql.WithSessionParams(map[string]string{"query_tags": "app:customers-api"}),
		dbsql.WithUserAgentEntry("data-api-serving"),
	}

	switch cfg.DatabricksAuthType {
	case "oauth", "oauth-m2m":
		if cfg.DatabricksClientID == "" || cfg.DatabricksClientSecret == "" {
			return nil, fmt.Errorf("oauth-m2m auth requires DATABRICKS_CLIENT_ID and DATABRICKS_CLIENT_SECRET")
		}
		authenticator := m2m.NewAuthenticator(cfg.DatabricksClientID, cfg.DatabricksClientSecret, cfg.DatabricksHostname)
		opts = append(opts, dbsql.WithAuthenticator(authenticator))
	case "", "pat":
		if cfg.DatabricksToken == "" {
			return nil, fmt.Errorf("pat auth requires DATABRICKS_TOKEN")
		}
		opts = append(opts, dbsql.WithAccessToken(cfg.DatabricksToken))
	default:
		return nil, fmt.Errorf("unknown DATABRICKS_AUTH_TYPE %q", cfg.DatabricksAuthType)
	}
	return opts, nil
}

// ID returns the backend name.
func (d *Databricks) ID() string {
	return "databricks"
}

// Query executes stmt and materializes every row.
func (d *Databricks) Query(ctx context.Context, stmt Statement) (*ResultSet, error) {
	rows, err := d.db.QueryContext(ctx, stmt.SQL, NamedArgs(stmt)...)
	if err != nil {
		return nil, fmt.Errorf("warehouse query failed: %w", err)
	}
	defer rows.Close()

	return materialize(rows)
}

// Ping verifies warehouse connectivity.
func (d *Databricks) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Close releases the connection pool.
func (d *Databricks) Close() error {
	return d.db.Close()
}

// materialize drains sql.Rows generically, keeping driver value types.
func materialize(rows *sql.Rows) (*ResultSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	rs := &ResultSet{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		rs.Rows = append(rs.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return rs, nil
}
