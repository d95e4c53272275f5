package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"
)

// PostgresRecorder persists audit entries to PostgreSQL.
type PostgresRecorder struct {
	db *sql.DB
}

// NewPostgresRecorder connects, verifies the connection, and applies the
// audit schema migrations.
func NewPostgresRecorder(ctx context.Context, databaseURL, migrationsPath string) (*PostgresRecorder, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("AUDIT_DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	r := &PostgresRecorder{db: db}
	if migrationsPath != "" {
		if err := r.migrate(migrationsPath); err != nil {
			db.Close()
			return nil, err
		}
	}
	return r, nil
}

func (r *PostgresRecorder) migrate(migrationsPath string) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// Record inserts one entry.
func (r *PostgresRecorder) Record(ctx context.Context, e Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO serving_audit (
			request_id, at, subject, backend, table_name,
			select_cols, filter_keys, page_limit, has_cursor,
			row_count, has_more, duration_ms, error_text
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		e.RequestID, e.At, e.Subject, e.Backend, e.Table,
		pq.Array(e.Select), pq.Array(e.FilterKeys), e.Limit, e.HasCursor,
		e.RowCount, e.HasMore, e.DurationMS, e.Error,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (r *PostgresRecorder) Close() error {
	return r.db.Close()
}
