package warehouse

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skyler-myers-db/data-api-serving/internal/config"
)

func init() {
	Register("postgres", func(ctx context.Context, cfg *config.Config) (Executor, error) {
		return NewPostgres(ctx, cfg)
	})
}

// Postgres executes statements against PostgreSQL. It exists for local
// development and integration tests; the compiler's SQL is close enough to
// ANSI that only placeholder style and the DOUBLE type alias need rewriting.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres opens a pool against POSTGRES_URL.
func NewPostgres(ctx context.Context, cfg *config.Config) (*Postgres, error) {
	if cfg.PostgresURL == "" {
		return nil, fmt.Errorf("postgres backend requires POSTGRES_URL")
	}
	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// ID returns the backend name.
func (p *Postgres) ID() string {
	return "postgres"
}

// Query executes stmt and materializes every row.
func (p *Postgres) Query(ctx context.Context, stmt Statement) (*ResultSet, error) {
	sqlText, args, err := Positional(stmt)
	if err != nil {
		return nil, err
	}
	// Spark's DOUBLE spells DOUBLE PRECISION here.
	sqlText = strings.ReplaceAll(sqlText, "AS DOUBLE)", "AS DOUBLE PRECISION)")

	rows, err := p.pool.Query(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("warehouse query failed: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}

	rs := &ResultSet{Columns: cols}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		rs.Rows = append(rs.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return rs, nil
}

// Ping verifies connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close releases the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
