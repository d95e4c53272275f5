// Package warehouse abstracts statement execution over SQL warehouse
// backends.
//
// Statements carry :name placeholders plus an ordered parameter list; each
// backend adapts that to its driver's binding style. Caller-controlled
// values only ever travel as parameters.
package warehouse

import "context"

// Param is one named bound value.
type Param struct {
	Name  string
	Value any
}

// Statement is one executable query. Parameter names are unique within
// Params; a name may appear more than once in the SQL text.
type Statement struct {
	SQL    string
	Params []Param
}

// ResultSet is a fully materialized query result. Values keep their driver
// types; JSON conversion happens at page assembly.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// Executor runs read-only statements against one warehouse backend.
type Executor interface {
	// ID identifies the backend, e.g. "databricks".
	ID() string

	// Query executes stmt and drains every row.
	Query(ctx context.Context, stmt Statement) (*ResultSet, error)

	// Ping verifies connectivity.
	Ping(ctx context.Context) error

	// Close releases connections.
	Close() error
}
