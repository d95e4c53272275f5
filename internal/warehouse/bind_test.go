package warehouse

import (
	"database/sql"
	"reflect"
	"testing"
)

func TestNamedArgs(t *testing.T) {
	stmt := Statement{
		SQL: "SELECT * FROM t WHERE a = :a AND b = :b",
		Params: []Param{
			{Name: "a", Value: int64(1)},
			{Name: "b", Value: "x"},
		},
	}
	args := NamedArgs(stmt)
	if len(args) != 2 {
		t.Fatalf("got %d args", len(args))
	}
	first, ok := args[0].(sql.NamedArg)
	if !ok || first.Name != "a" || first.Value != int64(1) {
		t.Errorf("args[0] = %#v", args[0])
	}
	second, ok := args[1].(sql.NamedArg)
	if !ok || second.Name != "b" || second.Value != "x" {
		t.Errorf("args[1] = %#v", args[1])
	}
}

func TestPositionalRewrite(t *testing.T) {
	stmt := Statement{
		SQL: "SELECT a FROM t WHERE lower(email) = :email_lc AND customer_id = CAST(:customer_id AS BIGINT) LIMIT :lim",
		Params: []Param{
			{Name: "email_lc", Value: "a@b.c"},
			{Name: "customer_id", Value: int64(7)},
			{Name: "lim", Value: 51},
		},
	}
	sqlText, args, err := Positional(stmt)
	if err != nil {
		t.Fatalf("Positional: %v", err)
	}
	want := "SELECT a FROM t WHERE lower(email) = $1 AND customer_id = CAST($2 AS BIGINT) LIMIT $3"
	if sqlText != want {
		t.Errorf("sql = %q\nwant  %q", sqlText, want)
	}
	if !reflect.DeepEqual(args, []any{"a@b.c", int64(7), 51}) {
		t.Errorf("args = %#v", args)
	}
}

func TestPositionalRepeatedName(t *testing.T) {
	// Keyset disjunctions reuse :k0 in the equality and comparison clauses.
	stmt := Statement{
		SQL: "(m < CAST(:k0 AS TIMESTAMP)) OR (m = CAST(:k0 AS TIMESTAMP) AND c < CAST(:k1 AS BIGINT))",
		Params: []Param{
			{Name: "k0", Value: "2025-01-01T00:00:00Z"},
			{Name: "k1", Value: int64(9)},
		},
	}
	sqlText, args, err := Positional(stmt)
	if err != nil {
		t.Fatalf("Positional: %v", err)
	}
	want := "(m < CAST($1 AS TIMESTAMP)) OR (m = CAST($1 AS TIMESTAMP) AND c < CAST($2 AS BIGINT))"
	if sqlText != want {
		t.Errorf("sql = %q", sqlText)
	}
	if len(args) != 2 {
		t.Fatalf("args = %#v, want 2 values", args)
	}
}

func TestPositionalOrdinalsFollowTextOrder(t *testing.T) {
	stmt := Statement{
		SQL: "WHERE x = :b AND y = :a",
		Params: []Param{
			{Name: "a", Value: "aval"},
			{Name: "b", Value: "bval"},
		},
	}
	sqlText, args, err := Positional(stmt)
	if err != nil {
		t.Fatalf("Positional: %v", err)
	}
	if sqlText != "WHERE x = $1 AND y = $2" {
		t.Errorf("sql = %q", sqlText)
	}
	if !reflect.DeepEqual(args, []any{"bval", "aval"}) {
		t.Errorf("args = %#v", args)
	}
}

func TestPositionalUnboundParam(t *testing.T) {
	stmt := Statement{SQL: "WHERE x = :ghost"}
	if _, _, err := Positional(stmt); err == nil {
		t.Fatal("expected error for unbound parameter")
	}
}
