// Package query compiles normalized requests into executable statements.
//
// Every caller-controlled value binds as a parameter; SQL text is assembled
// only from catalog expressions, fixed operators, and the configured table
// name. Numeric and timestamp parameters are wrapped in explicit CASTs so
// string-typed transport values compare as native types.
package query

import (
	"strconv"
	"strings"

	"github.com/skyler-myers-db/data-api-serving/internal/catalog"
	"github.com/skyler-myers-db/data-api-serving/internal/cursor"
	"github.com/skyler-myers-db/data-api-serving/internal/request"
	"github.com/skyler-myers-db/data-api-serving/internal/warehouse"
)

// Compiled is an executable page query plus the metadata the assembler
// needs to shape the response.
type Compiled struct {
	Statement    warehouse.Statement
	PublicCols   []string // what the caller asked for
	InternalCols []string // public plus keyset columns, in select order
	PageSize     int
}

// Compile builds the page statement for one normalized request. It is pure
// and total: a malformed cursor simply compiles to the first page.
func Compile(cat *catalog.Catalog, table string, n request.Normalized) Compiled {
	var where []string
	var params []warehouse.Param

	addFilter := func(pred, name string, value any) {
		where = append(where, pred)
		params = append(params, warehouse.Param{Name: name, Value: value})
	}

	f := n.Filters
	if f.Email != "" {
		addFilter(lowerEq(cat, "email", "email_lc"), "email_lc", strings.ToLower(f.Email))
	}
	if f.Name != "" {
		addFilter(eq(cat, "name", "name"), "name", f.Name)
	}
	if f.NameContains != "" {
		addFilter(lowerLike(cat, "name", "name_like"), "name_like", "%"+f.NameContains+"%")
	}
	if f.CustomerID != nil {
		addFilter(eq(cat, "customer_id", "customer_id"), "customer_id", *f.CustomerID)
	}
	if f.IPAddr != "" {
		addFilter(eq(cat, "ip_addr", "ip_addr"), "ip_addr", f.IPAddr)
	}
	if f.Phone != "" {
		addFilter(eq(cat, "phone", "phone"), "phone", f.Phone)
	}
	if f.ModifiedFrom != "" {
		addFilter(cmp(cat, "modified_ts", ">=", "modified_from"), "modified_from", f.ModifiedFrom)
	}
	if f.ModifiedTo != "" {
		addFilter(cmp(cat, "modified_ts", "<", "modified_to"), "modified_to", f.ModifiedTo)
	}

	// A cursor only applies when its arity matches the keyset; anything else
	// means the first page.
	keyset := cat.Keyset()
	if after := cursor.Decode(n.Cursor); len(after) > 0 && len(after) == len(keyset) {
		pred, keyParams := keysetWhere(cat, keyset, after)
		where = append(where, "("+pred+")")
		params = append(params, keyParams...)
	}

	publicCols := n.Select
	internalCols := append([]string(nil), publicCols...)
	for _, name := range cat.KeysetColumns() {
		if !contains(internalCols, name) {
			internalCols = append(internalCols, name)
		}
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(selectList(cat, internalCols))
	sb.WriteString(" FROM ")
	sb.WriteString(table)
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(orderBy(cat, keyset))
	sb.WriteString(" LIMIT :lim")

	// One lookahead row beyond the page detects has_more.
	params = append(params, warehouse.Param{Name: "lim", Value: n.Limit + 1})

	return Compiled{
		Statement:    warehouse.Statement{SQL: sb.String(), Params: params},
		PublicCols:   publicCols,
		InternalCols: internalCols,
		PageSize:     n.Limit,
	}
}

// keysetWhere builds the lexicographic disjunction that resumes after the
// cursor row. For a DESC/DESC keyset:
//
//	(m < :k0) OR (m = :k0 AND c < :k1)
func keysetWhere(cat *catalog.Catalog, keyset []catalog.KeysetPart, after []any) (string, []warehouse.Param) {
	clauses := make([]string, 0, len(keyset))
	params := make([]warehouse.Param, 0, len(keyset))

	for i, part := range keyset {
		var parts []string
		for j := 0; j < i; j++ {
			parts = append(parts, cmp(cat, keyset[j].Column, "=", keyName(j)))
		}
		op := ">"
		if part.Desc {
			op = "<"
		}
		parts = append(parts, cmp(cat, part.Column, op, keyName(i)))
		clauses = append(clauses, "("+strings.Join(parts, " AND ")+")")
		params = append(params, warehouse.Param{Name: keyName(i), Value: after[i]})
	}
	return strings.Join(clauses, " OR "), params
}

func keyName(i int) string {
	return "k" + strconv.Itoa(i)
}

// castParam renders a placeholder, wrapped in a CAST for non-string columns.
func castParam(col catalog.Column, pname string) string {
	switch col.Type {
	case catalog.TypeBigint:
		return "CAST(:" + pname + " AS BIGINT)"
	case catalog.TypeDouble:
		return "CAST(:" + pname + " AS DOUBLE)"
	case catalog.TypeTimestamp:
		return "CAST(:" + pname + " AS TIMESTAMP)"
	default:
		return ":" + pname
	}
}

func eq(cat *catalog.Catalog, column, pname string) string {
	return cmp(cat, column, "=", pname)
}

func cmp(cat *catalog.Catalog, column, op, pname string) string {
	col, _ := cat.Lookup(column)
	return col.Expr + " " + op + " " + castParam(col, pname)
}

func lowerEq(cat *catalog.Catalog, column, pname string) string {
	col, _ := cat.Lookup(column)
	return "lower(" + col.Expr + ") = :" + pname
}

func lowerLike(cat *catalog.Catalog, column, pname string) string {
	col, _ := cat.Lookup(column)
	return "lower(" + col.Expr + ") LIKE :" + pname
}

func selectList(cat *catalog.Catalog, names []string) string {
	exprs := make([]string, 0, len(names))
	for _, name := range names {
		col, ok := cat.Lookup(name)
		if !ok {
			continue
		}
		if col.Expr != col.Name {
			exprs = append(exprs, col.Expr+" AS "+col.Name)
		} else {
			exprs = append(exprs, col.Expr)
		}
	}
	return strings.Join(exprs, ", ")
}

func orderBy(cat *catalog.Catalog, keyset []catalog.KeysetPart) string {
	parts := make([]string, len(keyset))
	for i, part := range keyset {
		col, _ := cat.Lookup(part.Column)
		dir := "ASC"
		if part.Desc {
			dir = "DESC"
		}
		parts[i] = col.Expr + " " + dir
	}
	return strings.Join(parts, ", ")
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
