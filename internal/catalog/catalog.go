// Package catalog defines the closed set of columns the data API may serve.
//
// Every projection, filter, and sort the API compiles resolves through a
// Catalog. Names that are not in the catalog never reach SQL text, and the
// type tags drive the CAST wrapping of bound parameters.
package catalog

import "fmt"

// ScalarType tags a column with the warehouse type its values carry.
type ScalarType string

const (
	TypeBigint    ScalarType = "BIGINT"
	TypeDouble    ScalarType = "DOUBLE"
	TypeTimestamp ScalarType = "TIMESTAMP"
	TypeString    ScalarType = "STRING"
)

// CastRequired reports whether bound parameters for this type are wrapped in
// an explicit CAST. String parameters bind as-is.
func (t ScalarType) CastRequired() bool {
	return t == TypeBigint || t == TypeDouble || t == TypeTimestamp
}

// Column is one allowlisted column: the public name callers use, the vetted
// SQL expression it compiles to, and its type tag.
type Column struct {
	Name string
	Expr string
	Type ScalarType
}

// KeysetPart is one column of the keyset ordering.
type KeysetPart struct {
	Column string
	Desc   bool
}

// Catalog is an ordered, immutable column allowlist plus the default
// projection and the keyset ordering for one served table.
type Catalog struct {
	columns       []Column
	byName        map[string]int
	defaultSelect []string
	keyset        []KeysetPart
}

// New builds a catalog. The default projection and every keyset column must
// be members of the allowlist; a violation is a programming error and panics.
func New(columns []Column, defaultSelect []string, keyset []KeysetPart) *Catalog {
	c := &Catalog{
		columns: columns,
		byName:  make(map[string]int, len(columns)),
		keyset:  keyset,
	}
	for i, col := range columns {
		if col.Name == "" {
			panic("catalog: column with empty name")
		}
		if _, dup := c.byName[col.Name]; dup {
			panic(fmt.Sprintf("catalog: duplicate column %q", col.Name))
		}
		c.byName[col.Name] = i
	}
	for _, name := range defaultSelect {
		if !c.Has(name) {
			panic(fmt.Sprintf("catalog: default projection references unknown column %q", name))
		}
	}
	for _, part := range keyset {
		if !c.Has(part.Column) {
			panic(fmt.Sprintf("catalog: keyset references unknown column %q", part.Column))
		}
	}
	c.defaultSelect = defaultSelect
	return c
}

// Lookup resolves a public column name.
func (c *Catalog) Lookup(name string) (Column, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Column{}, false
	}
	return c.columns[i], true
}

// Has reports whether name is in the allowlist.
func (c *Catalog) Has(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// Columns returns the allowlist in declaration order.
func (c *Catalog) Columns() []Column {
	return c.columns
}

// DefaultSelect returns a copy of the default projection.
func (c *Catalog) DefaultSelect() []string {
	return append([]string(nil), c.defaultSelect...)
}

// Keyset returns the keyset ordering.
func (c *Catalog) Keyset() []KeysetPart {
	return c.keyset
}

// KeysetColumns returns the keyset column names in keyset order.
func (c *Catalog) KeysetColumns() []string {
	names := make([]string, len(c.keyset))
	for i, part := range c.keyset {
		names[i] = part.Column
	}
	return names
}
