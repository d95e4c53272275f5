package warehouse

import (
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
)

// paramPattern matches :name placeholders. Compiled SQL carries no string
// literals or casts spelled with "::", so a bare scan over the text is safe.
var paramPattern = regexp.MustCompile(`:([A-Za-z_][A-Za-z0-9_]*)`)

// NamedArgs converts statement params for drivers that bind :name natively.
func NamedArgs(stmt Statement) []any {
	args := make([]any, len(stmt.Params))
	for i, p := range stmt.Params {
		args[i] = sql.Named(p.Name, p.Value)
	}
	return args
}

// Positional rewrites :name placeholders to $1..$N for drivers without
// named binding. A name that appears more than once reuses its first
// ordinal. Returns the rewritten SQL and the values in ordinal order.
func Positional(stmt Statement) (string, []any, error) {
	values := make(map[string]any, len(stmt.Params))
	for _, p := range stmt.Params {
		values[p.Name] = p.Value
	}

	ordinals := make(map[string]int)
	var args []any
	var missing string
	out := paramPattern.ReplaceAllStringFunc(stmt.SQL, func(m string) string {
		name := m[1:]
		v, ok := values[name]
		if !ok {
			missing = name
			return m
		}
		n, seen := ordinals[name]
		if !seen {
			args = append(args, v)
			n = len(args)
			ordinals[name] = n
		}
		return "$" + strconv.Itoa(n)
	})
	if missing != "" {
		return "", nil, fmt.Errorf("statement references unbound parameter :%s", missing)
	}
	return out, args, nil
}
