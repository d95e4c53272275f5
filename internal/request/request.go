// Package request normalizes raw serving records into typed query requests.
//
// Normalization is best-effort by contract: malformed projections, filters,
// limits, and cursors degrade to safe defaults instead of failing the
// request. The only hard failure boundary in the serving path is warehouse
// execution.
package request

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/skyler-myers-db/data-api-serving/internal/catalog"
)

// DefaultLimit is the page size used when the caller sends none.
const DefaultLimit = 50

// Filters is the typed filter set. Zero values mean "not set"; CustomerID
// uses a pointer so an explicit zero id still filters.
type Filters struct {
	Email        string
	Name         string
	NameContains string // already lowercased
	CustomerID   *int64
	IPAddr       string
	Phone        string
	ModifiedFrom string
	ModifiedTo   string
}

// Empty reports whether no filter is set.
func (f Filters) Empty() bool {
	return f == Filters{}
}

// Keys lists the filter keys that are set, in predicate order. Values are
// deliberately not included; this feeds audit records.
func (f Filters) Keys() []string {
	var keys []string
	if f.Email != "" {
		keys = append(keys, "email")
	}
	if f.Name != "" {
		keys = append(keys, "name")
	}
	if f.NameContains != "" {
		keys = append(keys, "name_contains")
	}
	if f.CustomerID != nil {
		keys = append(keys, "customer_id")
	}
	if f.IPAddr != "" {
		keys = append(keys, "ip_addr")
	}
	if f.Phone != "" {
		keys = append(keys, "phone")
	}
	if f.ModifiedFrom != "" {
		keys = append(keys, "modified_from")
	}
	if f.ModifiedTo != "" {
		keys = append(keys, "modified_to")
	}
	return keys
}

// Normalized is a cleaned request ready for compilation.
type Normalized struct {
	Select  []string // public projection, catalog members only
	Filters Filters
	Limit   int    // page size, clamped to [1, max]
	Cursor  string // opaque token, decoded at compile time
}

// Normalize cleans one serving record. The record is the decoded request
// object carrying select_csv, filters_json, limit, and cursor; sort_json is
// reserved and ignored. Normalize never fails: anything unusable falls back
// to a default.
func Normalize(record map[string]any, cat *catalog.Catalog, maxLimit int) Normalized {
	return Normalized{
		Select:  parseSelect(stringOrEmpty(record["select_csv"]), cat),
		Filters: parseFilters(stringOrEmpty(record["filters_json"])),
		Limit:   clampLimit(parseLimit(record["limit"]), maxLimit),
		Cursor:  stringOrEmpty(record["cursor"]),
	}
}

// parseSelect keeps allowlisted names in caller order, falling back to the
// default projection when nothing usable remains.
func parseSelect(csv string, cat *catalog.Catalog) []string {
	if csv == "" {
		return cat.DefaultSelect()
	}
	var cols []string
	for _, part := range strings.Split(csv, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if cat.Has(name) {
			cols = append(cols, name)
		}
	}
	if len(cols) == 0 {
		return cat.DefaultSelect()
	}
	return cols
}

func parseFilters(filtersJSON string) Filters {
	var f Filters
	if filtersJSON == "" {
		return f
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(filtersJSON)))
	dec.UseNumber()
	var in map[string]any
	if err := dec.Decode(&in); err != nil {
		return Filters{}
	}

	f.Email = stringValue(in["email"])
	f.Name = stringValue(in["name"])
	f.IPAddr = stringValue(in["ip_addr"])
	f.Phone = stringValue(in["phone"])

	if v, ok := in["customer_id"]; ok && v != nil && v != "" {
		if id, ok := toInt64(v); ok {
			f.CustomerID = &id
		}
	}

	if s := stringValue(in["name_contains"]); s != "" {
		f.NameContains = strings.ToLower(s)
	}
	f.ModifiedFrom = stringValue(in["modified_from"])
	f.ModifiedTo = stringValue(in["modified_to"])
	return f
}

// stringValue coerces a JSON filter value to a string, skipping null, empty,
// and false.
func stringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		if !x {
			return ""
		}
		return "true"
	default:
		return fmt.Sprint(v)
	}
}

// toInt64 coerces a JSON value to an integer id. Floats truncate toward
// zero; strings must parse as base-10 integers. Anything else drops the key.
func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, true
		}
		if fl, err := x.Float64(); err == nil {
			return int64(math.Trunc(fl)), true
		}
		return 0, false
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
			return i, true
		}
		return 0, false
	case float64:
		return int64(math.Trunc(x)), true
	case int:
		return int64(x), true
	case int64:
		return x, true
	default:
		return 0, false
	}
}

// parseLimit coerces the caller's limit; zero and anything non-numeric fall
// back to DefaultLimit.
func parseLimit(v any) int {
	n, ok := toInt64(v)
	if !ok || n == 0 {
		return DefaultLimit
	}
	return int(n)
}

func clampLimit(n, maxLimit int) int {
	if n > maxLimit {
		n = maxLimit
	}
	if n < 1 {
		n = 1
	}
	return n
}

func stringOrEmpty(v any) string {
	s, _ := v.(string)
	return s
}
