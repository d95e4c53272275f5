// Package page assembles warehouse rows into API response pages.
package page

import (
	"fmt"

	"github.com/skyler-myers-db/data-api-serving/internal/catalog"
	"github.com/skyler-myers-db/data-api-serving/internal/cursor"
	"github.com/skyler-myers-db/data-api-serving/internal/warehouse"
)

// Page is the response payload for one page of results. Items is never nil,
// so an empty page serializes as [] rather than null.
type Page struct {
	Count      int              `json:"count"`
	Items      []map[string]any `json:"items"`
	NextCursor *string          `json:"next_cursor"`
	HasMore    bool             `json:"has_more"`
}

// Assemble shapes one materialized result set into a page. The result is
// expected to hold up to pageSize+1 rows; the extra lookahead row only
// signals that another page exists and is never returned. The next cursor
// carries the keyset values of the last delivered row.
func Assemble(rs *warehouse.ResultSet, cat *catalog.Catalog, publicCols, internalCols []string, pageSize int) (Page, error) {
	cols := rs.Columns
	if len(cols) == 0 {
		cols = internalCols
	}

	items := make([]map[string]any, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		item := make(map[string]any, len(cols))
		for i, col := range cols {
			item[col] = row[i]
		}
		items = append(items, item)
	}

	keysetCols := cat.KeysetColumns()
	hasMore := len(items) > pageSize

	var nextCursor *string
	if hasMore {
		// Resume point is the last row we return, not the lookahead.
		last := items[pageSize-1]
		after := make([]any, len(keysetCols))
		for i, name := range keysetCols {
			after[i] = last[name]
		}
		token, err := cursor.Encode(after)
		if err != nil {
			return Page{}, fmt.Errorf("assemble page: %w", err)
		}
		nextCursor = &token
		items = items[:pageSize]
	}

	// Keyset columns fetched only for cursor bookkeeping stay internal.
	for _, name := range keysetCols {
		if contains(publicCols, name) {
			continue
		}
		for _, item := range items {
			delete(item, name)
		}
	}

	for _, item := range items {
		for k, v := range item {
			item[k] = cursor.JSONSafe(v)
		}
	}

	return Page{
		Count:      len(items),
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
