package cursor

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// JSONSafe converts a warehouse value into something json.Marshal encodes
// cleanly. Timestamps become ISO-8601 text (zero offsets rendered as "Z"),
// byte slices become text with invalid UTF-8 dropped, containers convert
// recursively, and unrecognized types are stringified.
func JSONSafe(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case []byte:
		return strings.ToValidUTF8(string(x), "")
	case json.Number:
		return x
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return v
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = JSONSafe(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = JSONSafe(e)
		}
		return out
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}
