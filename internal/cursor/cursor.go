// Package cursor implements the opaque pagination token.
//
// A token is unpadded base64url over a JSON envelope {"after": [...]}
// carrying the keyset values of the last row already delivered. Encoding is
// strict; decoding is lenient: any malformed token decodes to nil and the
// caller falls back to the first page.
package cursor

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

type envelope struct {
	After []any `json:"after"`
}

// Encode packs keyset values into an opaque token. Values pass through
// JSONSafe first so timestamps and binary values survive the round trip.
func Encode(values []any) (string, error) {
	safe := make([]any, len(values))
	for i, v := range values {
		safe[i] = JSONSafe(v)
	}
	raw, err := json.Marshal(envelope{After: safe})
	if err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Decode unpacks a token produced by Encode. Padded and unpadded base64url
// are both accepted. Bad base64, bad JSON, or a missing/non-array "after"
// all decode to nil. Integer values come back as int64, other numbers as
// float64.
func Decode(token string) []any {
	if token == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(token, "="))
	if err != nil {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var env envelope
	if err := dec.Decode(&env); err != nil {
		return nil
	}
	if env.After == nil {
		return nil
	}
	return normalizeSlice(env.After)
}

func normalizeSlice(values []any) []any {
	for i, v := range values {
		values[i] = normalize(v)
	}
	return values
}

// normalize resolves json.Number without routing integers through float64.
func normalize(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case []any:
		return normalizeSlice(x)
	case map[string]any:
		for k, mv := range x {
			x[k] = normalize(mv)
		}
		return x
	}
	return v
}
