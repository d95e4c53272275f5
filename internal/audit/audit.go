// Package audit records one entry per serving request.
//
// Entries are observability metadata and deliberately redacted: filter keys
// are recorded, filter values never are. Recording is fire-and-forget; a
// broken sink must never fail a request.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/skyler-myers-db/data-api-serving/internal/config"
	"github.com/skyler-myers-db/data-api-serving/internal/objstore"
)

// Entry describes one served request.
type Entry struct {
	RequestID  string    `json:"request_id"`
	At         time.Time `json:"at"`
	Subject    string    `json:"subject"`
	Backend    string    `json:"backend"`
	Table      string    `json:"table"`
	Select     []string  `json:"select"`
	FilterKeys []string  `json:"filter_keys"`
	Limit      int       `json:"limit"`
	HasCursor  bool      `json:"has_cursor"`
	RowCount   int       `json:"row_count"`
	HasMore    bool      `json:"has_more"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}

// Recorder persists audit entries.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
	Close() error
}

// Nop discards entries.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }
func (Nop) Close() error                        { return nil }

// FromConfig builds the configured recorder. AUDIT_SINK selects "none",
// "postgres", or "object".
func FromConfig(ctx context.Context, cfg *config.Config) (Recorder, error) {
	switch cfg.AuditSink {
	case "", "none":
		return Nop{}, nil
	case "postgres":
		return NewPostgresRecorder(ctx, cfg.AuditDatabaseURL, cfg.AuditMigrationsPath)
	case "object":
		store, err := objstore.FromConfig(cfg)
		if err != nil {
			return nil, err
		}
		return NewObjectRecorder(store, cfg.AuditBucket, cfg.AuditPrefix), nil
	default:
		return nil, fmt.Errorf("unknown audit sink %q", cfg.AuditSink)
	}
}
