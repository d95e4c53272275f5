package audit

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/skyler-myers-db/data-api-serving/internal/config"
	"github.com/skyler-myers-db/data-api-serving/internal/objstore"
)

func sampleEntry(id string) Entry {
	return Entry{
		RequestID:  id,
		At:         time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Subject:    "service",
		Backend:    "databricks",
		Table:      "demo.data_api_serving.customer_details",
		Select:     []string{"customer_id", "email"},
		FilterKeys: []string{"email", "modified_from"},
		Limit:      50,
		HasCursor:  true,
		RowCount:   50,
		HasMore:    true,
		DurationMS: 12,
	}
}

func TestEntryRedaction(t *testing.T) {
	raw, err := json.Marshal(sampleEntry("req-1"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// Keys only; a filter value in an audit record would be a leak.
	if strings.Contains(string(raw), "a@example.com") {
		t.Errorf("entry leaked a filter value: %s", raw)
	}
	if !strings.Contains(string(raw), `"filter_keys":["email","modified_from"]`) {
		t.Errorf("entry = %s", raw)
	}
}

func TestObjectRecorderFlush(t *testing.T) {
	store := objstore.NewLocalStore(t.TempDir())
	rec := NewObjectRecorder(store, "serving-audit", "audit")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := rec.Record(ctx, sampleEntry("req-1")); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if err := rec.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	keys, err := store.ListPrefix(ctx, "serving-audit", "audit/dt=2025-01-02/")
	if err != nil {
		t.Fatalf("ListPrefix: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("keys = %v", keys)
	}

	data, err := store.GetObject(ctx, "serving-audit", keys[0])
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lines := 0
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("line %d: %v", lines, err)
		}
		if e.RequestID != "req-1" || e.Backend != "databricks" {
			t.Errorf("entry = %+v", e)
		}
		lines++
	}
	if lines != 3 {
		t.Errorf("lines = %d, want 3", lines)
	}
}

func TestObjectRecorderBatchLimit(t *testing.T) {
	store := objstore.NewLocalStore(t.TempDir())
	rec := NewObjectRecorder(store, "serving-audit", "audit")
	ctx := context.Background()

	// One over the batch size forces an automatic flush.
	for i := 0; i < defaultBatchSize; i++ {
		if err := rec.Record(ctx, sampleEntry("req-batch")); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	keys, err := store.ListPrefix(ctx, "serving-audit", "audit/")
	if err != nil {
		t.Fatalf("ListPrefix: %v", err)
	}
	if len(keys) != 1 {
		t.Errorf("expected one flushed batch, got %v", keys)
	}
}

func TestObjectRecorderCloseFlushes(t *testing.T) {
	store := objstore.NewLocalStore(t.TempDir())
	rec := NewObjectRecorder(store, "serving-audit", "audit")

	if err := rec.Record(context.Background(), sampleEntry("req-close")); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	keys, err := store.ListPrefix(context.Background(), "serving-audit", "audit/")
	if err != nil || len(keys) != 1 {
		t.Errorf("keys = %v, err = %v", keys, err)
	}
}

func TestFromConfigSinks(t *testing.T) {
	rec, err := FromConfig(context.Background(), &config.Config{AuditSink: "none"})
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if _, ok := rec.(Nop); !ok {
		t.Errorf("recorder = %T, want Nop", rec)
	}

	rec, err = FromConfig(context.Background(), &config.Config{
		AuditSink:      "object",
		AuditBucket:    "serving-audit",
		AuditPrefix:    "audit",
		LocalStorePath: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("FromConfig object: %v", err)
	}
	if _, ok := rec.(*ObjectRecorder); !ok {
		t.Errorf("recorder = %T, want *ObjectRecorder", rec)
	}

	if _, err := FromConfig(context.Background(), &config.Config{AuditSink: "kafka"}); err == nil {
		t.Error("expected error for unknown sink")
	}
}

func TestPostgresRecorder_Integration(t *testing.T) {
	url := os.Getenv("AUDIT_DATABASE_URL")
	if url == "" {
		t.Skip("AUDIT_DATABASE_URL not set")
	}

	ctx := context.Background()
	rec, err := NewPostgresRecorder(ctx, url, "../../migrations")
	if err != nil {
		t.Fatalf("NewPostgresRecorder: %v", err)
	}
	defer rec.Close()

	if err := rec.Record(ctx, sampleEntry("req-pg")); err != nil {
		t.Fatalf("Record: %v", err)
	}
}
