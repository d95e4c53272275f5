package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skyler-myers-db/data-api-serving/internal/objstore"
)

const defaultBatchSize = 64

// ObjectRecorder appends entries as JSONL batches under
// <prefix>/dt=<date>/<time>-<id>.jsonl. Batches flush when full, on Flush,
// and on Close.
type ObjectRecorder struct {
	store  objstore.Store
	bucket string
	prefix string

	mu  sync.Mutex
	buf []Entry
}

// NewObjectRecorder wraps an object store as an audit sink.
func NewObjectRecorder(store objstore.Store, bucket, prefix string) *ObjectRecorder {
	return &ObjectRecorder{store: store, bucket: bucket, prefix: prefix}
}

// Record buffers one entry, flushing when the batch is full.
func (r *ObjectRecorder) Record(ctx context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf = append(r.buf, e)
	if len(r.buf) < defaultBatchSize {
		return nil
	}
	return r.flushLocked(ctx)
}

// Flush writes any buffered entries.
func (r *ObjectRecorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushLocked(ctx)
}

// Close flushes the remaining buffer.
func (r *ObjectRecorder) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.Flush(ctx)
}

func (r *ObjectRecorder) flushLocked(ctx context.Context) error {
	if len(r.buf) == 0 {
		return nil
	}

	var body bytes.Buffer
	for _, e := range r.buf {
		line, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal audit entry: %w", err)
		}
		body.Write(line)
		body.WriteByte('\n')
	}

	at := r.buf[0].At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	key := fmt.Sprintf("%s/dt=%s/%s-%s.jsonl", r.prefix, at.Format("2006-01-02"), at.Format("150405"), id)

	if err := r.store.PutObject(ctx, r.bucket, key, body.Bytes()); err != nil {
		return fmt.Errorf("write audit batch: %w", err)
	}
	r.buf = r.buf[:0]
	return nil
}
