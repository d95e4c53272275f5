// Package export walks a filtered customer query to exhaustion and writes
// each page as a part object, Hive-style partitioned by load date and run.
package export

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	writerfile "github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/skyler-myers-db/data-api-serving/internal/catalog"
	"github.com/skyler-myers-db/data-api-serving/internal/config"
	"github.com/skyler-myers-db/data-api-serving/internal/objstore"
	"github.com/skyler-myers-db/data-api-serving/internal/request"
	"github.com/skyler-myers-db/data-api-serving/internal/serving"
)

// Result captures one export run.
type Result struct {
	RunID   string
	Format  string
	Objects []string
	Rows    int64
	Pages   int
	Bytes   int64
}

// Exporter drains a query through the serving service and stages the pages
// as objects.
type Exporter struct {
	cfg   *config.Config
	svc   *serving.Service
	store objstore.Store
}

func New(cfg *config.Config, svc *serving.Service, store objstore.Store) *Exporter {
	return &Exporter{cfg: cfg, svc: svc, store: store}
}

// Run exports every row matching the filters, chaining cursors until the
// final page. Formats: "parquet" (default) or "jsonl" (gzipped lines).
func (e *Exporter) Run(ctx context.Context, selectCSV, filtersJSON string) (*Result, error) {
	format := e.cfg.ExportFormat
	if format == "" {
		format = "parquet"
	}
	if format != "parquet" && format != "jsonl" {
		return nil, fmt.Errorf("unsupported export format %q", format)
	}

	if err := e.store.EnsureBucket(ctx, e.cfg.ExportBucket); err != nil {
		return nil, err
	}

	record := map[string]any{
		"select_csv":   selectCSV,
		"filters_json": filtersJSON,
		"limit":        e.cfg.ExportPageSize,
	}
	cols := request.Normalize(record, e.svc.Catalog(), e.cfg.MaxPageSize).Select

	res := &Result{
		RunID:  strings.ReplaceAll(uuid.New().String(), "-", ""),
		Format: format,
	}
	loadDate := time.Now().UTC().Format("2006-01-02")

	cursor := ""
	for seq := 0; ; seq++ {
		if cursor != "" {
			record["cursor"] = cursor
		}
		p, err := e.svc.Query(ctx, record)
		if err != nil {
			return nil, fmt.Errorf("export page %d: %w", seq, err)
		}

		if p.Count > 0 {
			var buf bytes.Buffer
			if format == "parquet" {
				err = writeParquet(&buf, e.svc.Catalog(), cols, p.Items)
			} else {
				err = writeJSONL(&buf, p.Items)
			}
			if err != nil {
				return nil, fmt.Errorf("encode part %d: %w", seq, err)
			}

			key := joinPath(
				e.cfg.ExportPrefix,
				e.cfg.DataTable,
				fmt.Sprintf("dt=%s", loadDate),
				fmt.Sprintf("run=%s", res.RunID),
				fmt.Sprintf("part-%06d.%s", seq, extension(format)),
			)
			if err := e.store.PutObject(ctx, e.cfg.ExportBucket, key, buf.Bytes()); err != nil {
				return nil, err
			}
			res.Objects = append(res.Objects, key)
			res.Rows += int64(p.Count)
			res.Pages++
			res.Bytes += int64(buf.Len())
		}

		if !p.HasMore || p.NextCursor == nil {
			return res, nil
		}
		cursor = *p.NextCursor
	}
}

func extension(format string) string {
	if format == "jsonl" {
		return "jsonl.gz"
	}
	return "parquet"
}

func writeJSONL(buf *bytes.Buffer, items []map[string]any) error {
	gz := gzip.NewWriter(buf)
	enc := json.NewEncoder(gz)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			_ = gz.Close()
			return err
		}
	}
	return gz.Close()
}

func writeParquet(buf *bytes.Buffer, cat *catalog.Catalog, cols []string, items []map[string]any) error {
	pfw := writerfile.NewWriterFile(buf)
	pw, err := writer.NewJSONWriter(parquetSchema(cat, cols), pfw, 4)
	if err != nil {
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, item := range items {
		row := make(map[string]any, len(cols))
		for _, name := range cols {
			row[name] = item[name]
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			_ = pfw.Close()
			return err
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = pfw.Close()
		return err
	}
	return pfw.Close()
}

// parquetSchema derives the part schema from the catalog's scalar types.
// Timestamps travel as ISO-8601 text after the JSON-safe conversion, so they
// land as byte arrays alongside the other string columns.
func parquetSchema(cat *catalog.Catalog, cols []string) string {
	fields := make([]map[string]string, 0, len(cols))
	for _, name := range cols {
		col, ok := cat.Lookup(name)
		if !ok {
			continue
		}
		fields = append(fields, map[string]string{
			"Tag": fmt.Sprintf("name=%s, type=%s, repetitiontype=OPTIONAL", name, parquetPhysicalType(col.Type)),
		})
	}
	out := map[string]any{
		"Tag":    "name=parquet_go_root, repetitiontype=REQUIRED",
		"Fields": fields,
	}
	b, _ := json.Marshal(out)
	return string(b)
}

func parquetPhysicalType(t catalog.ScalarType) string {
	switch t {
	case catalog.TypeBigint:
		return "INT64"
	case catalog.TypeDouble:
		return "DOUBLE"
	default:
		return "BYTE_ARRAY"
	}
}

func joinPath(parts ...string) string {
	joined := filepath.ToSlash(filepath.Join(parts...))
	return strings.TrimPrefix(joined, "/")
}
