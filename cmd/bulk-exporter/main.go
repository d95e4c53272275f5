// Package main exports a filtered customer query to object storage.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/skyler-myers-db/data-api-serving/internal/audit"
	"github.com/skyler-myers-db/data-api-serving/internal/config"
	"github.com/skyler-myers-db/data-api-serving/internal/export"
	"github.com/skyler-myers-db/data-api-serving/internal/objstore"
	"github.com/skyler-myers-db/data-api-serving/internal/serving"
	"github.com/skyler-myers-db/data-api-serving/internal/warehouse"
)

func main() {
	selectCSV := flag.String("select", "", "comma-separated columns (default projection when empty)")
	filtersJSON := flag.String("filters", "", "filters as a JSON object")
	format := flag.String("format", "", "part format: parquet or jsonl (overrides EXPORT_FORMAT)")
	flag.Parse()

	ctx := context.Background()
	cfg := config.Load()
	if *format != "" {
		cfg.ExportFormat = *format
	}

	executor, err := warehouse.Open(ctx, cfg.WarehouseBackend, cfg)
	if err != nil {
		log.Fatalf("failed to open warehouse backend: %v", err)
	}
	defer executor.Close()

	store, err := objstore.FromConfig(cfg)
	if err != nil {
		log.Fatalf("failed to open object store: %v", err)
	}

	recorder, err := audit.FromConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize audit sink: %v", err)
	}
	defer recorder.Close()

	exporter := export.New(cfg, serving.New(cfg, executor, recorder), store)
	res, err := exporter.Run(ctx, *selectCSV, *filtersJSON)
	if err != nil {
		log.Fatalf("export failed: %v", err)
	}

	log.Printf("export run %s: %d rows in %d parts (%d bytes) under %s",
		res.RunID, res.Rows, res.Pages, res.Bytes, cfg.ExportBucket)
	for _, key := range res.Objects {
		log.Printf("  %s", key)
	}
}
