// Package main is the entry point for the customer data API serving service.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/skyler-myers-db/data-api-serving/internal/audit"
	"github.com/skyler-myers-db/data-api-serving/internal/auth"
	"github.com/skyler-myers-db/data-api-serving/internal/config"
	"github.com/skyler-myers-db/data-api-serving/internal/serving"
	"github.com/skyler-myers-db/data-api-serving/internal/warehouse"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg := config.Load()

	// Open the warehouse backend
	executor, err := warehouse.Open(ctx, cfg.WarehouseBackend, cfg)
	if err != nil {
		log.Fatalf("failed to open warehouse backend: %v", err)
	}
	defer executor.Close()

	if err := executor.Ping(ctx); err != nil {
		log.Printf("warehouse ping failed (continuing): %v", err)
	}

	// Initialize the audit sink
	recorder, err := audit.FromConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize audit sink: %v", err)
	}
	defer recorder.Close()

	svc := serving.New(cfg, executor, recorder)
	handler := serving.NewHandler(svc)

	// Set up HTTP routes
	mux := http.NewServeMux()
	mux.Handle("/invocations", auth.Middleware(cfg)(http.HandlerFunc(handler.HandleInvocations)))
	mux.HandleFunc("/health", handler.HandleHealth)

	// Start HTTP server
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("shutting down...")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			log.Printf("error shutting down server: %v", err)
		}
	}()

	log.Printf("Data API serving %s via %s on :%s", cfg.QualifiedTable(), executor.ID(), cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
