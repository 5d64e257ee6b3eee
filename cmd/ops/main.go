package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/velstore/stockpulse/internal/cache"
	"github.com/velstore/stockpulse/internal/config"
	"github.com/velstore/stockpulse/internal/pipeline"
	"github.com/velstore/stockpulse/internal/repository/postgres"
	"github.com/velstore/stockpulse/internal/service"
	"github.com/velstore/stockpulse/internal/storage"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize Database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	pipeCfg := pipeline.Config{
		WorkerCount: cfg.Metrics.WorkerCount,
		ProbeBucket: time.Duration(cfg.Metrics.ProbeBucketSeconds) * time.Second,
		Export:      cfg.Storage.Endpoint != "",
	}

	var artifacts storage.ObjectStorage
	if pipeCfg.Export {
		client, err := storage.NewMinioClient(context.Background(), cfg.Storage)
		if err != nil {
			log.Printf("warning: artifact storage unavailable, export disabled: %v", err)
		} else {
			artifacts = client
		}
	}

	// Initialize the run pipeline
	runs := pipeline.NewRepository(db.DB.DB)
	runner := pipeline.NewRunner(
		pipeCfg,
		postgres.NewSnapshotRepository(db),
		postgres.NewMetricsRepository(db),
		runs,
		artifacts,
	)

	metricsCache, err := cache.NewMetricsCache(cfg.Cache)
	if err != nil {
		log.Printf("warning: cache unavailable: %v", err)
		metricsCache = cache.NewNoopMetricsCache()
	}

	runService := service.NewRunService(cfg.Metrics, runner, runs, metricsCache)

	// Create router and register routes
	r := mux.NewRouter()
	handler := newOpsHandler(runService)
	handler.RegisterRoutes(r)

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.OpsPort)
	log.Printf("Ops server starting on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}
