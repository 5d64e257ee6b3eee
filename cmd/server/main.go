// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/velstore/stockpulse/internal/api"
	"github.com/velstore/stockpulse/internal/cache"
	"github.com/velstore/stockpulse/internal/config"
	"github.com/velstore/stockpulse/internal/pipeline"
	"github.com/velstore/stockpulse/internal/repository/postgres"
	"github.com/velstore/stockpulse/internal/service"
	"github.com/velstore/stockpulse/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	if cfg.Server.Mode == "debug" {
		logger.SetLevel("debug")
		gin.SetMode(gin.DebugMode)
	} else {
		logger.SetLevel("info")
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize caches. The API serves straight from the repositories
	// when redis is disabled or unreachable.
	metricsCache, err := cache.NewMetricsCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("metrics cache unavailable, serving uncached")
		metricsCache = cache.NewNoopMetricsCache()
	}
	overviewCache, err := cache.NewOverviewCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("overview cache unavailable, serving uncached")
		overviewCache = cache.NewNoopOverviewCache()
	}

	// Initialize services. The API is read-only: runs are triggered from
	// the ops server or the metrics CLI, so no runner is wired here.
	metricsRepo := postgres.NewMetricsRepository(db)
	runs := pipeline.NewRepository(db.DB.DB)

	services := &api.Services{
		MetricsService: service.NewMetricsService(metricsRepo, metricsCache, overviewCache),
		RunService:     service.NewRunService(cfg.Metrics, nil, runs, metricsCache),
	}

	// Initialize HTTP server
	router := api.NewRouter(services, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
