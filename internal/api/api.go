// internal/api/api.go
package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/velstore/stockpulse/internal/api/handlers"
	"github.com/velstore/stockpulse/internal/api/middleware"
	"github.com/velstore/stockpulse/internal/service"
)

type Services struct {
	MetricsService *service.MetricsService
	RunService     *service.RunService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.MetricsService != nil {
			metricsHandler := handlers.NewMetricsHandler(services.MetricsService)
			metricsGroup := apiGroup.Group("/metrics")
			{
				metricsGroup.GET("/availability", metricsHandler.GetAvailability)
				metricsGroup.GET("/gaps", metricsHandler.GetGaps)
				metricsGroup.GET("/corrections", metricsHandler.GetCorrections)
				metricsGroup.GET("/directives", metricsHandler.GetDirectives)
				metricsGroup.GET("/overview", metricsHandler.GetOverview)
			}
		}

		if services.RunService != nil {
			runHandler := handlers.NewRunHandler(services.RunService)
			runsGroup := apiGroup.Group("/runs")
			{
				runsGroup.GET("", runHandler.List)
				runsGroup.GET("/:id", runHandler.Get)
			}
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
