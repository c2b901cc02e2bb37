// Package api provides HTTP API routing and middleware setup.
package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/nextier/signal-engine/internal/api/handlers"
	"github.com/nextier/signal-engine/internal/domain"
	"github.com/nextier/signal-engine/internal/riskengine"
)

// APIServer wraps the Gin router and handlers.
type APIServer struct {
	router    *gin.Engine
	signals   *handlers.SignalsHandler
	simulate  *handlers.SimulateHandler
	stats     *handlers.StatsHandler
	logger    *slog.Logger
}

// NewAPIServer creates a new API server with routing. Wiring stays minimal
// (no auth, no rate limiting) per spec.md's explicit scope exclusion — the
// core is content, not a production gateway.
func NewAPIServer(
	articles domain.ArticleRepository,
	signalsRepo domain.RiskSignalRepository,
	engine *riskengine.Engine,
	logger *slog.Logger,
) *APIServer {
	router := gin.Default()
	router.Use(LoggingMiddleware(logger))
	router.Use(ErrorHandlingMiddleware(logger))
	router.Use(CORSMiddleware())

	server := &APIServer{
		router:   router,
		signals:  handlers.NewSignalsHandler(signalsRepo, logger),
		simulate: handlers.NewSimulateHandler(engine, logger),
		stats:    handlers.NewStatsHandler(articles, signalsRepo, engine, logger),
		logger:   logger,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all API routes.
func (as *APIServer) setupRoutes() {
	as.router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": domain.StatusSuccess, "message": "ok"})
	})

	as.router.POST("/simulate", as.simulate.Run)
	as.router.GET("/signals", as.signals.List)

	stats := as.router.Group("/stats")
	{
		stats.GET("/ingestion-volume", as.stats.IngestionVolume)
		stats.GET("/intelligence-depth", as.stats.IntelligenceDepth)
		stats.GET("/categorization-audit", as.stats.CategorizationAudit)
		// Supplemental, not in spec.md's original endpoint list.
		stats.GET("/risk-overview", as.stats.RiskOverview)
	}

	as.logger.Info("API routes configured")
}

// Router returns the underlying Gin router.
func (as *APIServer) Router() *gin.Engine {
	return as.router
}

// Start starts the API server.
func (as *APIServer) Start(addr string) error {
	as.logger.Info("starting API server", slog.String("address", addr))
	return as.router.Run(addr)
}

// LoggingMiddleware logs HTTP requests and responses.
func LoggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger.Info("API request received",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("remote_addr", c.RemoteIP()),
		)

		c.Next()

		logger.Info("API response sent",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status_code", c.Writer.Status()),
		)
	}
}

// ErrorHandlingMiddleware recovers panics into a JSON error response.
func ErrorHandlingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("API panic recovered",
					slog.String("method", c.Request.Method),
					slog.String("path", c.Request.URL.Path),
					slog.Any("panic", r),
				)
				c.JSON(500, gin.H{
					"status":  domain.StatusError,
					"message": "an unexpected error occurred",
				})
			}
		}()

		c.Next()
	}
}

// CORSMiddleware handles CORS headers.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
