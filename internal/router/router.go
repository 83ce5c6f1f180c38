package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"creditocr/internal/handler"
	"creditocr/internal/metrics"
	"creditocr/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	log *slog.Logger,
	m *metrics.Metrics,
	allowedOrigins []string,
	extractionH *handler.ExtractionHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware. Metrics is outermost so it sees the status Recovery writes.
	if m != nil {
		r.Use(middleware.Metrics(m))
	}
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(allowedOrigins))
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	// Health checks
	r.GET("/", healthH.Root)
	r.GET("/healthz", healthH.Liveness)

	r.POST("/ocr", extractionH.Extract)

	v1 := r.Group("/api/v1")
	v1.POST("/ocr", extractionH.Extract)

	return r
}
