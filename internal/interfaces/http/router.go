package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/RAC-Descriptors/internal/infrastructure/monitoring/logging"
	monitoring "github.com/turtacn/RAC-Descriptors/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/RAC-Descriptors/internal/interfaces/http/handlers"
	"github.com/turtacn/RAC-Descriptors/internal/interfaces/http/middleware"
	apperrors "github.com/turtacn/RAC-Descriptors/pkg/errors"
)

// DefaultMetricsPath is where the Prometheus handler is mounted.
const DefaultMetricsPath = "/metrics"

// RouterConfig aggregates the handlers and middleware settings of the route
// tree.
type RouterConfig struct {
	DescriptorHandler *handlers.DescriptorHandler
	HealthHandler     *handlers.HealthHandler

	// Mode is the gin mode: "debug", "release" or "test".
	Mode        string
	CORS        *middleware.CORSConfig
	Logging     middleware.LoggingConfig
	MaxBodySize int64

	Logger           logging.Logger
	Metrics          *monitoring.RACMetrics
	MetricsCollector monitoring.MetricsCollector
	MetricsPath      string
}

// NewRouter builds the route tree: health checks and metrics at the root, the
// descriptor API under /api/v1.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}

	r := gin.New()
	r.Use(middleware.Recovery(cfg.Logger), middleware.RequestID())
	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	r.Use(middleware.RequestLogging(cfg.Logger, cfg.Metrics, cfg.Logging))
	r.Use(middleware.BodyLimit(cfg.MaxBodySize))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.ErrorResponse{
			Code:    string(apperrors.ErrCodeNotFound),
			Message: "no route for " + c.Request.Method + " " + c.Request.URL.Path,
		})
	})

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsCollector != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = DefaultMetricsPath
		}
		r.GET(path, gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	api := r.Group("/api/v1")
	registerDescriptorRoutes(api, cfg.DescriptorHandler)
	return r
}

func registerDescriptorRoutes(api *gin.RouterGroup, h *handlers.DescriptorHandler) {
	if h == nil {
		return
	}
	api.GET("/properties", h.ListProperties)
	api.GET("/elements/:symbol", h.GetElement)

	d := api.Group("/descriptors")
	d.POST("", h.Compute)
	d.POST("/batch", h.ComputeBatch)
	d.POST("/graph", h.ComputeFromGraphStore)
}
