// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fpp-modeler/backend/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Model     ModelService
	Loads     LoadTracker
	Views     ViewService
	Styles    storage.StyleStore
	Hub       *EventHub
	OutputDir string
	Version   string
}

// Handlers holds all handler instances
type Handlers struct {
	Health HealthHandler
	Model  ModelHandler
	View   ViewHandler
	Hub    *EventHub
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health: NewHealthHandler(deps.Version, deps.Model),
		Model:  NewModelHandler(deps.Model, deps.Loads, deps.OutputDir),
		View:   NewViewHandler(deps.Views, deps.Styles),
		Hub:    deps.Hub,
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// Model load and query
	modelGroup := apiGroup.Group("/model")
	modelGroup.POST("/load", handlers.Model.HandleLoadModel)
	modelGroup.GET("/load/:id", handlers.Model.HandleLoadStatus)
	modelGroup.GET("/views", handlers.Model.HandleViewList)
	modelGroup.GET("/query", handlers.Model.HandleQuery)
	modelGroup.POST("/write", handlers.Model.HandleWriteModel)
	modelGroup.PUT("/attributes", handlers.Model.HandleUpdateAttributes)

	// Model edits
	modelGroup.POST("/porttypes", handlers.Model.HandleAddPortType)
	modelGroup.DELETE("/porttypes/:name", handlers.Model.HandleDeletePortType)
	modelGroup.POST("/components", handlers.Model.HandleAddComponent)
	modelGroup.DELETE("/components/:name", handlers.Model.HandleDeleteComponent)
	modelGroup.POST("/components/:name/ports", handlers.Model.HandleAddPort)
	modelGroup.POST("/instances", handlers.Model.HandleAddInstance)
	modelGroup.DELETE("/instances/:name", handlers.Model.HandleDeleteInstance)
	modelGroup.POST("/topologies", handlers.Model.HandleAddTopology)
	modelGroup.DELETE("/topologies/:name", handlers.Model.HandleDeleteTopology)
	modelGroup.POST("/topologies/:name/instances", handlers.Model.HandleAddInstanceToTopology)
	modelGroup.POST("/topologies/:name/connections", handlers.Model.HandleAddConnection)

	// Analyzers
	apiGroup.POST("/analyzers/:name/run", handlers.Model.HandleRunAnalyzer)

	// Views, styles and layouts
	apiGroup.GET("/views/:name", handlers.View.HandleGetView)
	apiGroup.GET("/views/:name/msgpack", handlers.View.HandleGetViewMsgpack)
	apiGroup.PUT("/views/:name/style", handlers.View.HandleSaveStyle)
	apiGroup.GET("/styles", handlers.View.HandleListStyles)
	apiGroup.GET("/styles/default", handlers.View.HandleGetDefaultStyle)
	apiGroup.GET("/layouts", handlers.View.HandleGetLayouts)
}

// RegisterWebSocketRoutes registers WebSocket routes
func RegisterWebSocketRoutes(e *echo.Echo, handlers *Handlers) {
	if handlers.Hub != nil {
		e.GET("/api/ws", handlers.Hub.HandleWebSocket)
	}
}

// MiddlewareOptions configures SetupMiddleware
type MiddlewareOptions struct {
	Logger         *slog.Logger
	RequestLogging bool
	Timeout        time.Duration
	BodyLimit      string
	EnableCORS     bool
	AllowOrigins   []string
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, opts MiddlewareOptions) {
	// Use custom error handler
	e.HTTPErrorHandler = ErrorHandler

	if opts.RequestLogging && opts.Logger != nil {
		logger := opts.Logger.With("component", "http")
		e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			Skipper: func(c echo.Context) bool {
				path := c.Request().URL.Path
				return path == "/api/health" || path == "/api/ws" || strings.HasPrefix(path, "/api/model/load/")
			},
			LogMethod:   true,
			LogURI:      true,
			LogStatus:   true,
			LogLatency:  true,
			LogError:    true,
			HandleError: true,
			LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
				attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
				if v.Error != nil {
					logger.Warn("request failed", append(attrs, "error", v.Error)...)
				} else {
					logger.Info("request", attrs...)
				}
				return nil
			},
		}))
	}

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	if opts.Timeout > 0 {
		e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Timeout: opts.Timeout,
			Skipper: func(c echo.Context) bool {
				path := c.Request().URL.Path
				// Compiler runs and websockets outlive a normal request.
				return path == "/api/ws" || path == "/api/model/load" || strings.HasPrefix(path, "/api/analyzers/")
			},
			ErrorMessage: "Request timeout",
		}))
	}

	if opts.BodyLimit != "" {
		e.Use(middleware.BodyLimit(opts.BodyLimit))
	}

	if opts.EnableCORS {
		origins := opts.AllowOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}
}
