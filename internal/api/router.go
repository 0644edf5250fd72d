package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/99minutos/service-requests/internal/api/handler"
	"github.com/99minutos/service-requests/internal/api/middleware"
	"github.com/99minutos/service-requests/internal/core/domain"
	"github.com/99minutos/service-requests/internal/core/ports"
)

// Deps are the collaborators the HTTP API is built from.
type Deps struct {
	Service ports.RequestService
	// Media is optional; without it photo routes are not registered.
	Media ports.MediaStore
	// Pingers are checked by GET /health/ready, keyed by dependency name.
	Pingers   map[string]handler.Pinger
	JWTSecret string
	Logger    zerolog.Logger
	// Registerer receives the HTTP metrics. Nil means the default registry.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "service_requests",
		Registerer: d.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health" || c.Path() == "/health/ready"
		},
	}))

	// --- Operational routes (no identity required) ---
	health := handler.NewHealthHandler(d.Pingers)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	users := handler.NewUserHandler(d.Service)
	requests := handler.NewRequestHandler(d.Service, d.Media)
	media := handler.NewMediaHandler(d.Media, d.Service)

	v1 := e.Group("/v1", middleware.Identify(d.JWTSecret))

	// Registration is the only call an unknown user may make.
	v1.POST("/users", users.Register)

	known := v1.Group("", middleware.LoadActor(d.Service))
	managerOnly := middleware.RBAC(domain.RoleManager)

	known.GET("/users/:id", users.Get)
	known.PUT("/users/:id/role", users.SetRole, managerOnly)
	known.GET("/workers", users.ListWorkers, managerOnly)

	known.POST("/requests", requests.Create)
	known.GET("/requests", requests.List)
	known.GET("/requests/mine", requests.Mine)
	known.GET("/requests/:id", requests.Get)
	known.GET("/requests/:id/history", requests.History)
	known.POST("/requests/:id/assign", requests.Assign, managerOnly)
	known.POST("/requests/:id/actions/:action", requests.Advance)

	if d.Media != nil {
		known.POST("/media", media.Upload)
		known.GET("/media/*", media.Download)
	}

	return e
}

// requestLogger logs one line per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
