package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/grademind/grademind-api/docs"
	"github.com/grademind/grademind-api/internal/api/handler"
	"github.com/grademind/grademind-api/internal/api/middleware"
	"github.com/grademind/grademind-api/internal/core/domain"
	"github.com/grademind/grademind-api/internal/core/ports"
)

// Deps is everything the router needs; main owns construction.
type Deps struct {
	Log          zerolog.Logger
	AuthService  ports.AuthService
	UserService  ports.UserService
	HealthChecks map[string]handler.Checker

	// Registry receives the HTTP request metrics and backs /metrics. Nil
	// means the process-wide default registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(metricsConfig(d.Registry)))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.AuthService)
	userHandler := handler.NewUserHandler(d.UserService)
	healthHandler := handler.NewHealthHandler(d.HealthChecks)
	requireAuth := middleware.Auth(d.AuthService)

	// --- Auth routes ---
	auth := e.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/token", authHandler.Token)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/me", authHandler.Me, requireAuth)
	auth.GET("/sessions", authHandler.Sessions, requireAuth)

	// --- User routes ---
	users := e.Group("/users", requireAuth)
	users.GET("", userHandler.List, middleware.RequireRole(domain.RoleLecturer))
	users.GET("/me", userHandler.Me)
	users.PATCH("/me", userHandler.UpdateMe)
	users.GET("/:id", userHandler.Get)
	users.PATCH("/:id/status", userHandler.SetStatus)
	users.DELETE("/:id", userHandler.Delete)

	// --- Health probes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)

	// --- Observability and docs ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(handlerConfig(d.Registry)))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func metricsConfig(reg *prometheus.Registry) echoprometheus.MiddlewareConfig {
	cfg := echoprometheus.MiddlewareConfig{
		Namespace: "grademind",
		Subsystem: "http",
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}
	if reg != nil {
		cfg.Registerer = reg
	}
	return cfg
}

func handlerConfig(reg *prometheus.Registry) echoprometheus.HandlerConfig {
	if reg == nil {
		return echoprometheus.HandlerConfig{Gatherer: prometheus.DefaultGatherer}
	}
	return echoprometheus.HandlerConfig{Gatherer: prometheus.Gatherers{reg, prometheus.DefaultGatherer}}
}

// requestLogger emits one zerolog event per request. Only the path is
// logged; the query string can carry a bearer token on /auth/logout.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
