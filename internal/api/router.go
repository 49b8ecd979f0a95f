package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/mvcmarket/marketplace/docs"
	"github.com/mvcmarket/marketplace/internal/api/handler"
	"github.com/mvcmarket/marketplace/internal/api/middleware"
	"github.com/mvcmarket/marketplace/internal/core/domain"
	"github.com/mvcmarket/marketplace/internal/core/ports"
)

// Deps are the wired services the router exposes.
type Deps struct {
	Sessions     ports.SessionService
	Catalog      ports.CatalogService
	Admin        ports.AdminService
	Users        handler.UserCounter
	Feed         handler.NotificationFeed
	PriceCeiling float64
	// Readiness lists the dependencies probed by /health/ready, by name.
	Readiness map[string]handler.Pinger
	// Registry receives the HTTP metrics. Nil means the default registry.
	Registry *prometheus.Registry
	Log      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "marketplace",
		Registerer: registerer,
	}))

	authHandler := handler.NewAuthHandler(d.Sessions)
	listingHandler := handler.NewListingHandler(d.Catalog)
	adminHandler := handler.NewAdminHandler(d.Admin, d.Catalog, d.Users)
	notificationHandler := handler.NewNotificationHandler(d.Feed)
	referenceHandler := handler.NewReferenceHandler(d.PriceCeiling)
	requireSession := middleware.RequireSession(d.Sessions)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout)
	e.GET("/auth/session", authHandler.Session)

	// --- Catalog routes ---
	v1 := e.Group("/v1")
	v1.GET("/listings", listingHandler.Browse)
	v1.GET("/listings/featured", listingHandler.Featured)
	v1.GET("/listings/:id", listingHandler.Get)
	v1.POST("/listings", listingHandler.Create, requireSession)
	v1.DELETE("/listings/:id", listingHandler.Delete, requireSession)
	v1.GET("/me/listings", listingHandler.Mine, requireSession)
	v1.GET("/notifications", notificationHandler.List)
	v1.DELETE("/notifications/:id", notificationHandler.Dismiss)
	v1.GET("/reference", referenceHandler.Get)

	// --- Admin routes ---
	admin := v1.Group("/admin", requireSession, middleware.RBAC(domain.RoleAdmin))
	admin.GET("/users", adminHandler.Users)
	admin.DELETE("/users/:id", adminHandler.RemoveUser)
	admin.GET("/stats", adminHandler.Stats)
	admin.POST("/refresh", adminHandler.Refresh)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Readiness)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
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
