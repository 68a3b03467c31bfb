package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/supplytrace/provenance/docs"
	"github.com/supplytrace/provenance/internal/api/handler"
	"github.com/supplytrace/provenance/internal/api/middleware"
	"github.com/supplytrace/provenance/internal/core/domain"
	"github.com/supplytrace/provenance/internal/core/ports"
)

// Deps are the services the HTTP surface is built from.
type Deps struct {
	Provenance   ports.ProvenanceService
	Auth         ports.AuthService
	Resolver     handler.CallerResolver
	Health       map[string]handler.Pinger
	JWTSecret    string
	TokenTTL     time.Duration
	SecureCookie bool
	Log          zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddleware("provenance"))

	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Health probes (no auth required) ---
	health := handler.NewHealthHandler(d.Health)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)

	auth := middleware.Auth(d.JWTSecret)

	// --- Accounts ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Resolver, d.TokenTTL, d.SecureCookie)
	users := e.Group("/api/users")
	users.POST("/register", authHandler.Register)
	users.POST("/login", authHandler.Login)
	users.POST("/add-seller", authHandler.AddSeller, auth, middleware.RBAC(domain.RoleManufacturer.String()))

	// --- Products ---
	products := handler.NewProductHandler(d.Provenance, d.Resolver)
	g := e.Group("/api/products")
	g.POST("/register", products.Register, auth)
	g.POST("/transfer", products.Transfer, auth)
	g.POST("/verify/:productId", products.Verify)
	g.GET("/artifact/:productId", products.Artifact)
	g.GET("/history/:productId", products.History, auth)

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
