package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/comanda/account-service/docs"
	"github.com/comanda/account-service/internal/api/handler"
	"github.com/comanda/account-service/internal/api/middleware"
	"github.com/comanda/account-service/internal/core/domain"
	"github.com/comanda/account-service/internal/core/ports"
	"github.com/comanda/account-service/internal/core/service"
	mongorepo "github.com/comanda/account-service/internal/infrastructure/db/mongo"
	redisstore "github.com/comanda/account-service/internal/infrastructure/db/redis"
	"github.com/comanda/account-service/internal/infrastructure/http/handlers"
	"github.com/comanda/account-service/internal/pkg/config"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "comanda",
		Registerer: prometheus.DefaultRegisterer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Dependencies ---
	userRepo := mongorepo.NewUserRepository(db)
	store := service.NewCredentialStore(userRepo, cfg.BcryptCost, log.With().Str("component", "credential_store").Logger())
	sessions := service.NewSessionManager(redisstore.NewSessionStore(rdb), cfg.Session.Secret, cfg.Session.TTL)
	authService := service.NewAuthService(store, sessions, log.With().Str("component", "auth").Logger())

	registerRoutes(e, authService, handler.CookieSettings{
		Name:   cfg.Session.CookieName,
		Secure: cfg.IsProduction(),
	})

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(map[string]handlers.Check{
		"mongodb": handlers.MongoCheck(db),
		"redis":   handlers.RedisCheck(rdb),
	})

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// registerRoutes mounts the auth and account-management routes.
func registerRoutes(e *echo.Echo, authService ports.AuthService, cookie handler.CookieSettings) {
	authHandler := handler.NewAuthHandler(authService, cookie)
	userHandler := handler.NewUserHandler(authService)
	session := middleware.Session(authService, cookie.Name)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout)
	e.GET("/auth/me", authHandler.Me, session)

	// --- Customer lookup for order taking ---
	e.GET("/customers", userHandler.ActiveCustomers, session, middleware.RBAC(domain.RoleAttendant, domain.RoleCashier))

	// --- Account management (cashier only) ---
	users := e.Group("/users", session, middleware.RBAC(domain.RoleCashier))
	users.GET("", userHandler.List)
	users.POST("", userHandler.Create)
	users.PATCH("/:id", userHandler.Update)
	users.POST("/:id/deactivate", userHandler.Deactivate)
	users.POST("/:id/activate", userHandler.Activate)
	users.DELETE("/:id", userHandler.Remove)
}

// requestLogger writes one zerolog entry per request.
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
			event := log.Info()
			if v.Error != nil {
				event = log.Warn().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
