package api

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"github.com/unrolled/secure"

	"github.com/chapterzero/bookstore/internal/api/handler"
	"github.com/chapterzero/bookstore/internal/api/middleware"
	"github.com/chapterzero/bookstore/internal/core/domain"
	"github.com/chapterzero/bookstore/internal/core/ports"
)

// Deps carries everything the router wires into handlers and middleware.
type Deps struct {
	Service      ports.IdentityService
	Verifier     ports.TokenVerifier
	Logger       zerolog.Logger
	HealthChecks []handler.HealthCheck

	CORSOrigins []string
	// AuthRateLimitPerMinute caps POST /api/users and /api/token per client
	// IP. Zero disables the limit.
	AuthRateLimitPerMinute int
	Development            bool

	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	if d.Registerer == nil {
		d.Registerer = prometheus.DefaultRegisterer
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: func() string { return ulid.Make().String() },
	}))
	e.Use(requestLogger(d.Logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: d.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
	}))
	e.Use(echo.WrapMiddleware(secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "no-referrer",
		STSSeconds:         31536000,
		IsDevelopment:      d.Development,
	}).Handler))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "bookstore",
		Registerer: d.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Dependencies ---
	identityHandler := handler.NewIdentityHandler(d.Service)
	userHandler := handler.NewUserHandler(d.Service)
	healthHandler := handler.NewHealthHandler(d.HealthChecks...)
	auth := middleware.Auth(d.Verifier)

	var authLimit []echo.MiddlewareFunc
	if d.AuthRateLimitPerMinute > 0 {
		authLimit = append(authLimit, authRateLimiter(d.AuthRateLimitPerMinute))
	}

	// --- Identity routes ---
	apiGroup := e.Group("/api")
	apiGroup.POST("/users", identityHandler.Register, authLimit...)
	apiGroup.POST("/token", identityHandler.Token, authLimit...)

	// --- Account routes (bearer token required) ---
	apiGroup.GET("/users/me", userHandler.Me, auth)
	apiGroup.PATCH("/users/me", userHandler.UpdateMe, auth)
	passwordChain := append(append([]echo.MiddlewareFunc{}, authLimit...), auth)
	apiGroup.PUT("/users/me/password", userHandler.ChangePassword, passwordChain...)
	apiGroup.GET("/users/:id", userHandler.Get, auth, middleware.RBAC(domain.RoleAdmin))

	// --- Health probes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)       // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?

	// --- Operational ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))
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
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			var evt *zerolog.Event
			switch {
			case v.Status >= http.StatusInternalServerError:
				evt = log.Error().Err(v.Error)
			case v.Status >= http.StatusBadRequest:
				evt = log.Warn()
			default:
				evt = log.Info()
			}
			evt.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}

func authRateLimiter(perMinute int) echo.MiddlewareFunc {
	return echo.WrapMiddleware(httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}`))
		}),
	))
}
