package server

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/jobson-okosun/InkMind-API/docs"
	httpHandlers "github.com/jobson-okosun/InkMind-API/internal/adapters/http"
	"github.com/jobson-okosun/InkMind-API/internal/domain/query"
	"github.com/jobson-okosun/InkMind-API/internal/infrastructure/config"
	"github.com/jobson-okosun/InkMind-API/internal/infrastructure/logger"
	"github.com/jobson-okosun/InkMind-API/internal/infrastructure/metrics"
	"github.com/jobson-okosun/InkMind-API/internal/ports"
)

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// Dependencies are the collaborators the HTTP server routes to
type Dependencies struct {
	Notes   ports.NoteService
	Metrics *metrics.Metrics
	// Checks are reported by /health/detailed and gate /ready
	Checks map[string]HealthCheck
	// Translator defaults to the note list translator
	Translator *query.Translator
	// PoolStats, when set, is included in /health/detailed
	PoolStats func() map[string]interface{}
}

// Server represents the HTTP server
type Server struct {
	echo      *echo.Echo
	config    *config.Config
	logger    *logger.Logger
	metrics   *metrics.Metrics
	checks    map[string]HealthCheck
	poolStats func() map[string]interface{}
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// NewValidator reports field errors under their JSON names
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// New creates a new server instance
func New(cfg *config.Config, deps Dependencies, appLogger *logger.Logger) *Server {
	e := echo.New()
	e.Validator = NewValidator()
	e.HideBanner = true
	e.HidePort = true

	log := appLogger.WithComponent("http")
	e.HTTPErrorHandler = errorHandler(log, cfg.App.IsProduction())

	translator := deps.Translator
	if translator == nil {
		translator = query.NewNoteTranslator()
	}

	s := &Server{
		echo:      e,
		config:    cfg,
		logger:    log,
		metrics:   deps.Metrics,
		checks:    deps.Checks,
		poolStats: deps.PoolStats,
	}

	s.setupMiddleware()
	s.setupRoutes(httpHandlers.NewNoteHandler(deps.Notes, translator, appLogger))

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())

	if s.config.Metrics.Enabled && s.metrics != nil {
		s.echo.Use(s.metricsMiddleware())
	}

	s.echo.Use(s.requestLogger())

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
	}))

	if s.config.Security.RateLimitRequests > 0 {
		s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(float64(s.config.Security.RateLimitRequests) / rateWindowSeconds(s.config.Security.RateLimitWindow)),
				Burst:     s.config.Security.RateLimitRequests,
				ExpiresIn: s.config.Security.RateLimitWindow,
			}),
			IdentifierExtractor: func(c echo.Context) (string, error) {
				return c.RealIP(), nil
			},
			ErrorHandler: func(c echo.Context, err error) error {
				return echo.NewHTTPError(http.StatusForbidden, "rate limit exceeded")
			},
			DenyHandler: func(c echo.Context, identifier string, err error) error {
				return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests from this IP, please try again later")
			},
		}))
	}

	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         31536000,
	}))

	if s.config.Security.BodyLimit != "" {
		s.echo.Use(middleware.BodyLimit(s.config.Security.BodyLimit))
	}

	if s.config.Server.RequestTimeout > 0 {
		s.echo.Use(middleware.ContextTimeout(s.config.Server.RequestTimeout))
	}
}

func rateWindowSeconds(window time.Duration) float64 {
	if window <= 0 {
		return 1
	}
	return window.Seconds()
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(notes *httpHandlers.NoteHandler) {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	if s.config.Metrics.Enabled && s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	v1 := s.echo.Group("/api/v1")
	notes.Register(v1.Group("/notes"))

	s.echo.RouteNotFound("/*", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound,
			fmt.Sprintf("Can't find %s on this server!", c.Request().URL.RequestURI()))
	})
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) runChecks(ctx context.Context) (map[string]interface{}, bool) {
	healthy := true
	results := make(map[string]interface{}, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			healthy = false
			results[name] = map[string]string{"status": "error", "error": err.Error()}
			continue
		}
		results[name] = map[string]string{"status": "ok"}
	}
	return results, healthy
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	checks, healthy := s.runChecks(c.Request().Context())

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "error"
		code = http.StatusServiceUnavailable
	}

	body := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
		"version": map[string]string{
			"app":     s.config.App.Version,
			"storage": s.config.Storage.Driver,
		},
	}
	if s.poolStats != nil {
		body["database_pool"] = s.poolStats()
	}
	return c.JSON(code, body)
}

func (s *Server) readinessCheck(c echo.Context) error {
	if _, healthy := s.runChecks(c.Request().Context()); !healthy {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.echo.Server.ReadTimeout = s.config.Server.ReadTimeout
	s.echo.Server.WriteTimeout = s.config.Server.WriteTimeout
	s.echo.Server.IdleTimeout = s.config.Server.IdleTimeout

	s.logger.Infow("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	return s.echo.Shutdown(ctx)
}
