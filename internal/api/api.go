// Package api serves stored analysis sessions over a read-only JSON API.
package api

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"

	"github.com/swimform/swimform-go/internal/buildinfo"
	"github.com/swimform/swimform-go/internal/conf"
	"github.com/swimform/swimform-go/internal/datastore"
	"github.com/swimform/swimform-go/internal/errors"
	"github.com/swimform/swimform-go/internal/logger"
	"github.com/swimform/swimform-go/internal/observability/metrics"
)

const (
	// DefaultCacheTTL applies when the settings carry no cache TTL.
	DefaultCacheTTL = 5 * time.Minute

	// RequestTimeout bounds each request.
	RequestTimeout = 30 * time.Second
)

// Controller manages the API routes and handlers
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	DS       datastore.Interface // nil when persistence is disabled
	Settings *conf.Settings

	sessionCache *cache.Cache
	metrics      *metrics.HTTPMetrics
	build        buildinfo.BuildInfo
	logger       logger.Logger
	startTime    time.Time
}

// Option is a functional option for configuring the Controller.
type Option func(*Controller)

// WithMetrics records request and cache metrics.
func WithMetrics(m *metrics.HTTPMetrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithBuildInfo sets the version reported by the health endpoint.
func WithBuildInfo(b buildinfo.BuildInfo) Option {
	return func(c *Controller) { c.build = b }
}

// New creates a Controller and registers its routes under /api/v1.
func New(e *echo.Echo, ds datastore.Interface, settings *conf.Settings, opts ...Option) *Controller {
	ttl := DefaultCacheTTL
	if settings != nil && settings.API.CacheTTL > 0 {
		ttl = settings.API.CacheTTL
	}
	c := &Controller{
		Echo:         e,
		DS:           ds,
		Settings:     settings,
		sessionCache: cache.New(ttl, 2*ttl),
		build:        &buildinfo.Context{},
		logger:       GetLogger(),
		startTime:    time.Now(),
	}
	for _, opt := range opts {
		opt(c)
	}

	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(c.requestLogger())

	c.Group = e.Group("/api/v1")
	c.initRoutes()
	return c
}

func (c *Controller) initRoutes() {
	c.Group.GET("/health", c.HealthCheck)
	c.Group.GET("/sessions", c.ListSessions)
	c.Group.GET("/sessions/:id", c.GetSession)
	c.Group.GET("/sessions/:id/frames", c.GetFrames)
	c.Group.GET("/sessions/:id/frames/best", c.GetBestFrame)
	c.Group.GET("/sessions/:id/frames/worst", c.GetWorstFrame)
}

// requestLogger logs each request and records it in the HTTP metrics.
func (c *Controller) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogRoutePath: true,
		LogStatus:    true,
		LogLatency:   true,
		LogError:     true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			route := v.RoutePath
			if route == "" {
				route = v.URIPath
			}
			if c.metrics != nil {
				c.metrics.RecordHTTPRequest(v.Method, route, v.Status, v.Latency.Seconds())
				if v.Status >= http.StatusBadRequest {
					c.metrics.RecordHTTPRequestError(v.Method, route, errorType(v.Status))
				}
			}
			c.logger.Debug("request",
				logger.String("method", v.Method),
				logger.String("path", v.URIPath),
				logger.Int("status", v.Status),
				logger.Duration("latency", v.Latency))
			return nil
		},
	})
}

// errorType labels a failed request for metrics.
func errorType(status int) string {
	switch {
	case status == http.StatusNotFound:
		return "not_found"
	case status == http.StatusBadRequest:
		return "validation"
	case status == http.StatusServiceUnavailable:
		return "unavailable"
	case status >= http.StatusInternalServerError:
		return "internal"
	default:
		return "client"
	}
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// NewErrorResponse creates a new API error response
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}
	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: generateCorrelationID(),
	}
}

// generateCorrelationID returns 8 hex characters for matching logs to replies.
func generateCorrelationID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(b)
}

// HandleError logs err and writes an ErrorResponse.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	resp := NewErrorResponse(err, message, code)
	c.logger.Warn("API error",
		logger.String("correlation_id", resp.CorrelationID),
		logger.String("message", message),
		logger.String("path", ctx.Request().URL.Path),
		logger.String("ip", ctx.RealIP()),
		logger.Int("code", code),
		logger.Error(err))
	return ctx.JSON(code, resp)
}

// handleStoreError maps datastore errors onto status codes.
func (c *Controller) handleStoreError(ctx echo.Context, err error, message string) error {
	switch {
	case errors.IsNotFound(err):
		return c.HandleError(ctx, err, message, http.StatusNotFound)
	case errors.IsCategory(err, errors.CategoryValidation):
		return c.HandleError(ctx, err, message, http.StatusBadRequest)
	default:
		return c.HandleError(ctx, err, message, http.StatusInternalServerError)
	}
}
