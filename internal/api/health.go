package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Database states reported by the health endpoint.
const (
	dbStateOK          = "ok"
	dbStateDisabled    = "disabled"
	dbStateUnavailable = "unavailable"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	BuildDate     string  `json:"build_date"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Database      string  `json:"database"`
	Sessions      int64   `json:"sessions"`
}

// HealthCheck reports liveness and storage state. A failing database turns
// the status to "degraded" with 503.
func (c *Controller) HealthCheck(ctx echo.Context) error {
	resp := HealthResponse{
		Status:        "healthy",
		Version:       c.build.GetVersion(),
		BuildDate:     c.build.GetBuildDate(),
		UptimeSeconds: time.Since(c.startTime).Seconds(),
		Database:      dbStateDisabled,
	}
	if c.DS == nil {
		return ctx.JSON(http.StatusOK, resp)
	}

	count, err := c.DS.CountSessions(ctx.Request().Context())
	if err != nil {
		c.logger.Warn("health check: database unavailable")
		resp.Status = "degraded"
		resp.Database = dbStateUnavailable
		return ctx.JSON(http.StatusServiceUnavailable, resp)
	}
	resp.Database = dbStateOK
	resp.Sessions = count
	return ctx.JSON(http.StatusOK, resp)
}
