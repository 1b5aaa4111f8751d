package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/geobrief/geobrief/internal/agent/telemetry"
)

// OpsHandler exposes operational endpoints (pipeline metrics snapshots).
type OpsHandler struct {
	Telemetry *telemetry.Telemetry
}

// Register mounts ops endpoints under the provided group.
func (h *OpsHandler) Register(g *echo.Group) {
	g.GET("/ops/performance", h.performance)
}

// performance returns the in-memory pipeline metrics snapshot.
func (h *OpsHandler) performance(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Telemetry.GetMetrics())
}
