// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version string
	model   ModelService
}

// NewHealthHandler creates a new health handler. model may be nil.
func NewHealthHandler(version string, model ModelService) HealthHandler {
	return &HealthHandlerImpl{
		version: version,
		model:   model,
	}
}

// HandleHealth returns server health status along with the size of the
// loaded model.
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	resp := map[string]interface{}{
		"status":  "ok",
		"version": h.version,
	}
	if h.model != nil {
		views := h.model.ViewList()
		resp["model"] = map[string]int{
			"topologies": len(views.Topologies),
			"instances":  len(views.Instances),
			"components": len(views.Components),
			"porttypes":  len(views.PortTypes),
		}
	}
	return c.JSON(http.StatusOK, resp)
}
