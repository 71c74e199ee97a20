package httpHandler

import (
	"net/http"

	"iot-dashboard/usecases"

	"github.com/gin-gonic/gin"
)

// ViewHandler serves the joined dashboard views.
type ViewHandler struct {
	useCase *usecases.ViewUseCase
}

func NewViewHandler(useCase *usecases.ViewUseCase) *ViewHandler {
	return &ViewHandler{useCase: useCase}
}

// SensorLocations handles GET /sensors/locations
func (h *ViewHandler) SensorLocations(c *gin.Context) {
	rows, err := h.useCase.SensorLocations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// UserSensors handles GET /users/:id/sensors
func (h *ViewHandler) UserSensors(c *gin.Context) {
	view, err := h.useCase.UserWithSensors(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SensorMeasures handles GET /sensors/:id/measures
func (h *ViewHandler) SensorMeasures(c *gin.Context) {
	view, err := h.useCase.SensorWithMeasures(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SensorStats handles GET /sensors/:id/stats
func (h *ViewHandler) SensorStats(c *gin.Context) {
	st, err := h.useCase.SensorStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// Dashboard handles GET /dashboard/stats
func (h *ViewHandler) Dashboard(c *gin.Context) {
	d, err := h.useCase.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// Markers handles GET /dashboard/markers
func (h *ViewHandler) Markers(c *gin.Context) {
	markers, err := h.useCase.Markers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, markers)
}
