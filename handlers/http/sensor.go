package httpHandler

import (
	"net/http"

	"iot-dashboard/entities"
	"iot-dashboard/usecases"

	"github.com/gin-gonic/gin"
)

type SensorHandler struct {
	useCase *usecases.SensorUseCase
}

func NewSensorHandler(useCase *usecases.SensorUseCase) *SensorHandler {
	return &SensorHandler{useCase: useCase}
}

// GetAllSensors handles GET /sensors, optionally narrowed with ?userId=
func (h *SensorHandler) GetAllSensors(c *gin.Context) {
	ctx := c.Request.Context()
	query := c.Request.URL.Query()
	normalizeQuery(query)

	var (
		sensors []entities.Sensor
		err     error
	)
	if owner := query.Get("userId"); owner != "" {
		sensors, err = h.useCase.ListByUser(ctx, owner)
	} else {
		sensors, err = h.useCase.List(ctx)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sensors)
}

// GetSensor handles GET /sensors/:id
func (h *SensorHandler) GetSensor(c *gin.Context) {
	sensor, err := h.useCase.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sensor)
}

// CreateSensor handles POST /sensors
func (h *SensorHandler) CreateSensor(c *gin.Context) {
	raw, ok := body(c)
	if !ok {
		return
	}
	sensor, err := h.useCase.CreateJSON(c.Request.Context(), raw)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sensor)
}

// UpdateSensor handles PUT /sensors/:id
func (h *SensorHandler) UpdateSensor(c *gin.Context) {
	raw, ok := body(c)
	if !ok {
		return
	}
	sensor, err := h.useCase.UpdateJSON(c.Request.Context(), c.Param("id"), raw)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sensor)
}

// DeleteSensor handles DELETE /sensors/:id
func (h *SensorHandler) DeleteSensor(c *gin.Context) {
	sensor, err := h.useCase.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sensor)
}
