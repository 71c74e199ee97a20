package httpHandler

import (
	"context"
	"net/http"
	"net/url"

	"iot-dashboard/entities"
	"iot-dashboard/exports"
	"iot-dashboard/schemas"
	"iot-dashboard/usecases"

	"github.com/gin-gonic/gin"
)

// MeasureExporter uploads a snapshot of measures.
type MeasureExporter interface {
	Export(ctx context.Context, measures []entities.Measure) (*exports.Result, error)
}

type MeasureHandler struct {
	useCase  *usecases.MeasureUseCase
	exporter MeasureExporter
}

func NewMeasureHandler(useCase *usecases.MeasureUseCase, exporter MeasureExporter) *MeasureHandler {
	return &MeasureHandler{useCase: useCase, exporter: exporter}
}

func normalizeQuery(q url.Values) {
	schemas.NormalizeLegacyQuery(q)
}

// filterParams binds the filter query, accepting legacy parameter names.
func filterParams(c *gin.Context) (usecases.MeasureFilterParams, error) {
	q := c.Request.URL.Query()
	normalizeQuery(q)
	c.Request.URL.RawQuery = q.Encode()

	var params usecases.MeasureFilterParams
	err := c.ShouldBindQuery(&params)
	return params, err
}

// GetAllMeasures handles GET /measures
func (h *MeasureHandler) GetAllMeasures(c *gin.Context) {
	measures, err := h.useCase.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, measures)
}

// FilterMeasures handles GET /measures/filter
func (h *MeasureHandler) FilterMeasures(c *gin.Context) {
	params, err := filterParams(c)
	if err != nil {
		badRequest(c, "invalid filter")
		return
	}
	measures, err := h.useCase.FilterParams(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, measures)
}

// GetMeasure handles GET /measures/:id
func (h *MeasureHandler) GetMeasure(c *gin.Context) {
	measure, err := h.useCase.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, measure)
}

// CreateMeasure handles POST /measures
func (h *MeasureHandler) CreateMeasure(c *gin.Context) {
	raw, ok := body(c)
	if !ok {
		return
	}
	measure, err := h.useCase.CreateJSON(c.Request.Context(), raw)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, measure)
}

// UpdateMeasure handles PUT /measures/:id
func (h *MeasureHandler) UpdateMeasure(c *gin.Context) {
	raw, ok := body(c)
	if !ok {
		return
	}
	measure, err := h.useCase.UpdateJSON(c.Request.Context(), c.Param("id"), raw)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, measure)
}

// DeleteMeasure handles DELETE /measures/:id
func (h *MeasureHandler) DeleteMeasure(c *gin.Context) {
	measure, err := h.useCase.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, measure)
}

// ExportMeasures handles POST /measures/export. It takes the same query as
// the filter route and uploads the matching measures.
func (h *MeasureHandler) ExportMeasures(c *gin.Context) {
	if h.exporter == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "export is not configured"})
		return
	}
	params, err := filterParams(c)
	if err != nil {
		badRequest(c, "invalid filter")
		return
	}
	ctx := c.Request.Context()
	measures, err := h.useCase.FilterParams(ctx, params)
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := h.exporter.Export(ctx, measures)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}
