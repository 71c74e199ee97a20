package handlers

import (
	"net/http"

	"iot-dashboard/logger"
	"iot-dashboard/services"

	"github.com/gin-gonic/gin"
)

type CacheHandler struct {
	processor *services.DataProcessor
}

func NewCacheHandler(processor *services.DataProcessor) *CacheHandler {
	return &CacheHandler{
		processor: processor,
	}
}

// ProcessCache POST /ingest/flush
func (h *CacheHandler) ProcessCache(c *gin.Context) {
	n, err := h.processor.ProcessCachedData(c.Request.Context())
	if err != nil {
		logger.FromContext(c.Request.Context()).WithError(err).Error("flush failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "flush failed", "stored": n})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "processed", "stored": n})
}

// GetAllCachedData GET /ingest/data
func (h *CacheHandler) GetAllCachedData(c *gin.Context) {
	data := h.processor.GetAllCachedData()
	total := 0
	for _, points := range data {
		total += len(points)
	}
	c.JSON(http.StatusOK, gin.H{
		"sensors":  len(data),
		"measures": total,
		"data":     data,
	})
}

// GetCacheStats GET /ingest/stats
func (h *CacheHandler) GetCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.processor.GetCacheStats())
}
