package httpHandler

import (
	"errors"
	"net/http"

	"iot-dashboard/logger"
	"iot-dashboard/usecases"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// respondError maps a usecase error onto a status code and writes it.
func respondError(c *gin.Context, err error) {
	var verr *usecases.ValidationError
	switch {
	case errors.Is(err, usecases.ErrNotFound), errors.Is(err, usecases.ErrInvalidID):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "document not found"})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: verr.Error(), Fields: verr.FieldErrors})
	default:
		logger.FromContext(c.Request.Context()).WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

// body reads the raw request payload.
func body(c *gin.Context) ([]byte, bool) {
	raw, err := c.GetRawData()
	if err != nil {
		badRequest(c, "cannot read request body")
		return nil, false
	}
	return raw, true
}
