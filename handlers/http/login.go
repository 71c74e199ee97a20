package httpHandler

import (
	"net/http"
	"time"

	"iot-dashboard/auth"
	"iot-dashboard/logger"

	"github.com/gin-gonic/gin"
)

type LoginHandler struct {
	issuer *auth.Issuer
}

func NewLoginHandler(issuer *auth.Issuer) *LoginHandler {
	return &LoginHandler{issuer: issuer}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login handles POST /auth/login
func (h *LoginHandler) Login(c *gin.Context) {
	if h.issuer == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "authentication is disabled"})
		return
	}
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username and password are required")
		return
	}

	token, expires, err := h.issuer.Login(req.Username, req.Password)
	if err != nil {
		logger.FromContext(c.Request.Context()).WithField("username", req.Username).Warn("login rejected")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid username or password"})
		return
	}
	c.JSON(http.StatusOK, LoginResponse{Token: token, ExpiresAt: expires})
}

// requestToken reads the bearer token from the Authorization header or,
// for websocket clients that cannot set headers, the access_token query
// parameter.
func requestToken(c *gin.Context) (string, bool) {
	if token, ok := auth.BearerToken(c.GetHeader("Authorization")); ok {
		return token, true
	}
	token := c.Query("access_token")
	return token, token != ""
}

// RequireToken rejects requests without a valid bearer token. A nil issuer
// lets everything through.
func RequireToken(issuer *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if issuer == nil {
			c.Next()
			return
		}
		token, ok := requestToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "bearer token missing"})
			return
		}
		subject, err := issuer.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
			return
		}
		c.Set("subject", subject)
		c.Next()
	}
}
