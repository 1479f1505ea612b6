package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tripvote/internal/services"
	"tripvote/internal/transport/httpdto"
)

// AuthMiddleware rejects requests without a valid bearer token and stores the
// caller's user id in the request context.
func AuthMiddleware(service *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseBearer(c, service)
		if !ok {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(services.WithUserContext(c.Request.Context(), userID))
		c.Next()
	}
}

// OptionalAuthMiddleware stores the user id when a valid token is present and
// lets the request through either way. Vote submission and result reads are
// open to guests; downstream code falls back to the client IP identity.
func OptionalAuthMiddleware(service *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, ok := parseBearer(c, service); ok {
			c.Request = c.Request.WithContext(services.WithUserContext(c.Request.Context(), userID))
		}
		c.Next()
	}
}

func parseBearer(c *gin.Context, service *services.AuthService) (uuid.UUID, bool) {
	token := extractBearer(c)
	if token == "" {
		return uuid.Nil, false
	}
	claims, err := service.ParseAccessToken(token)
	if err != nil {
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}

func extractBearer(c *gin.Context) string {
	value := c.GetHeader("Authorization")
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
