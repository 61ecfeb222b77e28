package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stanleykwembe/brilltech-mega/internal/pkg/jwt"
	"github.com/stanleykwembe/brilltech-mega/internal/pkg/response"
)

const (
	UserIDKey = "userID"
)

// Auth enforces a Bearer JWT on the request.
func Auth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.AuthError(c, "authentication required")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			response.AuthError(c, "invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := jwt.ParseToken(tokenString, jwtSecret)
		if err != nil {
			response.AuthError(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Next()
	}
}

// GetUserID reads the authenticated user ID from the request context.
func GetUserID(c *gin.Context) (int64, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(int64)
	return id, ok
}
