package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pushp314/pulse-chat/internal/services"
	"github.com/pushp314/pulse-chat/pkg/utils"
)

// bearerToken extracts the token from "Authorization: Bearer <token>"
func bearerToken(c *gin.Context) (string, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", "Authorization header required"
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", "Invalid authorization header format"
	}
	return parts[1], ""
}

// authenticate validates the bearer token and stores its claims, aborting on failure
func authenticate(c *gin.Context) bool {
	tokenString, problem := bearerToken(c)
	if problem != "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": problem})
		c.Abort()
		return false
	}

	claims, err := utils.ValidateToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		c.Abort()
		return false
	}

	c.Set("claims", claims)
	c.Set("externalId", claims.ExternalID())
	return true
}

// TokenMiddleware only checks the token. It does not require a directory
// entry, so /auth/sync can create one.
func TokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if authenticate(c) {
			c.Next()
		}
	}
}

// AuthMiddleware validates the token and resolves the caller's directory entry.
// Sets "userId" for handlers.
func AuthMiddleware(engine *services.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c) {
			return
		}

		user, err := engine.GetUserByExternalID(c.Request.Context(), c.GetString("externalId"))
		if err != nil {
			c.Error(err)
			c.Abort()
			return
		}
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not synced"})
			c.Abort()
			return
		}

		c.Set("userId", user.ID)
		c.Set("user", user)
		c.Next()
	}
}
