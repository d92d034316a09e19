package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/pushp314/pulse-chat/internal/handlers"
)

func RegisterUserRoutes(r gin.IRouter, h *handlers.ChatHandler, auth gin.HandlerFunc) {
	users := r.Group("/users")
	users.Use(auth)
	{
		// Specific paths first
		users.GET("/me", h.GetMe)
		users.GET("/external/:externalId", h.GetUserByExternalID)
		users.GET("", h.ListUsers) // ?search=
	}
}
