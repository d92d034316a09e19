package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/pushp314/pulse-chat/internal/handlers"
	"github.com/pushp314/pulse-chat/internal/middleware"
)

func RegisterAuthRoutes(r gin.IRouter, h *handlers.ChatHandler) {
	auth := r.Group("/auth")
	auth.Use(middleware.AuthRateLimit(), middleware.TokenMiddleware())
	{
		auth.POST("/sync", h.SyncUser)
	}
}
