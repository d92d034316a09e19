package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/pushp314/pulse-chat/internal/handlers"
	"github.com/pushp314/pulse-chat/internal/middleware"
)

func RegisterChatRoutes(r gin.IRouter, h *handlers.ChatHandler, auth gin.HandlerFunc) {
	conversations := r.Group("/conversations")
	conversations.Use(auth)
	{
		conversations.GET("", h.ListConversations)
		conversations.GET("/unread", h.GetUnreadCount)
		conversations.POST("/direct", h.CreateDirect)
		conversations.POST("/group", h.CreateGroup)
		conversations.GET("/:id", h.GetConversation)
		conversations.POST("/:id/read", h.MarkRead)

		conversations.GET("/:id/messages", h.ListMessages)
		conversations.POST("/:id/messages", middleware.ChatRateLimit(), h.SendMessage)

		conversations.GET("/:id/typing", h.ListTyping)
		conversations.POST("/:id/typing", middleware.TypingRateLimit(), h.StartTyping)
		conversations.DELETE("/:id/typing", h.StopTyping)
	}

	messages := r.Group("/messages")
	messages.Use(auth)
	{
		messages.DELETE("/:id", h.DeleteMessage)
		messages.POST("/:id/reactions", h.ToggleReaction)
	}
}
