package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pushp314/pulse-chat/internal/services"
	apperrors "github.com/pushp314/pulse-chat/pkg/errors"
)

// ChatHandler exposes the chat engine over HTTP
type ChatHandler struct {
	engine *services.Engine
}

func NewChatHandler(engine *services.Engine) *ChatHandler {
	return &ChatHandler{engine: engine}
}

// requireMember aborts with 403 unless the caller belongs to the conversation
func (h *ChatHandler) requireMember(c *gin.Context, conversationID string) bool {
	ok, err := h.engine.IsMember(c.Request.Context(), conversationID, c.GetString("userId"))
	if err != nil {
		c.Error(err)
		return false
	}
	if !ok {
		c.Error(apperrors.Permission("You are not a member of this conversation"))
		return false
	}
	return true
}

// CreateDirect opens (or reuses) the direct conversation with another user
func (h *ChatHandler) CreateDirect(c *gin.Context) {
	userID := c.GetString("userId")
	var req struct {
		UserID string `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest("userId is required"))
		return
	}

	id, err := h.engine.GetOrCreateDirect(c.Request.Context(), userID, req.UserID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversationId": id})
}

func (h *ChatHandler) CreateGroup(c *gin.Context) {
	userID := c.GetString("userId")
	var req struct {
		Name      string   `json:"name" binding:"required"`
		MemberIDs []string `json:"memberIds" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest("name and memberIds are required"))
		return
	}

	id, err := h.engine.CreateGroup(c.Request.Context(), req.Name, userID, req.MemberIDs)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"conversationId": id})
}

// ListConversations returns the caller's sidebar, most recent activity first
func (h *ChatHandler) ListConversations(c *gin.Context) {
	list, err := h.engine.ListConversationsForUser(c.Request.Context(), c.GetString("userId"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": list})
}

// GetUnreadCount returns the unread total across all conversations
func (h *ChatHandler) GetUnreadCount(c *gin.Context) {
	count, err := h.engine.TotalUnread(c.Request.Context(), c.GetString("userId"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unreadCount": count})
}

// GetConversation answers 404 to non-members as well, so ids cannot be probed
func (h *ChatHandler) GetConversation(c *gin.Context) {
	id := c.Param("id")
	ok, err := h.engine.IsMember(c.Request.Context(), id, c.GetString("userId"))
	if err != nil {
		c.Error(err)
		return
	}
	if !ok {
		c.Error(apperrors.NotFound("Conversation not found"))
		return
	}
	detail, err := h.engine.GetConversation(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	if detail == nil {
		c.Error(apperrors.NotFound("Conversation not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": detail})
}

func (h *ChatHandler) MarkRead(c *gin.Context) {
	if err := h.engine.MarkRead(c.Request.Context(), c.GetString("userId"), c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
