package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/pushp314/pulse-chat/pkg/errors"
)

func (h *ChatHandler) ListMessages(c *gin.Context) {
	id := c.Param("id")
	if !h.requireMember(c, id) {
		return
	}
	msgs, err := h.engine.ListMessages(c.Request.Context(), id, c.GetString("userId"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req struct {
		Body string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest("Invalid request"))
		return
	}

	id, err := h.engine.SendMessage(c.Request.Context(), c.Param("id"), c.GetString("userId"), SanitizeMessageBody(req.Body))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// DeleteMessage soft-deletes one of the caller's own messages
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	if err := h.engine.SoftDeleteMessage(c.Request.Context(), c.Param("id"), c.GetString("userId")); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ToggleReaction adds, swaps or removes the caller's reaction
func (h *ChatHandler) ToggleReaction(c *gin.Context) {
	var req struct {
		Emoji string `json:"emoji" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest("emoji is required"))
		return
	}

	outcome, err := h.engine.ToggleReaction(c.Request.Context(), c.Param("id"), c.GetString("userId"), req.Emoji)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": outcome})
}
