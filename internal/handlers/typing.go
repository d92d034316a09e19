package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *ChatHandler) StartTyping(c *gin.Context) {
	if err := h.engine.SetTyping(c.Request.Context(), c.Param("id"), c.GetString("userId")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ChatHandler) StopTyping(c *gin.Context) {
	if err := h.engine.ClearTyping(c.Request.Context(), c.Param("id"), c.GetString("userId")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListTyping returns names of other members currently typing
func (h *ChatHandler) ListTyping(c *gin.Context) {
	id := c.Param("id")
	if !h.requireMember(c, id) {
		return
	}
	names, err := h.engine.ListActiveTypers(c.Request.Context(), id, c.GetString("userId"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"typing": names})
}
