package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/pushp314/pulse-chat/pkg/errors"
	"github.com/pushp314/pulse-chat/pkg/utils"
)

// SyncUser upserts the caller's directory entry from the token claims.
// This is the only place identity data enters the system.
func (h *ChatHandler) SyncUser(c *gin.Context) {
	claims, ok := c.MustGet("claims").(*utils.Claims)
	if !ok {
		c.Error(apperrors.Unauthorized("Missing claims"))
		return
	}

	id, err := h.engine.UpsertUser(c.Request.Context(), claims.ExternalID(), claims.Name, claims.Email, claims.Picture)
	if err != nil {
		c.Error(err)
		return
	}
	user, err := h.engine.GetUser(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ListUsers lists everyone but the caller, filtered by ?search= when present
func (h *ChatHandler) ListUsers(c *gin.Context) {
	users, err := h.engine.SearchUsersByName(c.Request.Context(), c.Query("search"), c.GetString("userId"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *ChatHandler) GetMe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": c.MustGet("user")})
}

func (h *ChatHandler) GetUserByExternalID(c *gin.Context) {
	user, err := h.engine.GetUserByExternalID(c.Request.Context(), c.Param("externalId"))
	if err != nil {
		c.Error(err)
		return
	}
	if user == nil {
		c.Error(apperrors.NotFound("User not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
