package handler

import (
	"chatdraft/backend/internal/draft"
	"chatdraft/backend/internal/models"
	"chatdraft/backend/internal/storage"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetMessageElements re-parses a published message into elements. Messages
// kept in the database are looked up first, then the cache.
func (h *Handler) GetMessageElements(c *gin.Context) {
	channelID := c.Param("id")
	timetoken, err := strconv.ParseInt(c.Param("timetoken"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "timetoken must be an integer"})
		return
	}

	msg, err := h.Store.GetMessage(channelID, timetoken)
	if err == nil {
		elements, err := draft.ParseStoredMessage(msg.Text, msg.Annotations)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"timetoken": timetoken, "text": msg.Text, "elements": elements})
		return
	}
	if !errors.Is(err, storage.ErrNotFound) {
		h.writeError(c, err)
		return
	}

	cached, err := h.Store.GetCachedMessage(c.Request.Context(), channelID, timetoken)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"timetoken": timetoken,
		"text":      cached.Text,
		"elements":  draft.ToElements(cached.Text, cached.Annotations),
	})
}

// GetUnreadCount answers {"count": null} when the user never marked a
// message as read in the channel.
func (h *Handler) GetUnreadCount(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	count, err := h.Store.GetUnreadMessagesCount(c.Param("id"), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

type markReadRequest struct {
	UserID    string `json:"user_id" binding:"required"`
	Timetoken int64  `json:"timetoken" binding:"required"`
}

func (h *Handler) MarkRead(c *gin.Context) {
	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Store.MarkRead(c.Param("id"), req.UserID, req.Timetoken); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.Membership{ChannelID: c.Param("id"), UserID: req.UserID, LastReadTimetoken: &req.Timetoken})
}
