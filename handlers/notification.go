package handlers

import (
	"errors"
	"net/http"

	"tradepost/models"
	"tradepost/services/notification"
	"tradepost/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NotificationHandler exposes the notification inbox over HTTP.
type NotificationHandler struct {
	Service notification.NotificationService
}

// NewNotificationHandler creates a NotificationHandler.
func NewNotificationHandler(svc notification.NotificationService) *NotificationHandler {
	return &NotificationHandler{Service: svc}
}

// GetNotificationsHandler handles GET /api/notifications.
func (h *NotificationHandler) GetNotificationsHandler(c *gin.Context) {
	userID, _ := currentUser(c)

	notifications, err := h.Service.ListForUser(c.Request.Context(), userID)
	if err != nil {
		utils.GetLogger().Error("failed to list notifications", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Internal server error", "")
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": notifications})
}

// GetModerationQueueHandler handles GET /api/notifications/pool (moderators):
// notifications addressed to the moderator pool rather than a single user.
func (h *NotificationHandler) GetModerationQueueHandler(c *gin.Context) {
	notifications, err := h.Service.ListModeratorPool(c.Request.Context())
	if err != nil {
		utils.GetLogger().Error("failed to list pool notifications", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Internal server error", "")
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": notifications})
}

// MarkReadHandler handles PUT /api/notifications/:id/read. A foreign id reads
// as not found so existence is never leaked.
func (h *NotificationHandler) MarkReadHandler(c *gin.Context) {
	userID, _ := currentUser(c)

	err := h.Service.MarkRead(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		if errors.Is(err, notification.ErrNotFound) {
			utils.JSONError(c, http.StatusNotFound, "Notification not found", "")
			return
		}
		utils.GetLogger().Error("failed to mark notification read", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Internal server error", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Notification marked as read"})
}

// MarkAllReadHandler handles PUT /api/notifications/read-all.
func (h *NotificationHandler) MarkAllReadHandler(c *gin.Context) {
	userID, _ := currentUser(c)

	count, err := h.Service.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		utils.GetLogger().Error("failed to mark notifications read", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Internal server error", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "All notifications marked as read",
		"count":   count,
	})
}

// DeleteNotificationHandler handles DELETE /api/notifications/:id.
func (h *NotificationHandler) DeleteNotificationHandler(c *gin.Context) {
	userID, _ := currentUser(c)

	err := h.Service.Delete(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		if errors.Is(err, notification.ErrNotFound) {
			utils.JSONError(c, http.StatusNotFound, "Notification not found", "")
			return
		}
		utils.GetLogger().Error("failed to delete notification", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Internal server error", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Notification deleted"})
}
