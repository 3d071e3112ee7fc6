package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/apperrors"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/services"
)

// NotificationHandler exposes in-app notifications and preferences
type NotificationHandler struct {
	notifications *services.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List handles GET /notifications
func (h *NotificationHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	notifications, err := h.notifications.ListForUser(c.Request.Context(), actorFrom(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// MarkRead handles POST /notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperrors.Validation("invalid notification id"))
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), actorFrom(c), notificationID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UnreadCount handles GET /notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.notifications.UnreadCount(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// PreferenceBody is the JSON payload for preference updates
type PreferenceBody struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
	InApp bool `json:"in_app"`
}

// GetPreferences handles GET /notification-preferences
func (h *NotificationHandler) GetPreferences(c *gin.Context) {
	pref, err := h.notifications.GetPreferences(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pref)
}

// UpdatePreferences handles PUT /notification-preferences
func (h *NotificationHandler) UpdatePreferences(c *gin.Context) {
	var body PreferenceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, apperrors.Validation("invalid request payload"))
		return
	}

	pref, err := h.notifications.UpdatePreferences(c.Request.Context(), actorFrom(c), body.Email, body.SMS, body.InApp)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pref)
}

// RegisterRoutes registers the handler's routes
func (h *NotificationHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/notifications", h.List)
	group.GET("/notifications/unread-count", h.UnreadCount)
	group.POST("/notifications/:id/read", h.MarkRead)
	group.GET("/notification-preferences", h.GetPreferences)
	group.PUT("/notification-preferences", h.UpdatePreferences)
}
