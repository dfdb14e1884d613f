package handler

import (
	"net/http"
	"strconv"

	"github.com/eventsphere/eventsphere/internal/api/models"
	"github.com/eventsphere/eventsphere/internal/notify/webpush"
	"github.com/gin-gonic/gin"
)

type subscribeRequest struct {
	Subscription webpush.Subscription `json:"subscription"`
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

func (h *Handler) ListAnnouncements(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	announcements, err := h.engine.ListAnnouncements(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err, "failed to list announcements")
		return
	}
	c.JSON(http.StatusOK, models.ToAnnouncements(announcements))
}

func (h *Handler) ListNotifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	notifications, err := h.engine.ListNotifications(c.Request.Context(), mustUser(c).ID, limit)
	if err != nil {
		respondError(c, err, "failed to list notifications")
		return
	}
	c.JSON(http.StatusOK, models.ToNotifications(notifications))
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	id, ok := idParam(c, "id", "notification")
	if !ok {
		return
	}
	if err := h.engine.MarkNotificationRead(c.Request.Context(), id, mustUser(c).ID); err != nil {
		respondError(c, err, "failed to mark notification as read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// GetVAPIDKey returns the VAPID public key for client subscription.
func (h *Handler) GetVAPIDKey(c *gin.Context) {
	client := h.engine.WebPush()
	if client == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Push notifications are not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"publicKey": client.GetPublicKey()})
}

func (h *Handler) SubscribePush(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid subscription data"})
		return
	}
	if err := h.engine.SubscribePush(c.Request.Context(), mustUser(c).ID, &req.Subscription); err != nil {
		respondError(c, err, "failed to save push subscription")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Subscribed to push notifications"})
}

func (h *Handler) UnsubscribePush(c *gin.Context) {
	var req unsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid unsubscribe data"})
		return
	}
	if err := h.engine.UnsubscribePush(c.Request.Context(), mustUser(c).ID, req.Endpoint); err != nil {
		respondError(c, err, "failed to delete push subscription")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Unsubscribed from push notifications"})
}
