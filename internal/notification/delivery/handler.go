package delivery

import (
	"errors"
	"net/http"
	"strconv"

	"commune-backend/internal/notification/repository"
	"commune-backend/internal/notification/usecase"

	"github.com/gin-gonic/gin"
)

// NotificationHandler handles notification HTTP requests
type NotificationHandler struct {
	notifUsecase usecase.NotificationUsecase
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifUsecase usecase.NotificationUsecase) *NotificationHandler {
	return &NotificationHandler{
		notifUsecase: notifUsecase,
	}
}

// List returns the authenticated user's notifications, newest first
// GET /api/notifications?community_id=&page=0&size=20
func (h *NotificationHandler) List(c *gin.Context) {
	userID := c.GetString("userID")

	communityID := c.Query("community_id")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	notifications, err := h.notifUsecase.List(userID, communityID, page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"page":          page,
		"size":          size,
	})
}

// MarkRead flips one of the user's own notifications to read
// PATCH /api/notifications/:publicId/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID := c.GetString("userID")
	publicID := c.Param("publicId")

	if err := h.notifUsecase.MarkRead(publicID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "notification marked as read"})
}

// MarkAllRead flips every unread notification of the user to read
// POST /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID := c.GetString("userID")

	if err := h.notifUsecase.MarkAllRead(userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "all notifications marked as read"})
}

// UnreadCount returns the user's number of unread notifications
// GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID := c.GetString("userID")

	count, err := h.notifUsecase.UnreadCount(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}
