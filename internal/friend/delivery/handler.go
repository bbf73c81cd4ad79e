package delivery

import (
	"errors"
	"net/http"

	"commune-backend/internal/friend/usecase"

	"github.com/gin-gonic/gin"
)

// FriendHandler handles friend HTTP requests
type FriendHandler struct {
	friendUsecase usecase.FriendUsecase
}

// NewFriendHandler creates a new FriendHandler
func NewFriendHandler(friendUsecase usecase.FriendUsecase) *FriendHandler {
	return &FriendHandler{friendUsecase: friendUsecase}
}

// SendRequest handles POST /api/friends/requests
func (h *FriendHandler) SendRequest(c *gin.Context) {
	userID := c.GetString("userID")

	var req struct {
		RecipientID string `json:"recipient_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.friendUsecase.SendRequest(c.Request.Context(), userID, req.RecipientID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, request)
}

// PendingRequests handles GET /api/friends/requests
func (h *FriendHandler) PendingRequests(c *gin.Context) {
	userID := c.GetString("userID")

	requests, err := h.friendUsecase.PendingRequests(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// Accept handles POST /api/friends/requests/:id/accept
func (h *FriendHandler) Accept(c *gin.Context) {
	h.respond(c, true)
}

// Decline handles POST /api/friends/requests/:id/decline
func (h *FriendHandler) Decline(c *gin.Context) {
	h.respond(c, false)
}

func (h *FriendHandler) respond(c *gin.Context, accept bool) {
	userID := c.GetString("userID")
	requestID := c.Param("id")

	if err := h.friendUsecase.Respond(c.Request.Context(), userID, requestID, accept); err != nil {
		h.respondError(c, err)
		return
	}

	message := "friend request declined"
	if accept {
		message = "friend request accepted"
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

// List handles GET /api/friends
func (h *FriendHandler) List(c *gin.Context) {
	userID := c.GetString("userID")

	friends, err := h.friendUsecase.Friends(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

// Unfriend handles DELETE /api/friends/:userId
func (h *FriendHandler) Unfriend(c *gin.Context) {
	userID := c.GetString("userID")
	otherID := c.Param("userId")

	if err := h.friendUsecase.Unfriend(userID, otherID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "friend removed"})
}

func (h *FriendHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrAlreadyLinked), errors.Is(err, usecase.ErrSelfRequest):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
