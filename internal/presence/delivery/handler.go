package delivery

import (
	"net/http"

	"commune-backend/internal/presence"

	"github.com/gin-gonic/gin"
)

// PresenceHandler exposes read-only presence queries
type PresenceHandler struct {
	directory *presence.Directory
}

// NewPresenceHandler creates a new PresenceHandler
func NewPresenceHandler(directory *presence.Directory) *PresenceHandler {
	return &PresenceHandler{directory: directory}
}

// UserStatus handles GET /api/presence/users/:userId
func (h *PresenceHandler) UserStatus(c *gin.Context) {
	userID := c.Param("userId")

	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"online":  h.directory.IsOnline(userID),
	})
}

// CommunityStatus handles GET /api/presence/communities/:id
func (h *PresenceHandler) CommunityStatus(c *gin.Context) {
	communityID := c.Param("id")

	online := h.directory.OnlineInCommunity(communityID)
	if online == nil {
		online = []string{}
	}

	c.JSON(http.StatusOK, gin.H{
		"community_id": communityID,
		"online":       online,
		"count":        len(online),
	})
}
