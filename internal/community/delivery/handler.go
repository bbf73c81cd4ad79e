package delivery

import (
	"errors"
	"net/http"
	"strconv"

	"commune-backend/internal/community/dto"
	"commune-backend/internal/community/usecase"

	"github.com/gin-gonic/gin"
)

// CommunityHandler handles community HTTP requests
type CommunityHandler struct {
	communityUsecase usecase.CommunityUsecase
}

// NewCommunityHandler creates a new CommunityHandler
func NewCommunityHandler(communityUsecase usecase.CommunityUsecase) *CommunityHandler {
	return &CommunityHandler{communityUsecase: communityUsecase}
}

// Create handles POST /api/communities
func (h *CommunityHandler) Create(c *gin.Context) {
	userID := c.GetString("userID")

	var req dto.CreateCommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	community, err := h.communityUsecase.Create(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, community)
}

// List handles GET /api/communities?q=&page=&size=
func (h *CommunityHandler) List(c *gin.Context) {
	userID := c.GetString("userID")

	if query := c.Query("q"); query != "" {
		communities, err := h.communityUsecase.Search(userID, query)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"communities": communities})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	communities, err := h.communityUsecase.List(userID, page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"communities": communities, "page": page, "size": size})
}

// Get handles GET /api/communities/:id
func (h *CommunityHandler) Get(c *gin.Context) {
	userID := c.GetString("userID")
	communityID := c.Param("id")

	community, err := h.communityUsecase.Get(userID, communityID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, community)
}

// Update handles PATCH /api/communities/:id
func (h *CommunityHandler) Update(c *gin.Context) {
	userID := c.GetString("userID")
	communityID := c.Param("id")

	var req dto.UpdateCommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	community, err := h.communityUsecase.Update(userID, communityID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, community)
}

// Delete handles DELETE /api/communities/:id
func (h *CommunityHandler) Delete(c *gin.Context) {
	userID := c.GetString("userID")
	communityID := c.Param("id")

	if err := h.communityUsecase.Delete(userID, communityID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "community deleted"})
}

// Join handles POST /api/communities/:id/join
func (h *CommunityHandler) Join(c *gin.Context) {
	userID := c.GetString("userID")
	communityID := c.Param("id")

	if err := h.communityUsecase.Join(userID, communityID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "joined community"})
}

// Leave handles POST /api/communities/:id/leave
func (h *CommunityHandler) Leave(c *gin.Context) {
	userID := c.GetString("userID")
	communityID := c.Param("id")

	if err := h.communityUsecase.Leave(userID, communityID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "left community"})
}

// Members handles GET /api/communities/:id/members
func (h *CommunityHandler) Members(c *gin.Context) {
	communityID := c.Param("id")

	members, err := h.communityUsecase.Members(communityID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

// Invite handles POST /api/communities/:id/invites
func (h *CommunityHandler) Invite(c *gin.Context) {
	userID := c.GetString("userID")
	communityID := c.Param("id")

	var req dto.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invite, err := h.communityUsecase.Invite(c.Request.Context(), userID, communityID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, invite)
}

// ListInvites handles GET /api/invites
func (h *CommunityHandler) ListInvites(c *gin.Context) {
	userID := c.GetString("userID")

	invites, err := h.communityUsecase.ListInvites(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"invites": invites})
}

// AcceptInvite handles POST /api/invites/:id/accept
func (h *CommunityHandler) AcceptInvite(c *gin.Context) {
	h.respondInvite(c, true)
}

// DeclineInvite handles POST /api/invites/:id/decline
func (h *CommunityHandler) DeclineInvite(c *gin.Context) {
	h.respondInvite(c, false)
}

func (h *CommunityHandler) respondInvite(c *gin.Context, accept bool) {
	userID := c.GetString("userID")
	inviteID := c.Param("id")

	if err := h.communityUsecase.RespondInvite(c.Request.Context(), userID, inviteID, accept); err != nil {
		h.respondError(c, err)
		return
	}

	message := "invite declined"
	if accept {
		message = "invite accepted"
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

func (h *CommunityHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrAlreadyInvited):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
