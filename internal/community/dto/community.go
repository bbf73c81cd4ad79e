package dto

// CreateCommunityRequest represents the create community request body
type CreateCommunityRequest struct {
	Name        string `json:"name" binding:"required,min=3,max=64"`
	Description string `json:"description" binding:"max=500"`
	AvatarURL   string `json:"avatar_url"`
}

// UpdateCommunityRequest represents the update community request body
type UpdateCommunityRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=3,max=64"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	AvatarURL   *string `json:"avatar_url"`
}

// InviteRequest represents the invite request body
type InviteRequest struct {
	InviteeID string `json:"invitee_id" binding:"required"`
}

// MemberResponse is one community member as exposed to API consumers
type MemberResponse struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url,omitempty"`
	IsAdmin   bool   `json:"is_admin"`
	Online    bool   `json:"online"`
}

// CommunityResponse is a community plus derived counters
type CommunityResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	CreatorID   string `json:"creator_id"`
	MemberCount int64  `json:"member_count"`
	Joined      bool   `json:"joined"`
}
