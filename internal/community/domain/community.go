package domain

import "time"

// Community represents a community record in the database
type Community struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"index" json:"name"`
	Description string    `json:"description"`
	AvatarURL   string    `json:"avatar_url"`
	CreatorID   string    `gorm:"index" json:"creator_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Membership ties a user to a community
type Membership struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	CommunityID string    `gorm:"index:idx_membership_community_user,unique" json:"community_id"`
	UserID      string    `gorm:"index:idx_membership_community_user,unique" json:"user_id"`
	IsAdmin     bool      `json:"is_admin"`
	JoinedAt    time.Time `json:"joined_at"`
}

// Invite lifecycle states
const (
	InvitePending  = "pending"
	InviteAccepted = "accepted"
	InviteDeclined = "declined"
)

// Invite is an invitation of a user into a community
type Invite struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	CommunityID string    `gorm:"index" json:"community_id"`
	InviterID   string    `json:"inviter_id"`
	InviteeID   string    `gorm:"index" json:"invitee_id"`
	Status      string    `gorm:"default:pending" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
