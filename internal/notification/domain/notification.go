package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrValidation marks a notification that violates a creation invariant.
// Matched with errors.Is by dispatch callers.
var ErrValidation = errors.New("notification validation failed")

// NotificationType is the closed set of notification categories.
type NotificationType string

const (
	TypeFriendRequest NotificationType = "friend_request"
	TypeInvite        NotificationType = "invite"
	TypeMention       NotificationType = "mention"
	TypeSystem        NotificationType = "system"
	// TypeOther is the forward-compatibility fallback for categories
	// this version does not know about.
	TypeOther NotificationType = "other"
)

// ParseType normalizes a free-form type string to a known category.
func ParseType(raw string) NotificationType {
	switch NotificationType(raw) {
	case TypeFriendRequest, TypeInvite, TypeMention, TypeSystem:
		return NotificationType(raw)
	default:
		return TypeOther
	}
}

// NotificationScope says whether a notification applies platform-wide
// or within one community.
type NotificationScope string

const (
	ScopeGlobal    NotificationScope = "global"
	ScopeCommunity NotificationScope = "community"
)

// Notification is the durable record of one delivery to one recipient.
// ID is internal; PublicID is the value safe to expose to clients.
type Notification struct {
	ID          string            `json:"id" gorm:"primaryKey"`
	PublicID    string            `json:"public_id" gorm:"uniqueIndex;not null"`
	Title       string            `json:"title"`
	Message     string            `json:"message"`
	Type        NotificationType  `json:"type" gorm:"size:30;index"`
	Scope       NotificationScope `json:"scope" gorm:"size:20"`
	Actionable  bool              `json:"actionable"`
	Read        bool              `json:"read" gorm:"column:is_read;default:false;index"`
	SenderID    *string           `json:"sender_id,omitempty" gorm:"index"`
	RecipientID string            `json:"recipient_id" gorm:"index;not null"`
	CommunityID *string           `json:"community_id,omitempty" gorm:"index"`
	ReferenceID *string           `json:"reference_id,omitempty"`
	CreatedAt   time.Time         `json:"created_at" gorm:"index"`
}

// Validate enforces the creation invariants: a recipient is required,
// the global scope carries no community and the community scope
// requires one.
func (n *Notification) Validate() error {
	if n.RecipientID == "" {
		return fmt.Errorf("%w: recipient is required", ErrValidation)
	}

	switch n.Scope {
	case ScopeGlobal:
		if n.CommunityID != nil && *n.CommunityID != "" {
			return fmt.Errorf("%w: global scope cannot carry a community", ErrValidation)
		}
	case ScopeCommunity:
		if n.CommunityID == nil || *n.CommunityID == "" {
			return fmt.Errorf("%w: community scope requires a community", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown scope %q", ErrValidation, n.Scope)
	}
	return nil
}
