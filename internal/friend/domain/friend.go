package domain

import "time"

// Friend request lifecycle states. An accepted request is the
// friendship itself; there is no separate friends table.
const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestDeclined = "declined"
)

// FriendRequest represents a friend request between two users
type FriendRequest struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	SenderID    string    `gorm:"index:idx_friend_pair" json:"sender_id"`
	RecipientID string    `gorm:"index:idx_friend_pair" json:"recipient_id"`
	Status      string    `gorm:"default:pending;index" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
