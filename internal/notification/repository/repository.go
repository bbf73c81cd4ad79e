package repository

import (
	"errors"

	"commune-backend/internal/notification/domain"
)

// ErrNotFound is returned when a notification does not exist or does not
// belong to the requesting user.
var ErrNotFound = errors.New("notification not found")

// UnreadCount is one user's number of unread notifications.
type UnreadCount struct {
	RecipientID string
	Count       int64
}

// NotificationRepository defines the durable notification store
type NotificationRepository interface {
	// Create persists a notification, assigning its id, public id and
	// creation timestamp
	Create(notification *domain.Notification) error

	// MarkRead flips the read flag of the recipient's own notification.
	// Returns ErrNotFound when no notification with that public id
	// belongs to the user.
	MarkRead(publicID, userID string) error

	// MarkAllRead flips the read flag on every unread notification of
	// the user
	MarkAllRead(userID string) error

	// ListForUser returns the user's notifications newest first. An
	// empty community id selects the global scope; otherwise only that
	// community's notifications are returned.
	ListForUser(userID, communityID string, page, size int) ([]domain.Notification, error)

	// CountUnread returns the user's number of unread notifications
	CountUnread(userID string) (int64, error)

	// UnreadByUser returns the unread counts of every user that has at
	// least one unread notification (used by the digest scheduler)
	UnreadByUser() ([]UnreadCount, error)
}
