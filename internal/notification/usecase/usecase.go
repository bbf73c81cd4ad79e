package usecase

import (
	"context"
	"time"

	"commune-backend/internal/notification/domain"
	"commune-backend/internal/presence"
	"commune-backend/pkg/fcm"
)

// Gateway pushes one event to one live connection, best effort.
// Implemented by the websocket manager; tests use a recording fake.
type Gateway interface {
	Push(connectionID, event string, payload interface{}) error
}

// SessionSource answers which live sessions a user currently has.
// Implemented by the presence registry.
type SessionSource interface {
	SessionsOf(userID string) []presence.Binding
}

// MembershipResolver is the community module's view the dispatcher
// needs: who belongs to a community, and what it is called.
type MembershipResolver interface {
	MemberIDs(communityID string) ([]string, error)
	IsMember(communityID, userID string) (bool, error)
	CommunityName(communityID string) (string, error)
}

// DevicePusher sends offline push notifications to device tokens.
// Implemented by the FCM client.
type DevicePusher interface {
	SendToDevices(ctx context.Context, tokens []string, push fcm.PushData) ([]string, error)
}

// EventRelay forwards a recipient-targeted delivery event to other
// instances. Implemented by the Pub/Sub bridge.
type EventRelay interface {
	Publish(ctx context.Context, userID, event string, payload interface{}) error
}

// DispatchRequest describes one notification-producing action.
// Either RecipientID names a single recipient, or Broadcast targets
// every member of CommunityID.
type DispatchRequest struct {
	RecipientID string
	CommunityID string
	Broadcast   bool
	Title       string
	Message     string
	Type        domain.NotificationType
	Scope       domain.NotificationScope
	SenderID    string // empty for system notifications
	ReferenceID string
	Actionable  bool
}

// RecipientFailure is one recipient whose dispatch did not persist.
type RecipientFailure struct {
	UserID string
	Err    error
}

// DispatchOutcome summarizes a dispatch: how many recipients resolved,
// how many records persisted, how many live pushes went out, and which
// recipients failed.
type DispatchOutcome struct {
	Recipients int
	Persisted  int
	Delivered  int
	Failures   []RecipientFailure
}

// SenderInfo is the rendered display payload for a sender.
type SenderInfo struct {
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// CommunityInfo is the rendered display payload for a community.
type CommunityInfo struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// DeliveryPayload is the event body pushed to a live session. Absent
// fields are omitted from the serialized frame, never sent as nulls.
type DeliveryPayload struct {
	PublicID    string                   `json:"public_id"`
	Title       string                   `json:"title"`
	Message     string                   `json:"message"`
	Type        domain.NotificationType  `json:"type"`
	Scope       domain.NotificationScope `json:"scope"`
	Actionable  bool                     `json:"actionable"`
	Sender      *SenderInfo              `json:"sender,omitempty"`
	Community   *CommunityInfo           `json:"community,omitempty"`
	ReferenceID string                   `json:"reference_id,omitempty"`
	CreatedAt   time.Time                `json:"created_at"`
}

// NotificationResponse is the persisted notification as exposed to API
// consumers.
type NotificationResponse struct {
	ID          string                   `json:"id"`
	PublicID    string                   `json:"public_id"`
	Title       string                   `json:"title"`
	Message     string                   `json:"message"`
	Type        domain.NotificationType  `json:"type"`
	Scope       domain.NotificationScope `json:"scope"`
	Actionable  bool                     `json:"actionable"`
	Read        bool                     `json:"read"`
	Sender      *SenderInfo              `json:"sender,omitempty"`
	Community   *CommunityInfo           `json:"community,omitempty"`
	ReferenceID string                   `json:"reference_id,omitempty"`
	CreatedAt   time.Time                `json:"created_at"`
}

// Dispatcher persists notifications and attempts live delivery to every
// active session of each recipient.
type Dispatcher interface {
	Dispatch(ctx context.Context, req DispatchRequest) (DispatchOutcome, error)
}

// NotificationUsecase is the query surface consumed by the listing
// endpoints.
type NotificationUsecase interface {
	List(userID, communityID string, page, size int) ([]NotificationResponse, error)
	MarkRead(publicID, userID string) error
	MarkAllRead(userID string) error
	UnreadCount(userID string) (int64, error)
}
