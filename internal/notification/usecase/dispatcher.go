package usecase

import (
	"context"
	"fmt"
	"log"

	authrepo "commune-backend/internal/auth/repository"
	"commune-backend/internal/notification/domain"
	"commune-backend/internal/notification/repository"
	"commune-backend/pkg/fcm"
)

// DispatcherService implements Dispatcher
type DispatcherService struct {
	notifRepo repository.NotificationRepository
	userRepo  authrepo.UserRepository
	members   MembershipResolver
	sessions  SessionSource
	gateway   Gateway

	// Optional collaborators, wired when configured
	deviceRepo   authrepo.DeviceTokenRepository
	devicePusher DevicePusher
	relay        EventRelay
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(
	notifRepo repository.NotificationRepository,
	userRepo authrepo.UserRepository,
	members MembershipResolver,
	sessions SessionSource,
	gateway Gateway,
) *DispatcherService {
	return &DispatcherService{
		notifRepo: notifRepo,
		userRepo:  userRepo,
		members:   members,
		sessions:  sessions,
		gateway:   gateway,
	}
}

// SetOfflinePush enables the FCM fallback for recipients with no live
// session.
func (d *DispatcherService) SetOfflinePush(pusher DevicePusher, deviceRepo authrepo.DeviceTokenRepository) {
	d.devicePusher = pusher
	d.deviceRepo = deviceRepo
}

// SetRelay enables cross-instance delivery via the event bridge.
func (d *DispatcherService) SetRelay(relay EventRelay) {
	d.relay = relay
}

func (d *DispatcherService) Dispatch(ctx context.Context, req DispatchRequest) (DispatchOutcome, error) {
	var outcome DispatchOutcome

	if req.Scope == "" {
		req.Scope = domain.ScopeGlobal
	}
	req.Type = domain.ParseType(string(req.Type))

	recipients, err := d.resolveRecipients(req)
	if err != nil {
		return outcome, err
	}
	outcome.Recipients = len(recipients)

	// Display info is resolved once per dispatch, not per recipient.
	sender, community, err := d.resolveDisplay(req)
	if err != nil {
		return outcome, err
	}

	for _, recipientID := range recipients {
		notification, err := d.persistFor(recipientID, req)
		if err != nil {
			outcome.Failures = append(outcome.Failures, RecipientFailure{UserID: recipientID, Err: err})
			continue
		}
		outcome.Persisted++

		payload := DeliveryPayload{
			PublicID:    notification.PublicID,
			Title:       notification.Title,
			Message:     notification.Message,
			Type:        notification.Type,
			Scope:       notification.Scope,
			Actionable:  notification.Actionable,
			Sender:      sender,
			Community:   community,
			ReferenceID: req.ReferenceID,
			CreatedAt:   notification.CreatedAt,
		}
		outcome.Delivered += d.deliver(ctx, recipientID, payload)
	}

	// A single-recipient dispatch surfaces its failure directly.
	if len(recipients) == 1 && len(outcome.Failures) == 1 {
		return outcome, outcome.Failures[0].Err
	}
	return outcome, nil
}

// resolveRecipients expands the target selector into a de-duplicated
// list of user ids.
func (d *DispatcherService) resolveRecipients(req DispatchRequest) ([]string, error) {
	if !req.Broadcast {
		if req.RecipientID == "" {
			return nil, fmt.Errorf("%w: recipient is required", domain.ErrValidation)
		}
		return []string{req.RecipientID}, nil
	}

	if req.CommunityID == "" {
		return nil, fmt.Errorf("%w: broadcast requires a community", domain.ErrValidation)
	}
	memberIDs, err := d.members.MemberIDs(req.CommunityID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve community members: %w", err)
	}

	seen := make(map[string]struct{}, len(memberIDs))
	recipients := make([]string, 0, len(memberIDs))
	for _, id := range memberIDs {
		if id == req.SenderID {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		recipients = append(recipients, id)
	}
	return recipients, nil
}

func (d *DispatcherService) resolveDisplay(req DispatchRequest) (*SenderInfo, *CommunityInfo, error) {
	var sender *SenderInfo
	if req.SenderID != "" {
		user, err := d.userRepo.FindByID(req.SenderID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve sender: %w", err)
		}
		if user != nil {
			sender = &SenderInfo{Name: user.Name, Email: user.Email, Avatar: user.AvatarURL}
		}
	}

	var community *CommunityInfo
	if req.CommunityID != "" {
		name, err := d.members.CommunityName(req.CommunityID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve community: %w", err)
		}
		community = &CommunityInfo{ID: req.CommunityID, Name: name}
	}

	return sender, community, nil
}

// persistFor validates and stores one recipient's notification. The
// durable write either succeeds whole or the recipient fails; no
// half-created state is exposed.
func (d *DispatcherService) persistFor(recipientID string, req DispatchRequest) (*domain.Notification, error) {
	notification := &domain.Notification{
		Title:       req.Title,
		Message:     req.Message,
		Type:        req.Type,
		Scope:       req.Scope,
		Actionable:  req.Actionable,
		RecipientID: recipientID,
		SenderID:    optional(req.SenderID),
		CommunityID: optional(req.CommunityID),
		ReferenceID: optional(req.ReferenceID),
	}

	if err := notification.Validate(); err != nil {
		return nil, err
	}

	// Community-scoped notifications only reach members. Broadcast
	// recipients were resolved from the membership list already.
	if notification.Scope == domain.ScopeCommunity && !req.Broadcast {
		member, err := d.members.IsMember(req.CommunityID, recipientID)
		if err != nil {
			return nil, fmt.Errorf("failed to check membership: %w", err)
		}
		if !member {
			return nil, fmt.Errorf("%w: recipient is not a member of the community", domain.ErrValidation)
		}
	}

	if err := d.notifRepo.Create(notification); err != nil {
		return nil, fmt.Errorf("failed to persist notification: %w", err)
	}
	return notification, nil
}

// deliver pushes the payload to every live session of the recipient,
// fire-and-forget, and falls back to device push when there is none.
// Returns the number of live pushes emitted.
func (d *DispatcherService) deliver(ctx context.Context, recipientID string, payload DeliveryPayload) int {
	delivered := 0
	sessions := d.sessions.SessionsOf(recipientID)
	for _, session := range sessions {
		// A session that vanished between lookup and push is simply gone.
		if err := d.gateway.Push(session.ConnectionID, "notification", payload); err != nil {
			continue
		}
		delivered++
	}

	if d.relay != nil {
		if err := d.relay.Publish(ctx, recipientID, "notification", payload); err != nil {
			log.Printf("[Dispatcher] Relay publish failed for user %s: %v", recipientID, err)
		}
	}

	if len(sessions) == 0 {
		d.pushToDevices(ctx, recipientID, payload)
	}
	return delivered
}

// pushToDevices sends the FCM fallback and prunes dead registrations.
func (d *DispatcherService) pushToDevices(ctx context.Context, recipientID string, payload DeliveryPayload) {
	if d.devicePusher == nil || d.deviceRepo == nil {
		return
	}

	tokens, err := d.deviceRepo.GetTokensByUserID(recipientID)
	if err != nil {
		log.Printf("[Dispatcher] Error getting device tokens for user %s: %v", recipientID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	tokenStrings := make([]string, 0, len(tokens))
	for _, t := range tokens {
		tokenStrings = append(tokenStrings, t.Token)
	}

	push := fcm.PushData{
		Title: payload.Title,
		Body:  payload.Message,
		Data: map[string]string{
			"public_id":    payload.PublicID,
			"type":         string(payload.Type),
			"click_action": "/notifications",
		},
	}

	failedTokens, err := d.devicePusher.SendToDevices(ctx, tokenStrings, push)
	if err != nil {
		log.Printf("[Dispatcher] Device push failed for user %s: %v", recipientID, err)
		return
	}
	for _, token := range failedTokens {
		if err := d.deviceRepo.DeleteToken(token); err != nil {
			log.Printf("[Dispatcher] Failed to prune device token: %v", err)
		}
	}
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
