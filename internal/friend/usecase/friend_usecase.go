package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"

	authrepo "commune-backend/internal/auth/repository"
	"commune-backend/internal/friend/domain"
	"commune-backend/internal/friend/repository"
	notifdomain "commune-backend/internal/notification/domain"
	notif "commune-backend/internal/notification/usecase"
)

// Sentinel errors the delivery layer maps to HTTP statuses.
var (
	ErrNotFound      = errors.New("friend: request not found")
	ErrForbidden     = errors.New("friend: operation not allowed")
	ErrAlreadyLinked = errors.New("friend: request already exists")
	ErrSelfRequest   = errors.New("friend: cannot friend yourself")
)

// PresenceSource answers whether a user currently has a live session.
type PresenceSource interface {
	IsOnline(userID string) bool
}

// FriendInfo is one friend as exposed to API consumers
type FriendInfo struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Online    bool   `json:"online"`
}

// FriendUsecase defines friend business logic operations
type FriendUsecase interface {
	SendRequest(ctx context.Context, senderID, recipientID string) (*domain.FriendRequest, error)
	Respond(ctx context.Context, userID, requestID string, accept bool) error
	PendingRequests(userID string) ([]domain.FriendRequest, error)
	Friends(userID string) ([]FriendInfo, error)
	Unfriend(userID, otherID string) error
}

type friendUsecase struct {
	friendRepo repository.FriendRepository
	userRepo   authrepo.UserRepository
	dispatcher notif.Dispatcher
	presence   PresenceSource
}

// NewFriendUsecase creates a new instance of friendUsecase
func NewFriendUsecase(
	friendRepo repository.FriendRepository,
	userRepo authrepo.UserRepository,
	dispatcher notif.Dispatcher,
	presence PresenceSource,
) FriendUsecase {
	return &friendUsecase{
		friendRepo: friendRepo,
		userRepo:   userRepo,
		dispatcher: dispatcher,
		presence:   presence,
	}
}

func (u *friendUsecase) SendRequest(ctx context.Context, senderID, recipientID string) (*domain.FriendRequest, error) {
	if senderID == recipientID {
		return nil, ErrSelfRequest
	}

	recipient, err := u.userRepo.FindByID(recipientID)
	if err != nil {
		return nil, err
	}
	if recipient == nil {
		return nil, ErrNotFound
	}

	existing, err := u.friendRepo.FindBetween(senderID, recipientID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyLinked
	}

	request := &domain.FriendRequest{
		SenderID:    senderID,
		RecipientID: recipientID,
	}
	if err := u.friendRepo.Create(request); err != nil {
		return nil, fmt.Errorf("failed to create friend request: %w", err)
	}

	sender, err := u.userRepo.FindByID(senderID)
	senderName := "Someone"
	if err == nil && sender != nil {
		senderName = sender.Name
	}

	_, err = u.dispatcher.Dispatch(ctx, notif.DispatchRequest{
		RecipientID: recipientID,
		Title:       "Friend request",
		Message:     fmt.Sprintf("%s sent you a friend request", senderName),
		Type:        notifdomain.TypeFriendRequest,
		Scope:       notifdomain.ScopeGlobal,
		SenderID:    senderID,
		ReferenceID: request.ID,
		Actionable:  true,
	})
	if err != nil {
		// The request stands even if notifying failed.
		log.Printf("[Friend] Failed to notify recipient %s: %v", recipientID, err)
	}

	return request, nil
}

func (u *friendUsecase) Respond(ctx context.Context, userID, requestID string, accept bool) error {
	request, err := u.friendRepo.FindByID(requestID)
	if err != nil {
		return err
	}
	if request == nil {
		return ErrNotFound
	}
	if request.RecipientID != userID {
		return ErrForbidden
	}
	if request.Status != domain.RequestPending {
		return ErrNotFound
	}

	if !accept {
		return u.friendRepo.UpdateStatus(requestID, domain.RequestDeclined)
	}

	if err := u.friendRepo.UpdateStatus(requestID, domain.RequestAccepted); err != nil {
		return err
	}

	if user, err := u.userRepo.FindByID(userID); err == nil && user != nil {
		_, err = u.dispatcher.Dispatch(ctx, notif.DispatchRequest{
			RecipientID: request.SenderID,
			Title:       "Friend request accepted",
			Message:     fmt.Sprintf("%s accepted your friend request", user.Name),
			Type:        notifdomain.TypeSystem,
			Scope:       notifdomain.ScopeGlobal,
			SenderID:    userID,
			ReferenceID: request.ID,
		})
		if err != nil {
			log.Printf("[Friend] Failed to notify sender %s: %v", request.SenderID, err)
		}
	}
	return nil
}

func (u *friendUsecase) PendingRequests(userID string) ([]domain.FriendRequest, error) {
	return u.friendRepo.PendingFor(userID)
}

func (u *friendUsecase) Friends(userID string) ([]FriendInfo, error) {
	ids, err := u.friendRepo.FriendIDs(userID)
	if err != nil {
		return nil, err
	}

	friends := make([]FriendInfo, 0, len(ids))
	for _, id := range ids {
		friend := FriendInfo{
			UserID: id,
			Online: u.presence.IsOnline(id),
		}
		if user, err := u.userRepo.FindByID(id); err == nil && user != nil {
			friend.Name = user.Name
			friend.Email = user.Email
			friend.AvatarURL = user.AvatarURL
		}
		friends = append(friends, friend)
	}
	return friends, nil
}

func (u *friendUsecase) Unfriend(userID, otherID string) error {
	return u.friendRepo.Unfriend(userID, otherID)
}
