package usecase

import (
	authrepo "commune-backend/internal/auth/repository"
	"commune-backend/internal/notification/repository"
)

// notificationUsecase implements NotificationUsecase
type notificationUsecase struct {
	notifRepo repository.NotificationRepository
	userRepo  authrepo.UserRepository
	members   MembershipResolver
}

// NewNotificationUsecase creates a new instance of notificationUsecase
func NewNotificationUsecase(
	notifRepo repository.NotificationRepository,
	userRepo authrepo.UserRepository,
	members MembershipResolver,
) NotificationUsecase {
	return &notificationUsecase{
		notifRepo: notifRepo,
		userRepo:  userRepo,
		members:   members,
	}
}

// List returns the user's notifications newest first, with sender and
// community display info resolved. Lookups are cached per call since a
// page usually repeats the same few senders.
func (u *notificationUsecase) List(userID, communityID string, page, size int) ([]NotificationResponse, error) {
	notifications, err := u.notifRepo.ListForUser(userID, communityID, page, size)
	if err != nil {
		return nil, err
	}

	senders := make(map[string]*SenderInfo)
	communities := make(map[string]*CommunityInfo)

	responses := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		response := NotificationResponse{
			ID:         n.ID,
			PublicID:   n.PublicID,
			Title:      n.Title,
			Message:    n.Message,
			Type:       n.Type,
			Scope:      n.Scope,
			Actionable: n.Actionable,
			Read:       n.Read,
			CreatedAt:  n.CreatedAt,
		}
		if n.ReferenceID != nil {
			response.ReferenceID = *n.ReferenceID
		}
		if n.SenderID != nil {
			response.Sender = u.senderInfo(*n.SenderID, senders)
		}
		if n.CommunityID != nil {
			response.Community = u.communityInfo(*n.CommunityID, communities)
		}
		responses = append(responses, response)
	}
	return responses, nil
}

func (u *notificationUsecase) MarkRead(publicID, userID string) error {
	return u.notifRepo.MarkRead(publicID, userID)
}

func (u *notificationUsecase) MarkAllRead(userID string) error {
	return u.notifRepo.MarkAllRead(userID)
}

func (u *notificationUsecase) UnreadCount(userID string) (int64, error) {
	return u.notifRepo.CountUnread(userID)
}

func (u *notificationUsecase) senderInfo(senderID string, cache map[string]*SenderInfo) *SenderInfo {
	if info, ok := cache[senderID]; ok {
		return info
	}

	// A sender that was deleted since renders as an empty sender rather
	// than failing the listing.
	var info *SenderInfo
	if user, err := u.userRepo.FindByID(senderID); err == nil && user != nil {
		info = &SenderInfo{Name: user.Name, Email: user.Email, Avatar: user.AvatarURL}
	}
	cache[senderID] = info
	return info
}

func (u *notificationUsecase) communityInfo(communityID string, cache map[string]*CommunityInfo) *CommunityInfo {
	if info, ok := cache[communityID]; ok {
		return info
	}

	info := &CommunityInfo{ID: communityID}
	if name, err := u.members.CommunityName(communityID); err == nil {
		info.Name = name
	}
	cache[communityID] = info
	return info
}
