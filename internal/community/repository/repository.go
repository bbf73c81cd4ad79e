package repository

import "commune-backend/internal/community/domain"

// CommunityRepository defines community persistence operations
type CommunityRepository interface {
	Create(community *domain.Community) error
	FindByID(id string) (*domain.Community, error)
	List(page, size int) ([]domain.Community, error)
	All() ([]domain.Community, error)
	Update(community *domain.Community) error
	Delete(id string) error
}

// MembershipRepository defines membership persistence operations
type MembershipRepository interface {
	Add(membership *domain.Membership) error
	Remove(communityID, userID string) error
	RemoveAll(communityID string) error
	IsMember(communityID, userID string) (bool, error)
	MemberIDs(communityID string) ([]string, error)
	Members(communityID string) ([]domain.Membership, error)
	CountMembers(communityID string) (int64, error)
	CommunitiesOf(userID string) ([]string, error)
}

// InviteRepository defines invite persistence operations
type InviteRepository interface {
	Create(invite *domain.Invite) error
	FindByID(id string) (*domain.Invite, error)
	FindPending(communityID, inviteeID string) (*domain.Invite, error)
	UpdateStatus(id, status string) error
	ListForInvitee(inviteeID string) ([]domain.Invite, error)
}
