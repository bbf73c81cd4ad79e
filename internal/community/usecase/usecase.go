package usecase

import (
	"context"
	"errors"

	"commune-backend/internal/community/domain"
	"commune-backend/internal/community/dto"
)

// Sentinel errors the delivery layer maps to HTTP statuses.
var (
	ErrNotFound       = errors.New("community: not found")
	ErrForbidden      = errors.New("community: operation not allowed")
	ErrAlreadyInvited = errors.New("community: user already invited")
)

// CommunityUsecase defines community business logic operations
type CommunityUsecase interface {
	Create(ctx context.Context, userID string, req dto.CreateCommunityRequest) (*domain.Community, error)
	List(userID string, page, size int) ([]dto.CommunityResponse, error)
	Search(userID, query string) ([]dto.CommunityResponse, error)
	Get(userID, communityID string) (*dto.CommunityResponse, error)
	Update(userID, communityID string, req dto.UpdateCommunityRequest) (*domain.Community, error)
	Delete(userID, communityID string) error
	Join(userID, communityID string) error
	Leave(userID, communityID string) error
	Members(communityID string) ([]dto.MemberResponse, error)
	Invite(ctx context.Context, inviterID, communityID string, req dto.InviteRequest) (*domain.Invite, error)
	RespondInvite(ctx context.Context, userID, inviteID string, accept bool) error
	ListInvites(userID string) ([]domain.Invite, error)
}
