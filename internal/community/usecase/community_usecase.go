package usecase

import (
	"context"
	"fmt"
	"log"
	"sort"

	authrepo "commune-backend/internal/auth/repository"
	"commune-backend/internal/community/domain"
	"commune-backend/internal/community/dto"
	"commune-backend/internal/community/repository"
	notifdomain "commune-backend/internal/notification/domain"
	notif "commune-backend/internal/notification/usecase"
	"commune-backend/pkg/fuzzy"
)

// PresenceSource answers whether a user currently has a live session.
// Implemented by the presence directory.
type PresenceSource interface {
	IsOnline(userID string) bool
}

type communityUsecase struct {
	communityRepo  repository.CommunityRepository
	membershipRepo repository.MembershipRepository
	inviteRepo     repository.InviteRepository
	userRepo       authrepo.UserRepository
	dispatcher     notif.Dispatcher
	presence       PresenceSource
}

// NewCommunityUsecase creates a new instance of communityUsecase
func NewCommunityUsecase(
	communityRepo repository.CommunityRepository,
	membershipRepo repository.MembershipRepository,
	inviteRepo repository.InviteRepository,
	userRepo authrepo.UserRepository,
	dispatcher notif.Dispatcher,
	presence PresenceSource,
) CommunityUsecase {
	return &communityUsecase{
		communityRepo:  communityRepo,
		membershipRepo: membershipRepo,
		inviteRepo:     inviteRepo,
		userRepo:       userRepo,
		dispatcher:     dispatcher,
		presence:       presence,
	}
}

func (u *communityUsecase) Create(ctx context.Context, userID string, req dto.CreateCommunityRequest) (*domain.Community, error) {
	community := &domain.Community{
		Name:        req.Name,
		Description: req.Description,
		AvatarURL:   req.AvatarURL,
		CreatorID:   userID,
	}
	if err := u.communityRepo.Create(community); err != nil {
		return nil, fmt.Errorf("failed to create community: %w", err)
	}

	// The creator is the first member and an admin.
	membership := &domain.Membership{
		CommunityID: community.ID,
		UserID:      userID,
		IsAdmin:     true,
	}
	if err := u.membershipRepo.Add(membership); err != nil {
		return nil, fmt.Errorf("failed to add creator membership: %w", err)
	}

	return community, nil
}

func (u *communityUsecase) List(userID string, page, size int) ([]dto.CommunityResponse, error) {
	communities, err := u.communityRepo.List(page, size)
	if err != nil {
		return nil, err
	}
	return u.toResponses(userID, communities)
}

// Search returns communities whose name or description fuzzy-matches the
// query, best matches first.
func (u *communityUsecase) Search(userID, query string) ([]dto.CommunityResponse, error) {
	communities, err := u.communityRepo.All()
	if err != nil {
		return nil, err
	}

	threshold := fuzzy.Threshold(query)
	type scored struct {
		community domain.Community
		score     float64
	}
	var matches []scored
	for _, community := range communities {
		if !fuzzy.Match(query, community.Name, threshold) &&
			!fuzzy.Match(query, community.Description, threshold) {
			continue
		}
		matches = append(matches, scored{
			community: community,
			score:     fuzzy.Score(query, community.Name, community.Description),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	results := make([]domain.Community, 0, len(matches))
	for _, m := range matches {
		results = append(results, m.community)
	}
	return u.toResponses(userID, results)
}

func (u *communityUsecase) Get(userID, communityID string) (*dto.CommunityResponse, error) {
	community, err := u.communityRepo.FindByID(communityID)
	if err != nil {
		return nil, err
	}
	if community == nil {
		return nil, ErrNotFound
	}
	responses, err := u.toResponses(userID, []domain.Community{*community})
	if err != nil {
		return nil, err
	}
	return &responses[0], nil
}

func (u *communityUsecase) Update(userID, communityID string, req dto.UpdateCommunityRequest) (*domain.Community, error) {
	community, err := u.communityRepo.FindByID(communityID)
	if err != nil {
		return nil, err
	}
	if community == nil {
		return nil, ErrNotFound
	}
	if community.CreatorID != userID {
		return nil, ErrForbidden
	}

	if req.Name != nil {
		community.Name = *req.Name
	}
	if req.Description != nil {
		community.Description = *req.Description
	}
	if req.AvatarURL != nil {
		community.AvatarURL = *req.AvatarURL
	}

	if err := u.communityRepo.Update(community); err != nil {
		return nil, fmt.Errorf("failed to update community: %w", err)
	}
	return community, nil
}

func (u *communityUsecase) Delete(userID, communityID string) error {
	community, err := u.communityRepo.FindByID(communityID)
	if err != nil {
		return err
	}
	if community == nil {
		return ErrNotFound
	}
	if community.CreatorID != userID {
		return ErrForbidden
	}

	if err := u.membershipRepo.RemoveAll(communityID); err != nil {
		return fmt.Errorf("failed to remove memberships: %w", err)
	}
	return u.communityRepo.Delete(communityID)
}

func (u *communityUsecase) Join(userID, communityID string) error {
	community, err := u.communityRepo.FindByID(communityID)
	if err != nil {
		return err
	}
	if community == nil {
		return ErrNotFound
	}
	return u.membershipRepo.Add(&domain.Membership{
		CommunityID: communityID,
		UserID:      userID,
	})
}

func (u *communityUsecase) Leave(userID, communityID string) error {
	return u.membershipRepo.Remove(communityID, userID)
}

func (u *communityUsecase) Members(communityID string) ([]dto.MemberResponse, error) {
	memberships, err := u.membershipRepo.Members(communityID)
	if err != nil {
		return nil, err
	}

	members := make([]dto.MemberResponse, 0, len(memberships))
	for _, membership := range memberships {
		member := dto.MemberResponse{
			UserID:  membership.UserID,
			IsAdmin: membership.IsAdmin,
			Online:  u.presence.IsOnline(membership.UserID),
		}
		if user, err := u.userRepo.FindByID(membership.UserID); err == nil && user != nil {
			member.Name = user.Name
			member.Email = user.Email
			member.AvatarURL = user.AvatarURL
		}
		members = append(members, member)
	}
	return members, nil
}

func (u *communityUsecase) Invite(ctx context.Context, inviterID, communityID string, req dto.InviteRequest) (*domain.Invite, error) {
	community, err := u.communityRepo.FindByID(communityID)
	if err != nil {
		return nil, err
	}
	if community == nil {
		return nil, ErrNotFound
	}

	member, err := u.membershipRepo.IsMember(communityID, inviterID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrForbidden
	}

	if already, err := u.membershipRepo.IsMember(communityID, req.InviteeID); err != nil {
		return nil, err
	} else if already {
		return nil, ErrAlreadyInvited
	}
	if pending, err := u.inviteRepo.FindPending(communityID, req.InviteeID); err != nil {
		return nil, err
	} else if pending != nil {
		return nil, ErrAlreadyInvited
	}

	invite := &domain.Invite{
		CommunityID: communityID,
		InviterID:   inviterID,
		InviteeID:   req.InviteeID,
	}
	if err := u.inviteRepo.Create(invite); err != nil {
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}

	// The invitee is not a member yet, so the notification is global scoped.
	_, err = u.dispatcher.Dispatch(ctx, notif.DispatchRequest{
		RecipientID: req.InviteeID,
		Title:       "Community invitation",
		Message:     fmt.Sprintf("You have been invited to join %s", community.Name),
		Type:        notifdomain.TypeInvite,
		Scope:       notifdomain.ScopeGlobal,
		SenderID:    inviterID,
		ReferenceID: invite.ID,
		Actionable:  true,
	})
	if err != nil {
		// The invite stands even if notifying failed.
		log.Printf("[Community] Failed to notify invitee %s: %v", req.InviteeID, err)
	}

	return invite, nil
}

func (u *communityUsecase) RespondInvite(ctx context.Context, userID, inviteID string, accept bool) error {
	invite, err := u.inviteRepo.FindByID(inviteID)
	if err != nil {
		return err
	}
	if invite == nil {
		return ErrNotFound
	}
	if invite.InviteeID != userID {
		return ErrForbidden
	}
	if invite.Status != domain.InvitePending {
		return ErrNotFound
	}

	if !accept {
		return u.inviteRepo.UpdateStatus(inviteID, domain.InviteDeclined)
	}

	if err := u.membershipRepo.Add(&domain.Membership{
		CommunityID: invite.CommunityID,
		UserID:      userID,
	}); err != nil {
		return fmt.Errorf("failed to join community: %w", err)
	}
	if err := u.inviteRepo.UpdateStatus(inviteID, domain.InviteAccepted); err != nil {
		return err
	}

	// Tell the inviter their invite landed.
	if user, err := u.userRepo.FindByID(userID); err == nil && user != nil {
		_, err = u.dispatcher.Dispatch(ctx, notif.DispatchRequest{
			RecipientID: invite.InviterID,
			Title:       "Invitation accepted",
			Message:     fmt.Sprintf("%s joined the community you invited them to", user.Name),
			Type:        notifdomain.TypeSystem,
			Scope:       notifdomain.ScopeGlobal,
			SenderID:    userID,
			ReferenceID: invite.ID,
		})
		if err != nil {
			log.Printf("[Community] Failed to notify inviter %s: %v", invite.InviterID, err)
		}
	}
	return nil
}

func (u *communityUsecase) ListInvites(userID string) ([]domain.Invite, error) {
	return u.inviteRepo.ListForInvitee(userID)
}

func (u *communityUsecase) toResponses(userID string, communities []domain.Community) ([]dto.CommunityResponse, error) {
	responses := make([]dto.CommunityResponse, 0, len(communities))
	for _, community := range communities {
		count, err := u.membershipRepo.CountMembers(community.ID)
		if err != nil {
			return nil, err
		}
		joined, err := u.membershipRepo.IsMember(community.ID, userID)
		if err != nil {
			return nil, err
		}
		responses = append(responses, dto.CommunityResponse{
			ID:          community.ID,
			Name:        community.Name,
			Description: community.Description,
			AvatarURL:   community.AvatarURL,
			CreatorID:   community.CreatorID,
			MemberCount: count,
			Joined:      joined,
		})
	}
	return responses, nil
}
