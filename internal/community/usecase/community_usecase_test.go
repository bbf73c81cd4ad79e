package usecase

import (
	"context"
	"testing"

	authdomain "commune-backend/internal/auth/domain"
	authrepo "commune-backend/internal/auth/repository"
	"commune-backend/internal/community/domain"
	"commune-backend/internal/community/dto"
	notifdomain "commune-backend/internal/notification/domain"
	notif "commune-backend/internal/notification/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCommunityRepo struct {
	byID map[string]*domain.Community
}

func (r *memCommunityRepo) Create(c *domain.Community) error {
	c.ID = uuid.New().String()
	copied := *c
	r.byID[c.ID] = &copied
	return nil
}

func (r *memCommunityRepo) FindByID(id string) (*domain.Community, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (r *memCommunityRepo) List(page, size int) ([]domain.Community, error) {
	return r.All()
}

func (r *memCommunityRepo) All() ([]domain.Community, error) {
	out := make([]domain.Community, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, *c)
	}
	return out, nil
}

func (r *memCommunityRepo) Update(c *domain.Community) error {
	copied := *c
	r.byID[c.ID] = &copied
	return nil
}

func (r *memCommunityRepo) Delete(id string) error {
	delete(r.byID, id)
	return nil
}

type memberKey struct{ communityID, userID string }

type memMembershipRepo struct {
	members map[memberKey]*domain.Membership
}

func (r *memMembershipRepo) Add(m *domain.Membership) error {
	key := memberKey{m.CommunityID, m.UserID}
	if _, ok := r.members[key]; ok {
		return nil
	}
	m.ID = uuid.New().String()
	copied := *m
	r.members[key] = &copied
	return nil
}

func (r *memMembershipRepo) Remove(communityID, userID string) error {
	delete(r.members, memberKey{communityID, userID})
	return nil
}

func (r *memMembershipRepo) RemoveAll(communityID string) error {
	for key := range r.members {
		if key.communityID == communityID {
			delete(r.members, key)
		}
	}
	return nil
}

func (r *memMembershipRepo) IsMember(communityID, userID string) (bool, error) {
	_, ok := r.members[memberKey{communityID, userID}]
	return ok, nil
}

func (r *memMembershipRepo) MemberIDs(communityID string) ([]string, error) {
	var ids []string
	for key := range r.members {
		if key.communityID == communityID {
			ids = append(ids, key.userID)
		}
	}
	return ids, nil
}

func (r *memMembershipRepo) Members(communityID string) ([]domain.Membership, error) {
	var out []domain.Membership
	for key, m := range r.members {
		if key.communityID == communityID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *memMembershipRepo) CountMembers(communityID string) (int64, error) {
	ids, _ := r.MemberIDs(communityID)
	return int64(len(ids)), nil
}

func (r *memMembershipRepo) CommunitiesOf(userID string) ([]string, error) {
	var ids []string
	for key := range r.members {
		if key.userID == userID {
			ids = append(ids, key.communityID)
		}
	}
	return ids, nil
}

type memInviteRepo struct {
	byID map[string]*domain.Invite
}

func (r *memInviteRepo) Create(i *domain.Invite) error {
	i.ID = uuid.New().String()
	if i.Status == "" {
		i.Status = domain.InvitePending
	}
	copied := *i
	r.byID[i.ID] = &copied
	return nil
}

func (r *memInviteRepo) FindByID(id string) (*domain.Invite, error) {
	i, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *i
	return &copied, nil
}

func (r *memInviteRepo) FindPending(communityID, inviteeID string) (*domain.Invite, error) {
	for _, i := range r.byID {
		if i.CommunityID == communityID && i.InviteeID == inviteeID && i.Status == domain.InvitePending {
			copied := *i
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memInviteRepo) UpdateStatus(id, status string) error {
	if i, ok := r.byID[id]; ok {
		i.Status = status
	}
	return nil
}

func (r *memInviteRepo) ListForInvitee(inviteeID string) ([]domain.Invite, error) {
	var out []domain.Invite
	for _, i := range r.byID {
		if i.InviteeID == inviteeID && i.Status == domain.InvitePending {
			out = append(out, *i)
		}
	}
	return out, nil
}

type memUserRepo struct {
	authrepo.UserRepository
	users map[string]*authdomain.User
}

func (r *memUserRepo) FindByID(id string) (*authdomain.User, error) {
	return r.users[id], nil
}

type recordingDispatcher struct {
	requests []notif.DispatchRequest
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, req notif.DispatchRequest) (notif.DispatchOutcome, error) {
	d.requests = append(d.requests, req)
	return notif.DispatchOutcome{Recipients: 1, Persisted: 1}, nil
}

type stubPresence struct {
	online map[string]bool
}

func (s *stubPresence) IsOnline(userID string) bool { return s.online[userID] }

type communityFixture struct {
	uc         CommunityUsecase
	dispatcher *recordingDispatcher
}

func newCommunityFixture() *communityFixture {
	dispatcher := &recordingDispatcher{}
	uc := NewCommunityUsecase(
		&memCommunityRepo{byID: map[string]*domain.Community{}},
		&memMembershipRepo{members: map[memberKey]*domain.Membership{}},
		&memInviteRepo{byID: map[string]*domain.Invite{}},
		&memUserRepo{users: map[string]*authdomain.User{
			"user-1": {ID: "user-1", Name: "Ada"},
			"user-2": {ID: "user-2", Name: "Grace"},
		}},
		dispatcher,
		&stubPresence{online: map[string]bool{}},
	)
	return &communityFixture{uc: uc, dispatcher: dispatcher}
}

func TestCreateMakesCreatorAdmin(t *testing.T) {
	f := newCommunityFixture()

	community, err := f.uc.Create(context.Background(), "user-1", dto.CreateCommunityRequest{Name: "Gophers"})
	require.NoError(t, err)
	require.NotEmpty(t, community.ID)
	assert.Equal(t, "user-1", community.CreatorID)

	members, err := f.uc.Members(community.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "user-1", members[0].UserID)
	assert.True(t, members[0].IsAdmin)
}

func TestOnlyCreatorMutates(t *testing.T) {
	f := newCommunityFixture()

	community, err := f.uc.Create(context.Background(), "user-1", dto.CreateCommunityRequest{Name: "Gophers"})
	require.NoError(t, err)

	newName := "Pythonistas"
	_, err = f.uc.Update("user-2", community.ID, dto.UpdateCommunityRequest{Name: &newName})
	require.ErrorIs(t, err, ErrForbidden)

	require.ErrorIs(t, f.uc.Delete("user-2", community.ID), ErrForbidden)

	updated, err := f.uc.Update("user-1", community.ID, dto.UpdateCommunityRequest{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "Pythonistas", updated.Name)
}

func TestJoinLeave(t *testing.T) {
	f := newCommunityFixture()

	community, err := f.uc.Create(context.Background(), "user-1", dto.CreateCommunityRequest{Name: "Gophers"})
	require.NoError(t, err)

	require.NoError(t, f.uc.Join("user-2", community.ID))
	members, _ := f.uc.Members(community.ID)
	assert.Len(t, members, 2)

	require.NoError(t, f.uc.Leave("user-2", community.ID))
	members, _ = f.uc.Members(community.ID)
	assert.Len(t, members, 1)

	require.ErrorIs(t, f.uc.Join("user-2", "no-such-community"), ErrNotFound)
}

func TestInviteDispatchesNotification(t *testing.T) {
	f := newCommunityFixture()

	community, err := f.uc.Create(context.Background(), "user-1", dto.CreateCommunityRequest{Name: "Gophers"})
	require.NoError(t, err)

	invite, err := f.uc.Invite(context.Background(), "user-1", community.ID, dto.InviteRequest{InviteeID: "user-2"})
	require.NoError(t, err)
	require.NotEmpty(t, invite.ID)
	assert.Equal(t, domain.InvitePending, invite.Status)

	require.Len(t, f.dispatcher.requests, 1)
	req := f.dispatcher.requests[0]
	assert.Equal(t, "user-2", req.RecipientID)
	assert.Equal(t, notifdomain.TypeInvite, req.Type)
	assert.Equal(t, invite.ID, req.ReferenceID)
	assert.True(t, req.Actionable)

	// A second pending invite for the same user is rejected.
	_, err = f.uc.Invite(context.Background(), "user-1", community.ID, dto.InviteRequest{InviteeID: "user-2"})
	require.ErrorIs(t, err, ErrAlreadyInvited)
}

func TestInviteRequiresMembership(t *testing.T) {
	f := newCommunityFixture()

	community, err := f.uc.Create(context.Background(), "user-1", dto.CreateCommunityRequest{Name: "Gophers"})
	require.NoError(t, err)

	_, err = f.uc.Invite(context.Background(), "user-2", community.ID, dto.InviteRequest{InviteeID: "user-3"})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestAcceptInviteJoins(t *testing.T) {
	f := newCommunityFixture()

	community, err := f.uc.Create(context.Background(), "user-1", dto.CreateCommunityRequest{Name: "Gophers"})
	require.NoError(t, err)

	invite, err := f.uc.Invite(context.Background(), "user-1", community.ID, dto.InviteRequest{InviteeID: "user-2"})
	require.NoError(t, err)

	// Only the invitee may respond.
	require.ErrorIs(t, f.uc.RespondInvite(context.Background(), "user-1", invite.ID, true), ErrForbidden)

	require.NoError(t, f.uc.RespondInvite(context.Background(), "user-2", invite.ID, true))
	members, _ := f.uc.Members(community.ID)
	assert.Len(t, members, 2)

	// The inviter gets told, and a settled invite cannot be replayed.
	require.Len(t, f.dispatcher.requests, 2)
	assert.Equal(t, "user-1", f.dispatcher.requests[1].RecipientID)
	require.ErrorIs(t, f.uc.RespondInvite(context.Background(), "user-2", invite.ID, true), ErrNotFound)
}

func TestDeclineInviteDoesNotJoin(t *testing.T) {
	f := newCommunityFixture()

	community, err := f.uc.Create(context.Background(), "user-1", dto.CreateCommunityRequest{Name: "Gophers"})
	require.NoError(t, err)

	invite, err := f.uc.Invite(context.Background(), "user-1", community.ID, dto.InviteRequest{InviteeID: "user-2"})
	require.NoError(t, err)

	require.NoError(t, f.uc.RespondInvite(context.Background(), "user-2", invite.ID, false))
	members, _ := f.uc.Members(community.ID)
	assert.Len(t, members, 1)
}

func TestSearchRanksByRelevance(t *testing.T) {
	f := newCommunityFixture()

	_, err := f.uc.Create(context.Background(), "user-1", dto.CreateCommunityRequest{Name: "Gopher Club"})
	require.NoError(t, err)
	_, err = f.uc.Create(context.Background(), "user-1", dto.CreateCommunityRequest{Name: "Chess Club", Description: "for gopher lovers too"})
	require.NoError(t, err)
	_, err = f.uc.Create(context.Background(), "user-1", dto.CreateCommunityRequest{Name: "Knitting Circle"})
	require.NoError(t, err)

	results, err := f.uc.Search("user-1", "gopher")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Gopher Club", results[0].Name, "name matches rank above description matches")
	assert.Equal(t, "Chess Club", results[1].Name)
}
