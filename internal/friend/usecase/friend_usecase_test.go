package usecase

import (
	"context"
	"testing"

	authdomain "commune-backend/internal/auth/domain"
	authrepo "commune-backend/internal/auth/repository"
	"commune-backend/internal/friend/domain"
	notifdomain "commune-backend/internal/notification/domain"
	notif "commune-backend/internal/notification/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memFriendRepo struct {
	byID map[string]*domain.FriendRequest
}

func (r *memFriendRepo) Create(req *domain.FriendRequest) error {
	req.ID = uuid.New().String()
	if req.Status == "" {
		req.Status = domain.RequestPending
	}
	copied := *req
	r.byID[req.ID] = &copied
	return nil
}

func (r *memFriendRepo) FindByID(id string) (*domain.FriendRequest, error) {
	req, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *req
	return &copied, nil
}

func (r *memFriendRepo) FindBetween(userA, userB string) (*domain.FriendRequest, error) {
	for _, req := range r.byID {
		pair := (req.SenderID == userA && req.RecipientID == userB) ||
			(req.SenderID == userB && req.RecipientID == userA)
		if pair && req.Status != domain.RequestDeclined {
			copied := *req
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memFriendRepo) UpdateStatus(id, status string) error {
	if req, ok := r.byID[id]; ok {
		req.Status = status
	}
	return nil
}

func (r *memFriendRepo) PendingFor(recipientID string) ([]domain.FriendRequest, error) {
	var out []domain.FriendRequest
	for _, req := range r.byID {
		if req.RecipientID == recipientID && req.Status == domain.RequestPending {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *memFriendRepo) FriendIDs(userID string) ([]string, error) {
	var ids []string
	for _, req := range r.byID {
		if req.Status != domain.RequestAccepted {
			continue
		}
		switch userID {
		case req.SenderID:
			ids = append(ids, req.RecipientID)
		case req.RecipientID:
			ids = append(ids, req.SenderID)
		}
	}
	return ids, nil
}

func (r *memFriendRepo) Unfriend(userA, userB string) error {
	for id, req := range r.byID {
		pair := (req.SenderID == userA && req.RecipientID == userB) ||
			(req.SenderID == userB && req.RecipientID == userA)
		if pair && req.Status == domain.RequestAccepted {
			delete(r.byID, id)
		}
	}
	return nil
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

type friendFixture struct {
	uc         FriendUsecase
	dispatcher *recordingDispatcher
	presence   *stubPresence
}

func newFriendFixture() *friendFixture {
	dispatcher := &recordingDispatcher{}
	presence := &stubPresence{online: map[string]bool{}}
	uc := NewFriendUsecase(
		&memFriendRepo{byID: map[string]*domain.FriendRequest{}},
		&memUserRepo{users: map[string]*authdomain.User{
			"user-1": {ID: "user-1", Name: "Ada"},
			"user-2": {ID: "user-2", Name: "Grace"},
		}},
		dispatcher,
		presence,
	)
	return &friendFixture{uc: uc, dispatcher: dispatcher, presence: presence}
}

func TestSendRequestNotifiesRecipient(t *testing.T) {
	f := newFriendFixture()

	request, err := f.uc.SendRequest(context.Background(), "user-1", "user-2")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestPending, request.Status)

	require.Len(t, f.dispatcher.requests, 1)
	notification := f.dispatcher.requests[0]
	assert.Equal(t, "user-2", notification.RecipientID)
	assert.Equal(t, notifdomain.TypeFriendRequest, notification.Type)
	assert.Equal(t, request.ID, notification.ReferenceID)
	assert.True(t, notification.Actionable)
	assert.Contains(t, notification.Message, "Ada")
}

func TestSendRequestGuards(t *testing.T) {
	f := newFriendFixture()

	_, err := f.uc.SendRequest(context.Background(), "user-1", "user-1")
	require.ErrorIs(t, err, ErrSelfRequest)

	_, err = f.uc.SendRequest(context.Background(), "user-1", "ghost")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.uc.SendRequest(context.Background(), "user-1", "user-2")
	require.NoError(t, err)

	// Duplicates in either direction are rejected while one is pending.
	_, err = f.uc.SendRequest(context.Background(), "user-1", "user-2")
	require.ErrorIs(t, err, ErrAlreadyLinked)
	_, err = f.uc.SendRequest(context.Background(), "user-2", "user-1")
	require.ErrorIs(t, err, ErrAlreadyLinked)
}

func TestAcceptMakesFriends(t *testing.T) {
	f := newFriendFixture()
	f.presence.online["user-1"] = true

	request, err := f.uc.SendRequest(context.Background(), "user-1", "user-2")
	require.NoError(t, err)

	// Only the recipient may respond.
	require.ErrorIs(t, f.uc.Respond(context.Background(), "user-1", request.ID, true), ErrForbidden)

	require.NoError(t, f.uc.Respond(context.Background(), "user-2", request.ID, true))

	friends, err := f.uc.Friends("user-1")
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "user-2", friends[0].UserID)
	assert.Equal(t, "Grace", friends[0].Name)
	assert.False(t, friends[0].Online)

	friends, err = f.uc.Friends("user-2")
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "user-1", friends[0].UserID)
	assert.True(t, friends[0].Online)

	// The sender got an acceptance notification.
	require.Len(t, f.dispatcher.requests, 2)
	assert.Equal(t, "user-1", f.dispatcher.requests[1].RecipientID)

	// A settled request cannot be replayed.
	require.ErrorIs(t, f.uc.Respond(context.Background(), "user-2", request.ID, true), ErrNotFound)
}

func TestDeclineLeavesNoFriendship(t *testing.T) {
	f := newFriendFixture()

	request, err := f.uc.SendRequest(context.Background(), "user-1", "user-2")
	require.NoError(t, err)

	require.NoError(t, f.uc.Respond(context.Background(), "user-2", request.ID, false))

	friends, err := f.uc.Friends("user-1")
	require.NoError(t, err)
	assert.Empty(t, friends)

	// Declined requests do not block trying again.
	_, err = f.uc.SendRequest(context.Background(), "user-1", "user-2")
	require.NoError(t, err)
}

func TestUnfriend(t *testing.T) {
	f := newFriendFixture()

	request, err := f.uc.SendRequest(context.Background(), "user-1", "user-2")
	require.NoError(t, err)
	require.NoError(t, f.uc.Respond(context.Background(), "user-2", request.ID, true))

	require.NoError(t, f.uc.Unfriend("user-1", "user-2"))

	friends, err := f.uc.Friends("user-2")
	require.NoError(t, err)
	assert.Empty(t, friends)
}

func TestPendingRequests(t *testing.T) {
	f := newFriendFixture()

	_, err := f.uc.SendRequest(context.Background(), "user-1", "user-2")
	require.NoError(t, err)

	pending, err := f.uc.PendingRequests("user-2")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "user-1", pending[0].SenderID)

	pending, err = f.uc.PendingRequests("user-1")
	require.NoError(t, err)
	assert.Empty(t, pending)
}
