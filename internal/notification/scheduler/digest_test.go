package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authdomain "commune-backend/internal/auth/domain"
	"commune-backend/internal/notification/domain"
	"commune-backend/internal/notification/repository"
	"commune-backend/pkg/fcm"
)

type fakeDigestNotifRepo struct {
	counts []repository.UnreadCount
}

func (r *fakeDigestNotifRepo) Create(*domain.Notification) error    { return nil }
func (r *fakeDigestNotifRepo) MarkRead(string, string) error        { return nil }
func (r *fakeDigestNotifRepo) MarkAllRead(string) error             { return nil }
func (r *fakeDigestNotifRepo) CountUnread(string) (int64, error)    { return 0, nil }
func (r *fakeDigestNotifRepo) ListForUser(string, string, int, int) ([]domain.Notification, error) {
	return nil, nil
}
func (r *fakeDigestNotifRepo) UnreadByUser() ([]repository.UnreadCount, error) {
	return r.counts, nil
}

type fakeDigestDeviceRepo struct {
	tokens  map[string][]authdomain.DeviceToken
	deleted []string
}

func (r *fakeDigestDeviceRepo) SaveToken(string, string, string) error { return nil }
func (r *fakeDigestDeviceRepo) GetTokensByUserID(userID string) ([]authdomain.DeviceToken, error) {
	return r.tokens[userID], nil
}
func (r *fakeDigestDeviceRepo) DeleteToken(token string) error {
	r.deleted = append(r.deleted, token)
	return nil
}
func (r *fakeDigestDeviceRepo) DeleteTokensByUserID(string) error { return nil }

type pushCall struct {
	tokens []string
	push   fcm.PushData
}

type fakeDigestPusher struct {
	calls  []pushCall
	failed []string
}

func (p *fakeDigestPusher) SendToDevices(_ context.Context, tokens []string, push fcm.PushData) ([]string, error) {
	p.calls = append(p.calls, pushCall{tokens: tokens, push: push})
	return p.failed, nil
}

type fakePresenceSource struct {
	online map[string]bool
}

func (p *fakePresenceSource) IsOnline(userID string) bool { return p.online[userID] }

func newDigestFixture() (*DigestScheduler, *fakeDigestNotifRepo, *fakeDigestDeviceRepo, *fakeDigestPusher, *fakePresenceSource) {
	notifRepo := &fakeDigestNotifRepo{}
	deviceRepo := &fakeDigestDeviceRepo{tokens: map[string][]authdomain.DeviceToken{}}
	pusher := &fakeDigestPusher{}
	presence := &fakePresenceSource{online: map[string]bool{}}
	s := NewDigestScheduler(notifRepo, deviceRepo, pusher, presence, 0)
	return s, notifRepo, deviceRepo, pusher, presence
}

func TestDigestPushesToOfflineUser(t *testing.T) {
	s, notifRepo, deviceRepo, pusher, _ := newDigestFixture()
	notifRepo.counts = []repository.UnreadCount{{RecipientID: "user-1", Count: 3}}
	deviceRepo.tokens["user-1"] = []authdomain.DeviceToken{{Token: "tok-a"}, {Token: "tok-b"}}

	s.pushDigests()

	require.Len(t, pusher.calls, 1)
	assert.Equal(t, []string{"tok-a", "tok-b"}, pusher.calls[0].tokens)
	assert.Equal(t, "You have 3 unread notifications", pusher.calls[0].push.Body)
	assert.Equal(t, "digest", pusher.calls[0].push.Data["type"])
}

func TestDigestSkipsOnlineUser(t *testing.T) {
	s, notifRepo, deviceRepo, pusher, presence := newDigestFixture()
	notifRepo.counts = []repository.UnreadCount{{RecipientID: "user-1", Count: 3}}
	deviceRepo.tokens["user-1"] = []authdomain.DeviceToken{{Token: "tok-a"}}
	presence.online["user-1"] = true

	s.pushDigests()

	assert.Empty(t, pusher.calls)
}

func TestDigestSuppressesUnchangedCount(t *testing.T) {
	s, notifRepo, deviceRepo, pusher, _ := newDigestFixture()
	notifRepo.counts = []repository.UnreadCount{{RecipientID: "user-1", Count: 3}}
	deviceRepo.tokens["user-1"] = []authdomain.DeviceToken{{Token: "tok-a"}}

	s.pushDigests()
	s.pushDigests()

	assert.Len(t, pusher.calls, 1, "an unchanged count must not repeat the push")
}

func TestDigestResendsAfterUserCatchesUp(t *testing.T) {
	s, notifRepo, deviceRepo, pusher, _ := newDigestFixture()
	deviceRepo.tokens["user-1"] = []authdomain.DeviceToken{{Token: "tok-a"}}

	// First sweep: three unread, digest sent.
	notifRepo.counts = []repository.UnreadCount{{RecipientID: "user-1", Count: 3}}
	s.pushDigests()
	require.Len(t, pusher.calls, 1)

	// The user reads everything and drops out of the unread report.
	notifRepo.counts = nil
	s.pushDigests()
	assert.NotContains(t, s.lastPushed, "user-1", "caught-up users must be forgotten")

	// Three new notifications arrive. The count matches the old one, but
	// it is fresh unread activity and must produce a new digest.
	notifRepo.counts = []repository.UnreadCount{{RecipientID: "user-1", Count: 3}}
	s.pushDigests()
	assert.Len(t, pusher.calls, 2)
}

func TestDigestPushesWhenCountGrows(t *testing.T) {
	s, notifRepo, deviceRepo, pusher, _ := newDigestFixture()
	deviceRepo.tokens["user-1"] = []authdomain.DeviceToken{{Token: "tok-a"}}

	notifRepo.counts = []repository.UnreadCount{{RecipientID: "user-1", Count: 2}}
	s.pushDigests()
	notifRepo.counts = []repository.UnreadCount{{RecipientID: "user-1", Count: 5}}
	s.pushDigests()

	require.Len(t, pusher.calls, 2)
	assert.Equal(t, "You have 5 unread notifications", pusher.calls[1].push.Body)
}

func TestDigestPrunesFailedTokens(t *testing.T) {
	s, notifRepo, deviceRepo, pusher, _ := newDigestFixture()
	notifRepo.counts = []repository.UnreadCount{{RecipientID: "user-1", Count: 1}}
	deviceRepo.tokens["user-1"] = []authdomain.DeviceToken{{Token: "tok-a"}, {Token: "tok-stale"}}
	pusher.failed = []string{"tok-stale"}

	s.pushDigests()

	assert.Equal(t, []string{"tok-stale"}, deviceRepo.deleted)
}

func TestDigestRecordsUserWithoutTokens(t *testing.T) {
	s, notifRepo, _, pusher, _ := newDigestFixture()
	notifRepo.counts = []repository.UnreadCount{{RecipientID: "user-1", Count: 4}}

	s.pushDigests()

	assert.Empty(t, pusher.calls)
	assert.Equal(t, int64(4), s.lastPushed["user-1"], "tokenless users are recorded so the sweep stays cheap")
}
