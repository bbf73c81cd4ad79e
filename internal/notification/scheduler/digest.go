package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	authrepo "commune-backend/internal/auth/repository"
	"commune-backend/internal/notification/repository"
	"commune-backend/pkg/fcm"
)

// Pusher sends device pushes. Implemented by the FCM client.
type Pusher interface {
	SendToDevices(ctx context.Context, tokens []string, push fcm.PushData) ([]string, error)
}

// PresenceSource answers whether a user currently has a live session.
// Implemented by the presence directory.
type PresenceSource interface {
	IsOnline(userID string) bool
}

// DigestScheduler periodically reminds users about unread notifications
// via device push. Users with a live session are skipped: they already
// see the in-app badge.
type DigestScheduler struct {
	notifRepo  repository.NotificationRepository
	deviceRepo authrepo.DeviceTokenRepository
	pusher     Pusher
	presence   PresenceSource
	interval   time.Duration
	stopChan   chan struct{}

	// lastPushed remembers the unread count at the last digest per user,
	// so an unchanged count does not trigger a repeat push.
	lastPushed map[string]int64
}

// NewDigestScheduler creates a new scheduler
func NewDigestScheduler(
	notifRepo repository.NotificationRepository,
	deviceRepo authrepo.DeviceTokenRepository,
	pusher Pusher,
	presence PresenceSource,
	interval time.Duration,
) *DigestScheduler {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &DigestScheduler{
		notifRepo:  notifRepo,
		deviceRepo: deviceRepo,
		pusher:     pusher,
		presence:   presence,
		interval:   interval,
		stopChan:   make(chan struct{}),
		lastPushed: make(map[string]int64),
	}
}

// Start begins the scheduler loop
func (s *DigestScheduler) Start() {
	if s.pusher == nil {
		log.Println("[Digest] FCM client not available, digest scheduler disabled")
		return
	}

	log.Printf("[Digest] Starting unread digest scheduler (interval: %s)", s.interval)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.pushDigests()
			case <-s.stopChan:
				log.Println("[Digest] Scheduler stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the scheduler
func (s *DigestScheduler) Stop() {
	close(s.stopChan)
}

// pushDigests finds users with new unread notifications and no live
// session and sends them a device push.
func (s *DigestScheduler) pushDigests() {
	counts, err := s.notifRepo.UnreadByUser()
	if err != nil {
		log.Printf("[Digest] Error loading unread counts: %v", err)
		return
	}

	// Forget users who no longer have unread notifications, so a count
	// that later climbs back to a remembered value still gets a digest
	// and the map does not grow without bound.
	seen := make(map[string]bool, len(counts))
	for _, unread := range counts {
		seen[unread.RecipientID] = true
	}
	for id := range s.lastPushed {
		if !seen[id] {
			delete(s.lastPushed, id)
		}
	}

	for _, unread := range counts {
		if s.presence.IsOnline(unread.RecipientID) {
			continue
		}
		if s.lastPushed[unread.RecipientID] == unread.Count {
			continue
		}

		tokens, err := s.deviceRepo.GetTokensByUserID(unread.RecipientID)
		if err != nil {
			log.Printf("[Digest] Error getting device tokens for user %s: %v", unread.RecipientID, err)
			continue
		}
		if len(tokens) == 0 {
			s.lastPushed[unread.RecipientID] = unread.Count
			continue
		}

		tokenStrings := make([]string, 0, len(tokens))
		for _, t := range tokens {
			tokenStrings = append(tokenStrings, t.Token)
		}

		body := fmt.Sprintf("You have %d unread notifications", unread.Count)
		if unread.Count == 1 {
			body = "You have 1 unread notification"
		}

		push := fcm.PushData{
			Title: "Commune",
			Body:  body,
			Data: map[string]string{
				"type":         "digest",
				"unread":       fmt.Sprintf("%d", unread.Count),
				"click_action": "/notifications",
			},
		}

		failedTokens, err := s.pusher.SendToDevices(context.Background(), tokenStrings, push)
		if err != nil {
			log.Printf("[Digest] Error sending digest to user %s: %v", unread.RecipientID, err)
			continue
		}
		for _, token := range failedTokens {
			if err := s.deviceRepo.DeleteToken(token); err != nil {
				log.Printf("[Digest] Failed to prune device token: %v", err)
			}
		}

		s.lastPushed[unread.RecipientID] = unread.Count
	}
}
