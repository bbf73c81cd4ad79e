package main

import (
	"context"
	"log"

	api "commune-backend/cmd/api"
	authDelivery "commune-backend/internal/auth/delivery"
	authdomain "commune-backend/internal/auth/domain"
	authRepo "commune-backend/internal/auth/repository"
	authUsecase "commune-backend/internal/auth/usecase"
	communityDelivery "commune-backend/internal/community/delivery"
	communitydomain "commune-backend/internal/community/domain"
	communityRepo "commune-backend/internal/community/repository"
	communityUsecase "commune-backend/internal/community/usecase"
	friendDelivery "commune-backend/internal/friend/delivery"
	frienddomain "commune-backend/internal/friend/domain"
	friendRepo "commune-backend/internal/friend/repository"
	friendUsecase "commune-backend/internal/friend/usecase"
	notifDelivery "commune-backend/internal/notification/delivery"
	notifdomain "commune-backend/internal/notification/domain"
	notifRepo "commune-backend/internal/notification/repository"
	"commune-backend/internal/notification/scheduler"
	notifUsecase "commune-backend/internal/notification/usecase"
	"commune-backend/internal/presence"
	presenceDelivery "commune-backend/internal/presence/delivery"
	"commune-backend/pkg/config"
	"commune-backend/pkg/database"
	"commune-backend/pkg/eventbridge"
	"commune-backend/pkg/fcm"
	"commune-backend/pkg/ws"
)

// sessionAdapter feeds gateway lifecycle events into the presence
// directory, discarding the removed binding the directory reports.
type sessionAdapter struct {
	directory *presence.Directory
}

func (a *sessionAdapter) Enter(connectionID, userID, communityID string) error {
	return a.directory.Enter(connectionID, userID, communityID)
}

func (a *sessionAdapter) Leave(connectionID string) {
	a.directory.Leave(connectionID)
}

// localDeliverer fans a relayed event out to this instance's live
// sessions of the target user.
type localDeliverer struct {
	registry  *presence.Registry
	wsManager *ws.Manager
}

func (d *localDeliverer) DeliverToUser(userID, event string, payload interface{}) {
	for _, session := range d.registry.SessionsOf(userID) {
		// Sessions that raced away are skipped silently.
		_ = d.wsManager.Push(session.ConnectionID, event, payload)
	}
}

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&authdomain.User{},
		&authdomain.RefreshToken{},
		&authdomain.DeviceToken{},
		&notifdomain.Notification{},
		&communitydomain.Community{},
		&communitydomain.Membership{},
		&communitydomain.Invite{},
		&frienddomain.FriendRequest{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	userRepo := authRepo.NewUserRepository(db)
	deviceRepo := authRepo.NewDeviceTokenRepository(db)
	notificationRepo := notifRepo.NewNotificationRepository(db)
	communityRepository := communityRepo.NewCommunityRepository(db)
	membershipRepo := communityRepo.NewMembershipRepository(db)
	inviteRepo := communityRepo.NewInviteRepository(db)
	friendRepository := friendRepo.NewFriendRepository(db)

	// Presence core: registry holds the sessions, the directory is the
	// read view the rest of the app consumes.
	registry := presence.NewRegistry()
	directory := presence.NewDirectory(registry)

	// Websocket gateway feeds session lifecycle into the directory.
	wsManager := ws.NewManager(&sessionAdapter{directory: directory}, cfg.WSSendBuffer)

	// Presence transitions are broadcast to the affected scope's live
	// sessions, best effort.
	directory.OnPresenceChange(func(t presence.Transition) {
		payload := map[string]interface{}{
			"user_id": t.UserID,
			"online":  t.Online,
		}
		if t.CommunityID != "" {
			payload["community_id"] = t.CommunityID
		}
		for _, session := range registry.SessionsInScope(t.CommunityID) {
			if session.UserID == t.UserID {
				continue
			}
			_ = wsManager.Push(session.ConnectionID, "presence", payload)
		}
	})

	// Membership resolver the dispatcher consumes.
	resolver := communityRepo.NewResolver(communityRepository, membershipRepo)

	// Notification dispatcher with optional collaborators wired below.
	dispatcher := notifUsecase.NewDispatcher(notificationRepo, userRepo, resolver, registry, wsManager)

	// Initialize FCM client (optional, everything works without it)
	var fcmClient *fcm.Client
	if cfg.FirebaseCredentials != "" {
		fcmClient, err = fcm.NewClient(cfg.FirebaseCredentials)
		if err != nil {
			log.Printf("[WARN] Failed to initialize FCM client (push notifications disabled): %v", err)
			fcmClient = nil
		} else {
			dispatcher.SetOfflinePush(fcmClient, deviceRepo)
			log.Println("[Main] FCM client initialized")
		}
	} else {
		log.Println("[Main] No Firebase credentials configured, FCM disabled")
	}

	// Initialize the Pub/Sub event bridge for multi-instance fan-out.
	// Only start if project ID is configured.
	if cfg.GoogleProjectID != "" {
		bridge, err := eventbridge.New(context.Background(), cfg.GoogleProjectID, cfg.PubSubTopic, cfg.GoogleCredentials)
		if err != nil {
			log.Printf("[ERROR] Failed to initialize event bridge: %v", err)
		} else {
			dispatcher.SetRelay(bridge)
			go bridge.Start(context.Background(), &localDeliverer{registry: registry, wsManager: wsManager})
			log.Println("[Main] Event bridge started")
		}
	} else {
		log.Println("[Main] GoogleProjectID not configured, event bridge disabled")
	}

	// Initialize use cases (dependency injection)
	authUc := authUsecase.NewAuthUsecase(userRepo, cfg)
	notifUc := notifUsecase.NewNotificationUsecase(notificationRepo, userRepo, resolver)
	communityUc := communityUsecase.NewCommunityUsecase(communityRepository, membershipRepo, inviteRepo, userRepo, dispatcher, directory)
	friendUc := friendUsecase.NewFriendUsecase(friendRepository, userRepo, dispatcher, directory)

	// Unread digest pushes for users with no live session. A nil *fcm.Client
	// must stay a nil interface so the scheduler sees it as disabled.
	var digestPusher scheduler.Pusher
	if fcmClient != nil {
		digestPusher = fcmClient
	}
	digest := scheduler.NewDigestScheduler(notificationRepo, deviceRepo, digestPusher, directory, cfg.DigestInterval)
	digest.Start()

	// Initialize HTTP handlers
	handler := api.NewHandler(
		authUc,
		wsManager,
		cfg,
		authDelivery.NewAuthHandler(authUc, deviceRepo),
		notifDelivery.NewNotificationHandler(notifUc),
		presenceDelivery.NewPresenceHandler(directory),
		communityDelivery.NewCommunityHandler(communityUc),
		friendDelivery.NewFriendHandler(friendUc),
	)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
