package api

import (
	authDelivery "commune-backend/internal/auth/delivery"
	authUsecase "commune-backend/internal/auth/usecase"
	communityDelivery "commune-backend/internal/community/delivery"
	friendDelivery "commune-backend/internal/friend/delivery"
	notifDelivery "commune-backend/internal/notification/delivery"
	presenceDelivery "commune-backend/internal/presence/delivery"
	"commune-backend/pkg/config"
	"commune-backend/pkg/ws"

	"github.com/gin-gonic/gin"
)

// Handler aggregates every delivery handler and runs the HTTP server.
type Handler struct {
	authUsecase      authUsecase.AuthUsecase
	wsManager        *ws.Manager
	config           *config.Config
	authHandler      *authDelivery.AuthHandler
	notifHandler     *notifDelivery.NotificationHandler
	presenceHandler  *presenceDelivery.PresenceHandler
	communityHandler *communityDelivery.CommunityHandler
	friendHandler    *friendDelivery.FriendHandler
}

// NewHandler creates the handler aggregate
func NewHandler(
	authUc authUsecase.AuthUsecase,
	wsManager *ws.Manager,
	cfg *config.Config,
	authHandler *authDelivery.AuthHandler,
	notifHandler *notifDelivery.NotificationHandler,
	presenceHandler *presenceDelivery.PresenceHandler,
	communityHandler *communityDelivery.CommunityHandler,
	friendHandler *friendDelivery.FriendHandler,
) *Handler {
	return &Handler{
		authUsecase:      authUc,
		wsManager:        wsManager,
		config:           cfg,
		authHandler:      authHandler,
		notifHandler:     notifHandler,
		presenceHandler:  presenceHandler,
		communityHandler: communityHandler,
		friendHandler:    friendHandler,
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()
	gin.SetMode(gin.ReleaseMode)

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h)

	return r.Run(addr)
}
