package api

import (
	"net/http"

	"commune-backend/internal/auth/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *Handler) {
	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Websocket endpoint: connecting registers a global-scope session
		api.GET("/ws", delivery.AuthMiddleware(h.authUsecase), func(c *gin.Context) {
			userID := c.GetString("userID")
			h.wsManager.ServeHTTP(c, userID)
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", h.authHandler.Login)
			auth.POST("/register", h.authHandler.Register)
			auth.POST("/google", h.authHandler.GoogleSignIn)
			auth.POST("/refresh", h.authHandler.RefreshToken)
			auth.GET("/me", delivery.AuthMiddleware(h.authUsecase), h.authHandler.Me)
			auth.PATCH("/me", delivery.AuthMiddleware(h.authUsecase), h.authHandler.UpdateProfile)
			auth.POST("/logout", h.authHandler.Logout)
		}

		// Device token routes (protected)
		devices := api.Group("/devices")
		devices.Use(delivery.AuthMiddleware(h.authUsecase))
		{
			devices.POST("/register", h.authHandler.RegisterDeviceToken)
			devices.DELETE("/:token", h.authHandler.UnregisterDeviceToken)
		}

		// Notification routes (protected)
		notifications := api.Group("/notifications")
		notifications.Use(delivery.AuthMiddleware(h.authUsecase))
		{
			notifications.GET("", h.notifHandler.List)
			notifications.GET("/unread-count", h.notifHandler.UnreadCount)
			notifications.PATCH("/:publicId/read", h.notifHandler.MarkRead)
			notifications.POST("/read-all", h.notifHandler.MarkAllRead)
		}

		// Presence routes (protected)
		presence := api.Group("/presence")
		presence.Use(delivery.AuthMiddleware(h.authUsecase))
		{
			presence.GET("/users/:userId", h.presenceHandler.UserStatus)
			presence.GET("/communities/:id", h.presenceHandler.CommunityStatus)
		}

		// Community routes (protected)
		communities := api.Group("/communities")
		communities.Use(delivery.AuthMiddleware(h.authUsecase))
		{
			communities.POST("", h.communityHandler.Create)
			communities.GET("", h.communityHandler.List)
			communities.GET("/:id", h.communityHandler.Get)
			communities.PATCH("/:id", h.communityHandler.Update)
			communities.DELETE("/:id", h.communityHandler.Delete)
			communities.POST("/:id/join", h.communityHandler.Join)
			communities.POST("/:id/leave", h.communityHandler.Leave)
			communities.GET("/:id/members", h.communityHandler.Members)
			communities.POST("/:id/invites", h.communityHandler.Invite)
		}

		// Invite routes (protected)
		invites := api.Group("/invites")
		invites.Use(delivery.AuthMiddleware(h.authUsecase))
		{
			invites.GET("", h.communityHandler.ListInvites)
			invites.POST("/:id/accept", h.communityHandler.AcceptInvite)
			invites.POST("/:id/decline", h.communityHandler.DeclineInvite)
		}

		// Friend routes (protected)
		friends := api.Group("/friends")
		friends.Use(delivery.AuthMiddleware(h.authUsecase))
		{
			friends.GET("", h.friendHandler.List)
			friends.DELETE("/:userId", h.friendHandler.Unfriend)
			friends.POST("/requests", h.friendHandler.SendRequest)
			friends.GET("/requests", h.friendHandler.PendingRequests)
			friends.POST("/requests/:id/accept", h.friendHandler.Accept)
			friends.POST("/requests/:id/decline", h.friendHandler.Decline)
		}
	}
}
