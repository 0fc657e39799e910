package main

import (
	"github.com/gin-gonic/gin"
	"github.com/thereayou/gatherly/internal/handlers"
	"github.com/thereayou/gatherly/internal/middleware"
	"github.com/thereayou/gatherly/pkg/auth"
)

type Handlers struct {
	Auth   *handlers.AuthHandler
	Chat   *handlers.ChatHandler
	Events *handlers.EventHandler
	Notice *handlers.NoticeHandler
	User   *handlers.UserHandler
	WS     *handlers.WebSocketHandler
	Health *handlers.HealthHandler
}

func APIEndpoints(r *gin.Engine, jwtMgr *auth.JWTManager, blacklist auth.Blacklist, h Handlers) {
	r.GET("/health", h.Health.Health)

	requireAuth := middleware.AuthMiddleware(jwtMgr, blacklist)

	// Auth endpoints
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/logout", requireAuth, h.Auth.Logout)
	}

	r.GET("/ws", middleware.WSAuthMiddleware(jwtMgr, blacklist), h.WS.HandleWebSocket)

	// API endpoints
	api := r.Group("/api/v1", requireAuth)
	{
		chat := api.Group("/chat")
		chat.POST("/send", h.Chat.Send)
		chat.GET("/list", h.Chat.ChatList)
		chat.GET("/:peerId", h.Chat.History)
		chat.POST("/:messageId/read", h.Chat.MarkRead)

		events := api.Group("/events")
		events.POST("", h.Events.Create)
		events.GET("", h.Events.List)
		events.GET("/nearest", h.Events.Nearest)
		events.GET("/:id", h.Events.Get)
		events.PUT("/:id", h.Events.Update)
		events.DELETE("/:id", h.Events.Delete)
		events.POST("/:id/join", h.Events.Join)
		events.POST("/:id/withdraw", h.Events.Withdraw)

		notices := api.Group("/notices")
		notices.GET("", h.Notice.List)
		notices.POST("", h.Notice.Create)

		users := api.Group("/users")
		users.GET("/me", h.User.GetMe)
		users.PUT("/me", h.User.UpdateMe)
		users.GET("/me/events", h.User.MyEvents)
	}
}
