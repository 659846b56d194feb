package routes

import (
	"net/http"
	"time"

	"realtime-threads/internal/api/handlers"
	"realtime-threads/internal/api/middleware"
	"realtime-threads/internal/service"
	"realtime-threads/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the services the HTTP surface is built on.
type Dependencies struct {
	Hub             *websocket.Hub
	Identity        service.IdentityService
	Users           service.UserService
	Chat            service.ChatService
	Notifications   service.NotificationService
	Threads         service.ThreadService
	RateLimiter     service.RateLimitService
	Uploader        handlers.ImageUploader
	MetricsGatherer prometheus.Gatherer
	AllowedOrigins  []string
	HealthCheck     func() error
}

type Router struct {
	engine              *gin.Engine
	deps                Dependencies
	wsHandler           *handlers.WSHandler
	userHandler         *handlers.UserHandler
	chatHandler         *handlers.ChatHandler
	notificationHandler *handlers.NotificationHandler
	threadHandler       *handlers.ThreadHandler
	uploadHandler       *handlers.UploadHandler
	rateLimitMW         *middleware.RateLimitMiddleware
	authMW              *middleware.AuthMiddleware
}

func NewRouter(deps Dependencies) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	// Add middlewares
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(deps.AllowedOrigins))
	engine.Use(middleware.LogApi("/healthz", "/metrics"))

	return &Router{
		engine:              engine,
		deps:                deps,
		wsHandler:           handlers.NewWSHandler(deps.Hub),
		userHandler:         handlers.NewUserHandler(deps.Users),
		chatHandler:         handlers.NewChatHandler(deps.Chat),
		notificationHandler: handlers.NewNotificationHandler(deps.Notifications),
		threadHandler:       handlers.NewThreadHandler(deps.Threads),
		uploadHandler:       handlers.NewUploadHandler(deps.Uploader),
		rateLimitMW:         middleware.NewRateLimitMiddleware(deps.RateLimiter),
		authMW:              middleware.NewAuthMiddleware(deps.Identity),
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/healthz", r.health)
	if r.deps.MetricsGatherer != nil {
		r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.deps.MetricsGatherer, promhttp.HandlerOpts{})))
	}

	api := r.engine.Group("/api/v1")

	// WebSocket endpoint authenticates during the handshake
	api.GET("/ws",
		r.rateLimitMW.RateLimitIP(30, time.Minute), // 30 connections per minute per IP
		r.wsHandler.HandleWebSocket,
	)

	// Authenticated routes
	auth := api.Group("/")
	auth.Use(r.authMW.RequireAuth())
	auth.Use(r.rateLimitMW.RateLimit(200, time.Minute)) // 200 requests per minute
	{
		auth.GET("/me", r.userHandler.GetProfile)
		auth.PATCH("/me", r.userHandler.UpdateProfile)

		chat := auth.Group("/chat")
		{
			chat.GET("/users", r.chatHandler.ListUsers)
			chat.GET("/:otherUserId/messages", r.chatHandler.GetConversation)
		}

		notifications := auth.Group("/notifications")
		{
			notifications.GET("", r.notificationHandler.List)
			notifications.POST("/read-all", r.notificationHandler.MarkAllRead)
			notifications.POST("/:id/read", r.notificationHandler.MarkRead)
		}

		threads := auth.Group("/threads")
		{
			threads.GET("", r.threadHandler.ListThreads)
			threads.POST("", r.threadHandler.CreateThread)
			threads.GET("/categories", r.threadHandler.ListCategories)
			threads.DELETE("/replies/:replyId", r.threadHandler.DeleteReply)
			threads.GET("/:threadId", r.threadHandler.GetThread)
			threads.GET("/:threadId/replies", r.threadHandler.ListReplies)
			threads.POST("/:threadId/replies", r.threadHandler.CreateReply)
			threads.POST("/:threadId/likes", r.threadHandler.Like)
			threads.DELETE("/:threadId/likes", r.threadHandler.Unlike)
		}

		upload := auth.Group("/upload")
		upload.Use(r.rateLimitMW.RateLimit(20, time.Minute)) // 20 uploads per minute
		{
			upload.POST("/image", r.uploadHandler.UploadImage)
		}
	}
}

func (r *Router) health(c *gin.Context) {
	if r.deps.HealthCheck != nil {
		if err := r.deps.HealthCheck(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
