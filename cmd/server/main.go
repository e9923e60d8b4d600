package main

import (
	"log"

	"studyhub/internal/api"
	"studyhub/internal/middleware"
	"studyhub/internal/realtime"
	"studyhub/internal/repository"
	"studyhub/internal/service"
	internalws "studyhub/internal/websocket"
	"studyhub/pkg/config"
	"studyhub/pkg/db"
	"studyhub/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	// 初始化配置
	if err := config.Init(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	if err := logger.InitLogger(config.GlobalConfig.Log.Level, config.GlobalConfig.Log.ProductionMode); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// 初始化数据库连接
	if err := db.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// 创建并启动变更feed
	feed, err := realtime.CreateFeed()
	if err != nil {
		log.Fatalf("Failed to create change feed: %v", err)
	}
	if err := realtime.StartFeed(feed); err != nil {
		log.Fatalf("Failed to start change feed: %v", err)
	}

	// repositories
	userRepo := repository.NewUserRepository()
	groupRepo := repository.NewGroupRepository()
	memberRepo := repository.NewGroupMemberRepository()
	requestRepo := repository.NewGroupRequestRepository()
	messageRepo := repository.NewMessageRepository()
	notificationRepo := repository.NewNotificationRepository()
	sessionRepo := repository.NewStudySessionRepository()
	progressRepo := repository.NewStudyProgressRepository()

	// services
	blobs, err := service.NewLocalBlobStore()
	if err != nil {
		log.Fatalf("Failed to initialize blob store: %v", err)
	}
	authService := service.NewAuthService(userRepo)
	groupService := service.NewGroupService(feed, groupRepo, memberRepo)
	notificationService := service.NewNotificationService(feed, notificationRepo)
	requestService := service.NewRequestService(feed, requestRepo, groupRepo, memberRepo, notificationService)
	chatService := service.NewChatService(feed, messageRepo, memberRepo, blobs)
	sessionService := service.NewSessionService(sessionRepo)
	progressService := service.NewProgressService(progressRepo)

	// WebSocket网关：每个连接一套同步视图
	gateway := internalws.NewGateway(feed, messageRepo, userRepo, requestRepo, groupRepo, notificationService)

	// handlers
	authHandler := api.NewAuthHandler(authService)
	groupHandler := api.NewGroupHandler(groupService)
	requestHandler := api.NewRequestHandler(requestService, requestRepo, groupRepo)
	chatHandler := api.NewChatHandler(chatService)
	notificationHandler := api.NewNotificationHandler(notificationService)
	sessionHandler := api.NewSessionHandler(sessionService)
	progressHandler := api.NewProgressHandler(progressService)
	fileHandler := api.NewFileHandler(blobs)
	wsHandler := api.NewWSHandler(gateway)

	// 创建Gin引擎
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.GinZapLogger())

	// 公开路由
	r.POST("/api/auth/register", authHandler.Register)
	r.POST("/api/auth/login", authHandler.Login)

	// 受保护的路由
	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware(userRepo))
	{
		protected.GET("/groups", groupHandler.ListGroups)
		protected.POST("/groups", groupHandler.CreateGroup)
		protected.POST("/groups/:group_id/join", groupHandler.JoinGroup)
		protected.POST("/groups/:group_id/leave", groupHandler.LeaveGroup)
		protected.DELETE("/groups/:group_id", groupHandler.DeleteGroup)
		protected.GET("/groups/:group_id/members/count", groupHandler.GetMemberCount)

		protected.POST("/groups/:group_id/requests", requestHandler.SendRequest)
		protected.POST("/requests/:request_id/accept", requestHandler.AcceptRequest)
		protected.POST("/requests/:request_id/reject", requestHandler.RejectRequest)
		protected.GET("/requests/mine", requestHandler.ListMyRequests)
		protected.GET("/requests/incoming", requestHandler.ListIncomingRequests)

		protected.GET("/groups/:group_id/messages", chatHandler.GetHistory)
		protected.POST("/groups/:group_id/messages", chatHandler.SendMessage)

		protected.GET("/notifications", notificationHandler.List)
		protected.POST("/notifications/:notification_id/read", notificationHandler.MarkRead)
		protected.POST("/notifications/read-all", notificationHandler.MarkAllRead)

		protected.GET("/sessions", sessionHandler.ListSessions)
		protected.POST("/sessions", sessionHandler.CreateSession)
		protected.PATCH("/sessions/:session_id", sessionHandler.UpdateSession)

		protected.GET("/progress", progressHandler.ListProgress)
		protected.POST("/progress", progressHandler.RecordProgress)

		protected.GET("/files/*path", fileHandler.Download)

		protected.GET("/ws", wsHandler.HandleConnection)
	}

	// 启动服务器
	if err := r.Run(":8080"); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
