package main

import (
	"context"
	"log"
	"time"

	"openbook-server/config"
	"openbook-server/internal/handler"
	"openbook-server/internal/redis"
	"openbook-server/internal/repository"
	"openbook-server/internal/server"
	"openbook-server/internal/services"
	"openbook-server/internal/websocket"
	"openbook-server/pkg/database"
	"openbook-server/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	mode := logger.DevelopmentMode
	if cfg.AppMode == server.ReleaseMode {
		mode = logger.ProductionMode
	}
	l := logger.New(mode)
	logger.SetGlobalLogger(l)

	database.Connect(cfg)
	if err := database.AutoMigrate(database.DB); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	redisClient := redis.NewClient(redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	presence := redis.NewPresenceStore(redisClient, 5*time.Minute)
	limiter := redis.NewRateLimiter(redisClient, redis.DefaultRateLimitConfig())

	userRepo := repository.NewUserRepository(database.DB)
	requestRepo := repository.NewRequestRepository(database.DB)
	chatRepo := repository.NewChatRepository(database.DB)
	notificationRepo := repository.NewNotificationRepository(database.DB)

	hub := websocket.NewHub(l)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	notificationService := services.NewNotificationService(notificationRepo, l)
	chatService := services.NewChatService(chatRepo, userRepo, notificationService, hub, l)
	requestService := services.NewRequestService(requestRepo, userRepo, chatService, notificationService, l)
	userService := services.NewUserService(userRepo)
	authService := services.NewAuthService(userRepo, cfg)

	authorizer := websocket.NewChannelAuthorizer(chatRepo)
	wsHandler := websocket.NewHandler(authService, hub, authorizer, chatService, presence, l)

	handlers := &server.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		Chat:         handler.NewChatHandler(chatService, requestService),
		Friend:       handler.NewFriendHandler(requestService),
		Notification: handler.NewNotificationHandler(notificationService),
		User:         handler.NewUserHandler(userService, presence),
		WebSocket:    wsHandler,
	}

	srv := server.New(cfg, l)
	srv.SetupRoutes(handlers, authService, limiter)

	if err := srv.Start(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}
