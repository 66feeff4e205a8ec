package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"openbook-server/config"
	"openbook-server/internal/handler"
	"openbook-server/internal/middleware"
	"openbook-server/internal/redis"
	"openbook-server/internal/services"
	"openbook-server/internal/transport/httpdto"
	"openbook-server/internal/websocket"
	"openbook-server/pkg/database"
	"openbook-server/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Auth         *handler.AuthHandler
	Chat         *handler.ChatHandler
	Friend       *handler.FriendHandler
	Notification *handler.NotificationHandler
	User         *handler.UserHandler
	WebSocket    *websocket.Handler
}

func New(cfg *config.Config, l *logger.Logger) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.AppPort),
			Handler: engine,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

func (s *Server) SetupRoutes(handlers *Handlers, authService *services.AuthService, limiter *redis.RateLimiter) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))
	if limiter != nil {
		s.engine.Use(middleware.RateLimitMiddleware(limiter))
	}

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		if err := database.HealthCheck(); err != nil {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), "UNHEALTHY"))
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	requireAuth := middleware.AuthMiddleware(authService)

	auth := s.engine.Group("/v1/auth")
	{
		auth.POST("/login", handlers.Auth.Login)
	}

	chat := s.engine.Group("/v1/chat", requireAuth)
	{
		chat.POST("/request", handlers.Chat.SendRequest)
		chat.GET("/requests/received", handlers.Chat.ReceivedRequests)
		chat.GET("/requests/sent", handlers.Chat.SentRequests)
		chat.PUT("/request/:requestId/respond", handlers.Chat.RespondToRequest)
		chat.GET("/request-status/:userId", handlers.Chat.RequestStatus)
		chat.POST("/find-or-create", handlers.Chat.FindOrCreate)
		chat.GET("/chats", handlers.Chat.ListChats)
		chat.GET("/chat/:chatId/messages", handlers.Chat.ListMessages)
		if limiter != nil {
			chat.POST("/chat/:chatId/message", middleware.MessageRateLimitMiddleware(limiter), handlers.Chat.SendMessage)
		} else {
			chat.POST("/chat/:chatId/message", handlers.Chat.SendMessage)
		}
		chat.DELETE("/chat/:chatId/message/:messageId", handlers.Chat.DeleteMessage)
	}

	friends := s.engine.Group("/v1/friends", requireAuth)
	{
		friends.POST("/send-request", handlers.Friend.SendRequest)
		friends.POST("/accept-request", handlers.Friend.AcceptRequest)
		friends.POST("/decline-request", handlers.Friend.DeclineRequest)
		friends.DELETE("/cancel-request", handlers.Friend.CancelRequest)
		friends.DELETE("/remove-friend", handlers.Friend.RemoveFriend)
		friends.GET("/status/:userId", handlers.Friend.Status)
		friends.GET("/requests/received", handlers.Friend.ReceivedRequests)
		friends.GET("/", handlers.User.Friends)
	}

	notifications := s.engine.Group("/v1/notifications", requireAuth)
	{
		notifications.GET("/", handlers.Notification.List)
		notifications.PUT("/mark-read", handlers.Notification.MarkRead)
		notifications.GET("/unread-count", handlers.Notification.UnreadCount)
		notifications.DELETE("/:notificationId", handlers.Notification.Delete)
	}

	users := s.engine.Group("/v1/users", requireAuth)
	{
		users.GET("/search", handlers.User.Search)
		users.GET("/:userId/presence", handlers.User.Presence)
		users.DELETE("/me", handlers.User.DeleteAccount)
	}

	s.engine.GET("/ws", handlers.WebSocket.Connect)
}

func (s *Server) Start() error {
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	if s.logger != nil {
		s.logger.Infof("Server is running on :%s", s.config.AppPort)
	}

	<-quit

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		if s.logger != nil {
			s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Infof("Server stopped gracefully")
	}

	return nil
}
