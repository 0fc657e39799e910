package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/thereayou/gatherly/internal/config"
	"github.com/thereayou/gatherly/internal/database"
	"github.com/thereayou/gatherly/internal/handlers"
	"github.com/thereayou/gatherly/internal/services"
	"github.com/thereayou/gatherly/internal/websocket"
	"github.com/thereayou/gatherly/pkg/auth"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	cfg        *config.Config
	log        *zap.Logger
	Router     *gin.Engine
	DB         *database.Database
	Redis      *redis.Client
	Hub        *websocket.Hub
	JWTManager *auth.JWTManager
	Blacklist  *auth.RedisBlacklist
}

// NewServer connects the stores and wires the services and routes. The hub
// runs until ctx is cancelled.
func NewServer(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Server, error) {
	dbConn := &database.Database{}
	if err := dbConn.Connect(cfg.DatabaseURL); err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	s := &Server{
		cfg:        cfg,
		log:        log,
		DB:         dbConn,
		Redis:      rdb,
		Hub:        websocket.NewHub(log),
		JWTManager: auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL),
		Blacklist:  auth.NewRedisBlacklist(rdb),
	}
	go s.Hub.Run(ctx)

	chat := services.NewChatService(dbConn, dbConn, s.Hub, log)
	notices := services.NewNoticeService(dbConn, dbConn, dbConn, s.Hub, cfg.NoticeWindow, log)
	events := services.NewEventService(dbConn, dbConn, notices, cfg.EventLocation, log)
	countdown := services.NewCountdownService(dbConn, services.CountdownConfig{
		Location:         cfg.EventLocation,
		InProgressWindow: cfg.CountdownInProgress,
		ReportScheduled:  cfg.CountdownReportScheduled,
	}, log)
	authSvc := services.NewAuthService(dbConn, s.JWTManager, s.Blacklist, log)

	intents := handlers.NewMessageHandler(s.Hub, chat, countdown, log)

	s.Router = gin.Default()
	s.Router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.ClientURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	APIEndpoints(s.Router, s.JWTManager, s.Blacklist, Handlers{
		Auth:   handlers.NewAuthHandler(authSvc),
		Chat:   handlers.NewChatHandler(chat),
		Events: handlers.NewEventHandler(events, countdown),
		Notice: handlers.NewNoticeHandler(notices),
		User:   handlers.NewUserHandler(services.NewUserService(dbConn, log), events),
		WS:     handlers.NewWebSocketHandler(s.Hub, intents, cfg.ClientURL, log),
		Health: handlers.NewHealthHandler(map[string]handlers.HealthCheck{
			"database": dbConn.Ping,
			"redis": func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			},
		}),
	})

	return s, nil
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.log.Info("server starting", zap.String("port", s.cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		s.log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.log.Info("server stopped")
	return nil
}

func (s *Server) Close() {
	if err := s.Redis.Close(); err != nil {
		s.log.Warn("redis close", zap.Error(err))
	}
	if err := s.DB.Close(); err != nil {
		s.log.Warn("postgres close", zap.Error(err))
	}
}
