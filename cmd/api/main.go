package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/alumni-connect-api/internal/config"
	"github.com/noah-isme/alumni-connect-api/internal/database"
	"github.com/noah-isme/alumni-connect-api/internal/handler"
	"github.com/noah-isme/alumni-connect-api/internal/middleware"
	"github.com/noah-isme/alumni-connect-api/internal/models"
	"github.com/noah-isme/alumni-connect-api/internal/realtime"
	"github.com/noah-isme/alumni-connect-api/internal/repository"
	"github.com/noah-isme/alumni-connect-api/internal/router"
	"github.com/noah-isme/alumni-connect-api/internal/service"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStartup()

	db, err := database.ConnectPostgres(startupCtx, cfg.DatabaseURL, database.PoolOptions{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(startupCtx, cfg.RedisURL, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	hub := realtime.NewHub(logger)
	bus := realtime.NewBus(hub, realtime.BusConfig{
		Redis:   redisClient,
		NATS:    natsConn,
		Channel: cfg.RealtimeChannel,
	}, logger)
	presence := realtime.NewPresence()

	userRepo := repository.NewUserRepository(db)
	chatRepo := repository.NewChatRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	forumRepo := repository.NewForumRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, cfg.ActivityWriteTimeout, logger)
	chatService := service.NewChatService(chatRepo, messageRepo, userRepo, bus, activityService, validate, logger)
	notificationService := service.NewNotificationService(notificationRepo, userRepo, bus, redisClient, validate, service.NotificationOptions{
		TTL:            cfg.NotificationTTL,
		SweepInterval:  cfg.NotificationSweepInterval,
		UnreadCacheTTL: cfg.UnreadCacheTTL,
	}, logger)
	forumService := service.NewForumService(forumRepo, userRepo, notificationService, bus, validate, logger)
	gatewayService := service.NewGatewayService(service.GatewayDeps{
		Hub:           hub,
		Bus:           bus,
		Presence:      presence,
		Users:         userRepo,
		Chats:         chatService,
		Notifications: notificationService,
		Forums:        forumService,
		Signals:       service.NewSignalRelay(bus, logger),
		ParseToken:    middleware.NewTokenParser(cfg.JWTSecret),
	}, service.GatewayOptions{
		SendBuffer:    cfg.SocketSendBuffer,
		PingInterval:  cfg.SocketPingInterval,
		EventTimeout:  cfg.SocketEventTimeout,
		MessageLimit:  cfg.MessageRateLimit,
		MessageWindow: cfg.MessageRateWindow,
	}, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		SocketHandler:       handler.NewSocketHandler(gatewayService, logger),
		ChatHandler:         handler.NewChatHandler(chatService, validate, middleware.RateLimit("messages", cfg.MessageRateLimit, cfg.MessageRateWindow), logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, gatewayService, validate, cfg.SSEKeepAliveInterval, logger),
		ForumHandler:        handler.NewForumHandler(forumService, validate, logger),
		PresenceHandler:     handler.NewPresenceHandler(gatewayService, logger),
		AdminHandler:        handler.NewAdminHandler(activityService, notificationService, validate, logger),
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
		Bus:                 bus,
		Presence:            presence,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus.Start(ctx)
	notificationService.Start(ctx)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
	cancel()
	activityService.Wait()
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
