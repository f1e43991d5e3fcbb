package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nestmatch/nestmatch-api/internal/config"
	"github.com/nestmatch/nestmatch-api/internal/database"
	"github.com/nestmatch/nestmatch-api/internal/handler"
	"github.com/nestmatch/nestmatch-api/internal/middleware"
	"github.com/nestmatch/nestmatch-api/internal/models"
	"github.com/nestmatch/nestmatch-api/internal/repository"
	"github.com/nestmatch/nestmatch-api/internal/router"
	"github.com/nestmatch/nestmatch-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Listing{},
		&models.Swipe{},
		&models.Match{},
		&models.Message{},
		&models.Notification{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Redis and NATS are optional relays; a single node runs without them.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	swipeRepo := repository.NewSwipeRepository(db)
	matchRepo := repository.NewMatchRepository(db)
	listingRepo := repository.NewListingRepository(db)
	userRepo := repository.NewUserRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	notificationService := service.NewNotificationService(notificationRepo, redisClient, cfg.EventChannelBase, natsConn, logger)
	swipeService := service.NewSwipeService(swipeRepo, matchRepo, listingRepo, validate, logger)
	matchService := service.NewMatchService(matchRepo, swipeRepo, listingRepo, userRepo, notificationService, logger)
	conversationService := service.NewConversationService(conversationRepo, matchRepo, userRepo, notificationService, logger)
	chatService := service.NewChatService(conversationService, matchRepo, redisClient, cfg.EventChannelBase, natsConn, logger)

	relayCtx, stopRelays := context.WithCancel(context.Background())
	defer stopRelays()
	notificationService.Start(relayCtx)
	chatService.Start(relayCtx)

	interactionHandler := handler.NewInteractionHandler(swipeService, matchService, logger)
	messageHandler := handler.NewMessageHandler(conversationService, validate, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, logger, cfg.SSEKeepAlive)
	chatHandler := handler.NewChatHandler(chatService, cfg.JWTSecret, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		InteractionHandler:  interactionHandler,
		MessageHandler:      messageHandler,
		NotificationHandler: notificationHandler,
		ChatHandler:         chatHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
