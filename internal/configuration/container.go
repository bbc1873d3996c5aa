package configuration

import (
	"context"
	"fmt"
	"time"

	"github.com/arnold-1324/twitterClone-sub000/internal/auth"
	"github.com/arnold-1324/twitterClone-sub000/internal/db"
	"github.com/arnold-1324/twitterClone-sub000/internal/handler"
	"github.com/arnold-1324/twitterClone-sub000/internal/hub"
	"github.com/arnold-1324/twitterClone-sub000/internal/metrics"
	"github.com/arnold-1324/twitterClone-sub000/internal/model"
	"github.com/arnold-1324/twitterClone-sub000/internal/presence"
	"github.com/arnold-1324/twitterClone-sub000/internal/repo"
	"github.com/arnold-1324/twitterClone-sub000/internal/service"
	"github.com/arnold-1324/twitterClone-sub000/internal/storage"
	"github.com/arnold-1324/twitterClone-sub000/internal/typing"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Container struct {
	ChatHandler    handler.ChatHandler
	MonitorHandler handler.MonitorHandler
	Auth           *auth.Manager
	Hub            *hub.Hub
	Config         Config
	Logger         *zap.Logger

	// private - for cleanup
	mongoClient *mongo.Database
	registry    presence.Registry
	redisClient *redis.Client
}

func BuildContainer(configPath string) (*Container, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	con, err := db.OpenConnection(config.ChatDatabase.Uri, config.ChatDatabase.Database)
	if err != nil {
		return nil, fmt.Errorf("open mongo connection: %w", err)
	}

	conversationStore := db.NewRepository[model.Conversation](con, config.ChatDatabase.ConversationsCollection)
	messageStore := db.NewRepository[model.Message](con, config.ChatDatabase.MessagesCollection)
	userStore := db.NewRepository[model.User](con, config.ChatDatabase.UsersCollection)

	conversationRepo := repo.NewConversationRepository(conversationStore, logger)
	messageRepo := repo.NewMessageRepository(messageStore, logger)
	userRepo := repo.NewUserRepository(userStore)

	// The unique direct_key index backs the first-contact upsert; boot must
	// fail loudly if it cannot be created.
	indexCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := conversationRepo.EnsureIndexes(indexCtx); err != nil {
		return nil, err
	}

	mset := metrics.New(prometheus.DefaultRegisterer)

	var registry presence.Registry
	var redisClient *redis.Client
	if config.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:         config.Redis.Addr,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
		})
		instanceID := config.Redis.InstanceID
		if instanceID == "" {
			instanceID = uuid.New().String()
		}
		registry = presence.NewRedis(redisClient, instanceID, logger)
		logger.Info("presence registry: redis", zap.String("instance_id", instanceID))
	} else {
		registry = presence.NewMemory()
		logger.Info("presence registry: in-memory (single process)")
	}

	typingCoordinator := typing.NewCoordinator()

	chatHub := hub.NewHub(registry, logger, mset, config.Presence.DiffEvents)
	dispatcher := hub.NewDispatcher(registry, logger, mset)

	var signer storage.Signer = storage.NoopSigner{}
	if config.Storage.Enabled {
		signer, err = storage.NewMinioSigner(
			config.Storage.Endpoint,
			config.Storage.AccessKey,
			config.Storage.SecretKey,
			config.Storage.Bucket,
			config.Storage.UseSSL,
		)
		if err != nil {
			return nil, err
		}
	}

	chatService := service.NewChatService(
		conversationRepo,
		messageRepo,
		userRepo,
		typingCoordinator,
		dispatcher,
		signer,
		mset,
		logger,
	)

	// The hub feeds inbound socket events back into the facade.
	chatHub.SetHandler(chatService)

	chatHandler := handler.NewChatHandler(chatService, logger)
	monitorHandler := handler.NewMonitorHandler(hub.NewMonitorService(chatHub, typingCoordinator))

	return &Container{
		ChatHandler:    chatHandler,
		MonitorHandler: monitorHandler,
		Auth:           auth.NewManager(config.Auth.JwtSecret),
		Hub:            chatHub,
		Config:         *config,
		Logger:         logger,
		mongoClient:    con,
		registry:       registry,
		redisClient:    redisClient,
	}, nil
}

// Close gracefully shuts down all connections
func (c *Container) Close() error {
	// Stop the hub first (closes all WebSocket connections)
	if c.Hub != nil {
		c.Hub.Stop()
	}

	if c.registry != nil {
		_ = c.registry.Close()
	}

	if c.redisClient != nil {
		_ = c.redisClient.Close()
	}

	// Sync logger
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}

	// Close MongoDB connection pool
	if c.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.mongoClient.Client().Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to close MongoDB connection: %w", err)
		}
	}

	return nil
}
