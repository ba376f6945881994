package container

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"

	"zamstay-be/internal/config"
	"zamstay-be/internal/repository"
	"zamstay-be/internal/service"
	"zamstay-be/internal/service/auth"
	"zamstay-be/pkg/database"
	"zamstay-be/pkg/logger"
	"zamstay-be/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *logger.Logger
	Clock        clockwork.Clock
	DB           *database.PostgresDB
	RedisClient  *redis.Client
	Repositories *repository.Repositories
	Services     *service.Services
	Stats        *service.StatsService
	Auth         *auth.Service
}

// New connects to Postgres and Redis and wires every service
func New(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*Container, error) {
	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL, cfg.DatabaseReadURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info("Database connection established")

	redisClient, err := redis.NewClient(cfg.RedisURL, cfg.Environment, logger.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.WithField("prefix", redisClient.KeyBuilder.GetPrefix()).Info("Redis client initialized successfully")

	return Build(cfg, logger, db, redisClient, clockwork.NewRealClock()), nil
}

// Build wires repositories and services on top of established connections
func Build(cfg *config.Config, logger *logger.Logger, db *database.PostgresDB, redisClient *redis.Client, clock clockwork.Clock) *Container {
	repos := &repository.Repositories{
		Stats:      repository.NewStatsStore(db),
		Promotion:  repository.NewPromotionRepository(db),
		Engagement: repository.NewEngagementRepository(db),
		Analytics:  repository.NewAnalyticsRepository(db),
	}

	statsCfg := service.DefaultStatsConfig()
	if cfg.StatsTimezone != nil {
		statsCfg.Location = cfg.StatsTimezone
	}
	if cfg.StatsAdminTTL > 0 {
		statsCfg.AdminTTL = cfg.StatsAdminTTL
	}
	if cfg.StatsBusinessTTL > 0 {
		statsCfg.BusinessTTL = cfg.StatsBusinessTTL
	}
	if cfg.OverviewTTL > 0 {
		statsCfg.OverviewTTL = cfg.OverviewTTL
	}
	if cfg.QueryTimeout > 0 {
		statsCfg.QueryTimeout = cfg.QueryTimeout
	}

	cache := service.NewCacheService(redisClient, logger.Logger)
	requests := service.NewRequestCounter(redisClient, clock, statsCfg.Location, logger)
	stats := service.NewStatsService(
		repos.Stats,
		repos.Analytics,
		cache,
		redisClient.KeyBuilder,
		requests,
		clock,
		statsCfg,
		logger,
	)

	services := &service.Services{
		Dashboard:  stats,
		Promotion:  service.NewPromotionService(repos.Promotion, stats, clock, logger),
		Engagement: service.NewEngagementService(repos.Engagement, clock, logger),
		Requests:   requests,
	}

	return &Container{
		Config:       cfg,
		Logger:       logger,
		Clock:        clock,
		DB:           db,
		RedisClient:  redisClient,
		Repositories: repos,
		Services:     services,
		Stats:        stats,
		Auth:         auth.NewService(cfg.JWTSecret, clock, logger),
	}
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// GetRedisClient returns the Redis client
func (c *Container) GetRedisClient() *redis.Client {
	return c.RedisClient
}
