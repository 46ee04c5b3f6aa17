package initializer

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amirasaad/masroofy/infra"
	infracache "github.com/amirasaad/masroofy/infra/cache"
	infraeventbus "github.com/amirasaad/masroofy/infra/eventbus"
	infrarepo "github.com/amirasaad/masroofy/infra/repository"
	"github.com/amirasaad/masroofy/pkg/app"
	"github.com/amirasaad/masroofy/pkg/cache"
	"github.com/amirasaad/masroofy/pkg/config"
	"github.com/amirasaad/masroofy/pkg/eventbus"
	"gorm.io/gorm"
)

// InitializeDependencies opens the database, applies migrations and builds
// the cache and event bus chosen by cfg.
func InitializeDependencies(cfg *config.App) (*app.Deps, error) {
	logger := SetupLogger(cfg.Log)

	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database pool: %w", err)
	}
	deps := &app.Deps{
		Uow:    infrarepo.NewUoW(db),
		DB:     sqlDB,
		Logger: logger,
	}
	if err := initRest(deps, db, cfg); err != nil {
		_ = deps.Close()
		return nil, err
	}
	return deps, nil
}

// initRest migrates and fills in the cache and bus. On error the caller
// closes whatever was opened.
func initRest(deps *app.Deps, db *gorm.DB, cfg *config.App) error {
	if cfg.DB.Migrate {
		if err := infra.Migrate(db, deps.Logger); err != nil {
			deps.Logger.Error("Failed to migrate database", "error", err)
			return err
		}
	}
	c, err := initCache(cfg, deps.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	deps.Cache = c
	bus, err := initEventBus(cfg, deps.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize event bus: %w", err)
	}
	deps.EventBus = bus
	return nil
}

// initCache returns nil for "none". A redis backend that cannot be reached
// degrades to the memory cache.
func initCache(cfg *config.App, logger *slog.Logger) (cache.Cache, error) {
	backend := "memory"
	if cfg.Cache != nil && cfg.Cache.Backend != "" {
		backend = strings.ToLower(cfg.Cache.Backend)
	}
	switch backend {
	case "none":
		return nil, nil
	case "memory":
		return infracache.NewMemoryCache(0), nil
	case "redis":
		if cfg.Redis == nil || cfg.Redis.URL == "" {
			return nil, errors.New("redis cache requires REDIS_URL")
		}
		c, err := infracache.NewRedisCache(cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis cache unavailable, falling back to memory", "error", err)
			return infracache.NewMemoryCache(0), nil
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", backend)
	}
}

// initEventBus validates the backend settings up front. A configured broker
// that cannot be reached degrades to the memory bus.
func initEventBus(cfg *config.App, logger *slog.Logger) (eventbus.Bus, error) {
	ec := cfg.EventBus
	if ec == nil {
		ec = &config.EventBus{}
	}
	backend := strings.ToLower(ec.Backend)

	var (
		bus eventbus.Bus
		err error
	)
	switch backend {
	case "", "memory":
		return infraeventbus.NewWithMemory(logger), nil
	case "redis":
		if cfg.Redis == nil || cfg.Redis.URL == "" {
			return nil, errors.New("redis event bus requires REDIS_URL")
		}
		stream := &config.RedisStream{Stream: "masroofy:events", Group: "masroofy"}
		if ec.Redis != nil {
			stream = ec.Redis
		}
		bus, err = infraeventbus.NewWithRedis(cfg.Redis.URL, stream.Stream, stream.Group, logger,
			infraeventbus.WithConsumer(stream.Consumer))
	case "kafka":
		if ec.Kafka == nil || strings.TrimSpace(ec.Kafka.Brokers) == "" {
			return nil, errors.New("kafka event bus requires EVENTBUS_KAFKA_BROKERS")
		}
		bus, err = infraeventbus.NewWithKafka(ec.Kafka.Brokers, logger, &infraeventbus.KafkaEventBusConfig{
			GroupID:     ec.Kafka.GroupID,
			TopicPrefix: ec.Kafka.Topic,
		})
	case "rabbitmq", "amqp":
		if ec.AMQP == nil || ec.AMQP.URL == "" {
			return nil, errors.New("rabbitmq event bus requires EVENTBUS_AMQP_URL")
		}
		bus, err = infraeventbus.NewWithAMQP(ec.AMQP.URL, ec.AMQP.Exchange, ec.AMQP.Queue, logger)
	default:
		return nil, fmt.Errorf("unsupported event bus backend %q", ec.Backend)
	}
	if err != nil {
		logger.Warn("Event bus unavailable, falling back to memory", "backend", backend, "error", err)
		return infraeventbus.NewWithMemory(logger), nil
	}
	logger.Info("Event bus ready", "backend", backend)
	return bus, nil
}
