package di

import (
	"time"

	"github.com/prohmpiriya/session-ticketing/internal/handler"
	"github.com/prohmpiriya/session-ticketing/internal/repository"
	"github.com/prohmpiriya/session-ticketing/internal/service"
	"github.com/prohmpiriya/session-ticketing/pkg/database"
	"github.com/prohmpiriya/session-ticketing/pkg/redis"
)

// Container holds all dependencies for the event service
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Redis *redis.Client

	// Repositories
	EventRepo         repository.EventRepository
	RegistrationRepo  repository.RegistrationRepository
	AvailabilityCache repository.AvailabilityCache

	// Publishers
	EventPublisher service.EventPublisher

	// Services
	EventService        service.EventService
	AvailabilityService service.AvailabilityService
	RegistrationService service.RegistrationService

	// Handlers
	HealthHandler       *handler.HealthHandler
	EventHandler        *handler.EventHandler
	RegistrationHandler *handler.RegistrationHandler
}

// ContainerConfig contains configuration for building the container.
// A nil DB selects the in-memory store; a nil Redis disables the cache.
type ContainerConfig struct {
	DB                 *database.PostgresDB
	Redis              *redis.Client
	EventPublisher     service.EventPublisher
	AvailabilityTTL    time.Duration
	RegistrationConfig *service.RegistrationServiceConfig
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:             cfg.DB,
		Redis:          cfg.Redis,
		EventPublisher: cfg.EventPublisher,
	}

	// Initialize repositories
	if c.DB != nil {
		c.EventRepo = repository.NewPostgresEventRepository(c.DB.Pool())
		c.RegistrationRepo = repository.NewPostgresRegistrationRepository(c.DB.Pool())
	} else {
		store := repository.NewMemoryStore()
		c.EventRepo = store
		c.RegistrationRepo = store.Registrations()
	}

	if c.Redis != nil {
		c.AvailabilityCache = repository.NewRedisAvailabilityCache(c.Redis.Client(), cfg.AvailabilityTTL)
	} else {
		c.AvailabilityCache = repository.NoopAvailabilityCache{}
	}

	if c.EventPublisher == nil {
		c.EventPublisher = service.NewNoOpEventPublisher()
	}

	// Initialize services
	c.AvailabilityService = service.NewAvailabilityService(c.EventRepo, c.AvailabilityCache)
	c.EventService = service.NewEventService(c.EventRepo, c.AvailabilityService)
	c.RegistrationService = service.NewRegistrationService(
		c.EventRepo,
		c.RegistrationRepo,
		c.AvailabilityService,
		c.EventPublisher,
		cfg.RegistrationConfig,
	)

	// Initialize handlers
	checks := map[string]handler.HealthChecker{"database": nil, "redis": nil}
	if c.DB != nil {
		checks["database"] = c.DB
	}
	if c.Redis != nil {
		checks["redis"] = c.Redis
	}
	c.HealthHandler = handler.NewHealthHandler(checks)
	c.EventHandler = handler.NewEventHandler(c.EventService, c.AvailabilityService)
	c.RegistrationHandler = handler.NewRegistrationHandler(c.RegistrationService)

	return c
}
