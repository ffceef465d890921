package di

import (
	"testing"

	"github.com/prohmpiriya/session-ticketing/internal/repository"
	"github.com/prohmpiriya/session-ticketing/internal/service"
	"github.com/stretchr/testify/assert"
)

func TestNewContainer_InMemory(t *testing.T) {
	c := NewContainer(&ContainerConfig{})

	assert.IsType(t, &repository.MemoryStore{}, c.EventRepo)
	assert.NotNil(t, c.RegistrationRepo)
	assert.IsType(t, repository.NoopAvailabilityCache{}, c.AvailabilityCache)
	assert.IsType(t, &service.NoOpEventPublisher{}, c.EventPublisher)

	assert.NotNil(t, c.EventService)
	assert.NotNil(t, c.AvailabilityService)
	assert.NotNil(t, c.RegistrationService)
	assert.NotNil(t, c.HealthHandler)
	assert.NotNil(t, c.EventHandler)
	assert.NotNil(t, c.RegistrationHandler)
}
