package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prohmpiriya/session-ticketing/internal/domain"
	"github.com/prohmpiriya/session-ticketing/internal/dto"
	"github.com/prohmpiriya/session-ticketing/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAvailabilityService_CacheMissComputesAndStores(t *testing.T) {
	store := repository.NewMemoryStore()
	cache := new(MockAvailabilityCache)
	availability := NewAvailabilityService(store, cache)
	events := NewEventService(store, availability)
	ctx := context.Background()

	req := festivalRequest("class")
	event, err := events.CreateEvent(ctx, req)
	require.NoError(t, err)

	cache.On("Get", mock.Anything, event.ID).Return(nil, false, nil).Once()
	cache.On("Generation", mock.Anything, event.ID).Return(int64(4), nil).Once()
	cache.On("Set", mock.Anything, event.ID, int64(4), mock.AnythingOfType("[]domain.Availability")).Return(true, nil).Once()

	all, err := availability.GetAvailability(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "friday", all[0].TicketTypeID)
	assert.Equal(t, 20, all[0].Available)
	assert.Equal(t, 15, all[1].Available)
	assert.Equal(t, []string{"SUN"}, all[1].LimitingSessions)

	cache.AssertExpectations(t)
}

func TestAvailabilityService_CacheHitSkipsStorage(t *testing.T) {
	cache := new(MockAvailabilityCache)
	// empty store: any storage read would return ErrEventNotFound
	availability := NewAvailabilityService(repository.NewMemoryStore(), cache)

	cached := []domain.Availability{{TicketTypeID: "weekend", Name: "Weekend Pass", Available: 3}}
	cache.On("Get", mock.Anything, "event-1").Return(cached, true, nil)

	all, err := availability.GetAvailability(context.Background(), "event-1")
	require.NoError(t, err)
	assert.Equal(t, cached, all)

	one, err := availability.GetTicketTypeAvailability(context.Background(), "event-1", "weekend")
	require.NoError(t, err)
	assert.Equal(t, 3, one.Available)

	_, err = availability.GetTicketTypeAvailability(context.Background(), "event-1", "missing")
	assert.ErrorIs(t, err, ErrTicketTypeNotFound)
}

func TestAvailabilityService_CacheFailuresDoNotFailReads(t *testing.T) {
	store := repository.NewMemoryStore()
	cache := new(MockAvailabilityCache)
	availability := NewAvailabilityService(store, cache)
	events := NewEventService(store, availability)
	ctx := context.Background()

	event, err := events.CreateEvent(ctx, festivalRequest("class"))
	require.NoError(t, err)

	cacheDown := errors.New("redis down")
	cache.On("Get", mock.Anything, event.ID).Return(nil, false, cacheDown)
	cache.On("Generation", mock.Anything, event.ID).Return(int64(0), nil).Once()
	cache.On("Set", mock.Anything, event.ID, int64(0), mock.Anything).Return(false, cacheDown)
	cache.On("Invalidate", mock.Anything, event.ID).Return(cacheDown)

	one, err := availability.GetTicketTypeAvailability(ctx, event.ID, "full")
	require.NoError(t, err)
	assert.Equal(t, 15, one.Available)

	// without a generation the write is skipped
	cache.On("Generation", mock.Anything, event.ID).Return(int64(0), cacheDown).Once()
	one, err = availability.GetTicketTypeAvailability(ctx, event.ID, "friday")
	require.NoError(t, err)
	assert.Equal(t, 20, one.Available)
	cache.AssertNumberOfCalls(t, "Set", 1)

	availability.Invalidate(ctx, event.ID)
	cache.AssertCalled(t, "Invalidate", mock.Anything, event.ID)
}

func TestAvailabilityService_EventNotFound(t *testing.T) {
	availability := NewAvailabilityService(repository.NewMemoryStore(), nil)
	_, err := availability.GetAvailability(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestAvailabilityService_ReflectsRegistrations(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	event := createFestival(t, env, "class")

	_, err := env.registrations.Register(ctx, &dto.RegisterRequest{EventID: event.ID, TicketTypeID: "full", UserID: "u1", Quantity: qty(2)})
	require.NoError(t, err)
	_, err = env.registrations.Register(ctx, &dto.RegisterRequest{EventID: event.ID, TicketTypeID: "weekend", UserID: "u2", Quantity: qty(3)})
	require.NoError(t, err)

	all, err := env.availability.GetAvailability(ctx, event.ID)
	require.NoError(t, err)

	got := map[string]int{}
	for _, a := range all {
		got[a.TicketTypeID] = a.Available
	}
	// FRI 20-2-0, SAT 18-2-3, SUN 15-2-3
	assert.Equal(t, map[string]int{"friday": 18, "weekend": 10, "full": 10, "rsvp": 18}, got)
}

// generationCache is an in-memory AvailabilityCache with generation checks
type generationCache struct {
	mu     sync.Mutex
	values map[string][]domain.Availability
	gens   map[string]int64
}

func newGenerationCache() *generationCache {
	return &generationCache{values: map[string][]domain.Availability{}, gens: map[string]int64{}}
}

func (c *generationCache) Get(ctx context.Context, eventID string) ([]domain.Availability, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[eventID]
	return v, ok, nil
}

func (c *generationCache) Generation(ctx context.Context, eventID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[eventID], nil
}

func (c *generationCache) Set(ctx context.Context, eventID string, generation int64, availability []domain.Availability) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[eventID] != generation {
		return false, nil
	}
	c.values[eventID] = availability
	return true, nil
}

func (c *generationCache) Invalidate(ctx context.Context, eventID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[eventID]++
	delete(c.values, eventID)
	return nil
}

// pausingEventRepo holds the next GetByID after its snapshot is taken
type pausingEventRepo struct {
	repository.EventRepository

	mu      sync.Mutex
	loaded  chan struct{}
	release chan struct{}
}

func (r *pausingEventRepo) pauseNext() (loaded, release chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = make(chan struct{})
	r.release = make(chan struct{})
	return r.loaded, r.release
}

func (r *pausingEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	event, err := r.EventRepository.GetByID(ctx, id)

	r.mu.Lock()
	loaded, release := r.loaded, r.release
	r.loaded, r.release = nil, nil
	r.mu.Unlock()

	if loaded != nil {
		close(loaded)
		<-release
	}
	return event, err
}

func TestAvailabilityService_StaleSnapshotNotCachedAfterRegistration(t *testing.T) {
	store := repository.NewMemoryStore()
	repo := &pausingEventRepo{EventRepository: store}
	cache := newGenerationCache()
	availability := NewAvailabilityService(repo, cache)
	events := NewEventService(store, availability)
	registrations := NewRegistrationService(store, store.Registrations(), availability, NewMockEventPublisher(), nil)
	ctx := context.Background()

	event, err := events.CreateEvent(ctx, festivalRequest("class"))
	require.NoError(t, err)

	loaded, release := repo.pauseNext()
	staleRead := make(chan int, 1)
	go func() {
		a, err := availability.GetTicketTypeAvailability(ctx, event.ID, "friday")
		if err != nil {
			staleRead <- -1
			return
		}
		staleRead <- a.Available
	}()

	<-loaded
	_, err = registrations.Register(ctx, &dto.RegisterRequest{EventID: event.ID, TicketTypeID: "friday", UserID: "u1", Quantity: qty(5)})
	require.NoError(t, err)
	close(release)

	// the paused reader answers from its own snapshot
	assert.Equal(t, 20, <-staleRead)

	for i := 0; i < 2; i++ {
		a, err := availability.GetTicketTypeAvailability(ctx, event.ID, "friday")
		require.NoError(t, err)
		assert.Equal(t, 15, a.Available, "read %d after register", i)
	}
}
