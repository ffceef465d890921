package service

import (
	"context"
	"sync"
	"testing"

	"github.com/prohmpiriya/session-ticketing/internal/domain"
	"github.com/prohmpiriya/session-ticketing/internal/dto"
	"github.com/prohmpiriya/session-ticketing/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAvailabilityCache is a testify mock of repository.AvailabilityCache
type MockAvailabilityCache struct {
	mock.Mock
}

func (m *MockAvailabilityCache) Get(ctx context.Context, eventID string) ([]domain.Availability, bool, error) {
	args := m.Called(ctx, eventID)
	var availability []domain.Availability
	if v := args.Get(0); v != nil {
		availability = v.([]domain.Availability)
	}
	return availability, args.Bool(1), args.Error(2)
}

func (m *MockAvailabilityCache) Generation(ctx context.Context, eventID string) (int64, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAvailabilityCache) Set(ctx context.Context, eventID string, generation int64, availability []domain.Availability) (bool, error) {
	args := m.Called(ctx, eventID, generation, availability)
	return args.Bool(0), args.Error(1)
}

func (m *MockAvailabilityCache) Invalidate(ctx context.Context, eventID string) error {
	return m.Called(ctx, eventID).Error(0)
}

// MockEventPublisher records published registrations
type MockEventPublisher struct {
	mu              sync.Mutex
	createdEvents   []*domain.Registration
	cancelledEvents []*domain.Registration
	publishError    error
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

func (m *MockEventPublisher) PublishRegistrationCreated(ctx context.Context, reg *domain.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishError != nil {
		return m.publishError
	}
	m.createdEvents = append(m.createdEvents, reg)
	return nil
}

func (m *MockEventPublisher) PublishRegistrationCancelled(ctx context.Context, reg *domain.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishError != nil {
		return m.publishError
	}
	m.cancelledEvents = append(m.cancelledEvents, reg)
	return nil
}

func (m *MockEventPublisher) Close() error {
	return nil
}

func (m *MockEventPublisher) Created() []*domain.Registration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Registration(nil), m.createdEvents...)
}

func (m *MockEventPublisher) Cancelled() []*domain.Registration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Registration(nil), m.cancelledEvents...)
}

type testEnv struct {
	store         *repository.MemoryStore
	events        EventService
	availability  AvailabilityService
	registrations RegistrationService
	publisher     *MockEventPublisher
}

func newTestEnv(cfg *RegistrationServiceConfig) *testEnv {
	store := repository.NewMemoryStore()
	availability := NewAvailabilityService(store, nil)
	publisher := NewMockEventPublisher()
	return &testEnv{
		store:         store,
		events:        NewEventService(store, availability),
		availability:  availability,
		registrations: NewRegistrationService(store, store.Registrations(), availability, publisher, cfg),
		publisher:     publisher,
	}
}

func qty(n int) *int {
	return &n
}

func price(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// festivalRequest is a three day festival: Friday 20, Saturday 18, Sunday 15
func festivalRequest(eventType string) *dto.CreateEventRequest {
	return &dto.CreateEventRequest{
		Title:     "Rope Festival",
		EventType: eventType,
		Sessions: []dto.CreateSessionRequest{
			{ID: "FRI", Name: "Friday", Date: "2025-09-19", StartTime: "18:00", EndTime: "23:00", Capacity: 20},
			{ID: "SAT", Name: "Saturday", Date: "2025-09-20", StartTime: "10:00", EndTime: "18:00", Capacity: 18},
			{ID: "SUN", Name: "Sunday", Date: "2025-09-21", StartTime: "10:00", EndTime: "16:00", Capacity: 15},
		},
		TicketTypes: []dto.CreateTicketTypeRequest{
			{ID: "friday", Name: "Friday Only", Price: price(40), SessionIDs: []string{"FRI"}},
			{ID: "weekend", Name: "Weekend Pass", Price: price(90), SessionIDs: []string{"SAT", "SUN"}},
			{ID: "full", Name: "Full Pass", Price: price(120), SessionIDs: []string{"FRI", "SAT", "SUN"}},
			{ID: "rsvp", Name: "RSVP", Price: price(0), SessionIDs: []string{"FRI"}, IsRSVPMode: true},
		},
	}
}

func createFestival(t *testing.T, env *testEnv, eventType string) *domain.Event {
	t.Helper()
	event, err := env.events.CreateEvent(context.Background(), festivalRequest(eventType))
	require.NoError(t, err)
	return event
}
