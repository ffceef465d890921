package repository

import (
	"context"
	"errors"
	"time"

	"github.com/prohmpiriya/session-ticketing/internal/domain"
)

// ErrNotFound is returned by WithLock when the event does not exist
var ErrNotFound = errors.New("record not found")

// EventFilter narrows List
type EventFilter struct {
	EventType   domain.EventType
	IsPublished *bool
	Limit       int
	Offset      int
}

// EventTx persists changes made while an event is locked. Writes become
// visible when the WithLock callback returns nil.
type EventTx interface {
	// InsertSession stores a session already validated against the locked snapshot
	InsertSession(ctx context.Context, eventID string, s *domain.Session) error
	// InsertTicketType stores a ticket type with its ordered session list
	InsertTicketType(ctx context.Context, eventID string, tt *domain.TicketType) error
	// InsertRegistration stores a registration (a consumption record)
	InsertRegistration(ctx context.Context, r *domain.Registration) error
	// FindRegistrationByKey returns a registration created earlier with the
	// same idempotency key, or nil
	FindRegistrationByKey(ctx context.Context, eventID, key string) (*domain.Registration, error)
}

// EventRepository defines the interface for event data access
type EventRepository interface {
	// Create stores an event with its sessions and ticket types atomically
	Create(ctx context.Context, event *domain.Event) error
	// GetByID returns a snapshot of the event with sessions, ticket types and
	// consumption records, or nil when missing
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	// List returns events without consumption records
	List(ctx context.Context, filter *EventFilter) ([]*domain.Event, int, error)
	// ListIDs returns every event id
	ListIDs(ctx context.Context) ([]string, error)
	// WithLock loads the event under an exclusive per-event lock and runs fn.
	// Concurrent callers for the same event are serialised.
	WithLock(ctx context.Context, eventID string, fn func(event *domain.Event, tx EventTx) error) error
}

// RegistrationRepository defines the interface for registration data access
type RegistrationRepository interface {
	// GetByID returns a registration, or nil when missing
	GetByID(ctx context.Context, id string) (*domain.Registration, error)
	// ListByEvent returns registrations of an event, newest first
	ListByEvent(ctx context.Context, eventID string, limit, offset int) ([]*domain.Registration, int, error)
	// ListConsumption returns the consumption records of non-cancelled registrations
	ListConsumption(ctx context.Context, eventID string) ([]domain.ConsumptionRecord, error)
	// Cancel marks a registration cancelled. It reports false when the
	// registration is missing or already cancelled.
	Cancel(ctx context.Context, id string, at time.Time) (bool, error)
}

// AvailabilityCache stores computed availability per event. Every Invalidate
// advances the event's generation; Set only writes when the generation still
// matches the one read before the snapshot was loaded.
type AvailabilityCache interface {
	Get(ctx context.Context, eventID string) ([]domain.Availability, bool, error)
	Generation(ctx context.Context, eventID string) (int64, error)
	Set(ctx context.Context, eventID string, generation int64, availability []domain.Availability) (bool, error)
	Invalidate(ctx context.Context, eventID string) error
}
