package service

import (
	"context"

	"github.com/prohmpiriya/session-ticketing/internal/domain"
	"github.com/prohmpiriya/session-ticketing/internal/dto"
)

// EventService defines the interface for event catalog management
type EventService interface {
	// CreateEvent creates an event with its sessions and ticket types
	CreateEvent(ctx context.Context, req *dto.CreateEventRequest) (*domain.Event, error)
	// GetEvent retrieves an event by ID
	GetEvent(ctx context.Context, id string) (*domain.Event, error)
	// ListEvents lists events with filters and pagination
	ListEvents(ctx context.Context, filter *dto.EventListFilter) ([]*domain.Event, int, error)
	// AddSession adds a session to an existing event
	AddSession(ctx context.Context, eventID string, req *dto.CreateSessionRequest) (*domain.Session, error)
	// AddTicketType adds a ticket type to an existing event
	AddTicketType(ctx context.Context, eventID string, req *dto.CreateTicketTypeRequest) (*domain.TicketType, error)
	// ListTicketTypes lists the ticket types of an event
	ListTicketTypes(ctx context.Context, eventID string) ([]*domain.TicketType, error)
}

// AvailabilityService defines the interface for availability queries
type AvailabilityService interface {
	// GetAvailability returns availability of every ticket type of an event
	GetAvailability(ctx context.Context, eventID string) ([]domain.Availability, error)
	// GetTicketTypeAvailability returns availability of one ticket type
	GetTicketTypeAvailability(ctx context.Context, eventID, ticketTypeID string) (*domain.Availability, error)
	// Refresh recomputes availability from storage and rewrites the cache
	Refresh(ctx context.Context, eventID string) ([]domain.Availability, error)
	// Invalidate drops cached availability; failures are logged only
	Invalidate(ctx context.Context, eventID string)
}

// RegistrationService defines the interface for attendee registration
type RegistrationService interface {
	// Register registers an attendee, replaying a previous result for a known idempotency key
	Register(ctx context.Context, req *dto.RegisterRequest) (*domain.Registration, error)
	// CancelRegistration cancels a registration and frees its capacity
	CancelRegistration(ctx context.Context, id string) (*domain.Registration, error)
	// GetRegistration retrieves a registration by ID
	GetRegistration(ctx context.Context, id string) (*domain.Registration, error)
	// ListRegistrations lists registrations of an event, newest first
	ListRegistrations(ctx context.Context, eventID string, limit, offset int) ([]*domain.Registration, int, error)
}
