package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/prohmpiriya/session-ticketing/internal/domain"
	"github.com/prohmpiriya/session-ticketing/internal/dto"
	"github.com/prohmpiriya/session-ticketing/internal/repository"
	"github.com/prohmpiriya/session-ticketing/pkg/logger"
	"github.com/prohmpiriya/session-ticketing/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// eventService implements EventService
type eventService struct {
	eventRepo    repository.EventRepository
	availability AvailabilityService
}

// NewEventService creates a new EventService
func NewEventService(eventRepo repository.EventRepository, availability AvailabilityService) EventService {
	return &eventService{
		eventRepo:    eventRepo,
		availability: availability,
	}
}

// CreateEvent builds the event through the domain constructors so every
// session and ticket type rule applies, then stores it in one write
func (s *eventService) CreateEvent(ctx context.Context, req *dto.CreateEventRequest) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.create")
	defer span.End()

	if req == nil {
		return nil, invalidRequest("request body is required")
	}
	if valid, msg := req.Validate(); !valid {
		span.SetStatus(codes.Error, msg)
		return nil, invalidRequest(msg)
	}

	eventType, _ := domain.ParseEventType(req.EventType)
	event, err := domain.NewEvent(uuid.New().String(), req.Title, eventType)
	if err != nil {
		return nil, err
	}
	event.Description = req.Description
	event.Location = req.Location
	event.IsPublished = req.IsPublished
	event.OrganizerID = req.OrganizerID

	for i := range req.Sessions {
		params, err := req.Sessions[i].ToParams()
		if err != nil {
			return nil, invalidRequest(err.Error())
		}
		if _, err := event.CreateSession(params); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}

	for _, tr := range req.TicketTypes {
		if _, err := event.CreateTicketType(tr.Name, *tr.Price, tr.SessionIDs, domain.TicketTypeOptions{
			ID:          tr.ID,
			Description: tr.Description,
			IsRSVPMode:  tr.IsRSVPMode,
		}); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("event_id", event.ID),
		attribute.Int("sessions", len(event.Sessions)),
		attribute.Int("ticket_types", len(event.TicketTypes)),
	)
	logger.Get().InfoContext(ctx, "event created",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.EventType)),
		zap.Int("sessions", len(event.Sessions)),
		zap.Int("ticket_types", len(event.TicketTypes)),
	)
	return event, nil
}

// GetEvent retrieves an event by ID
func (s *eventService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	return event, nil
}

// ListEvents lists events with filters and pagination
func (s *eventService) ListEvents(ctx context.Context, filter *dto.EventListFilter) ([]*domain.Event, int, error) {
	if filter == nil {
		filter = &dto.EventListFilter{}
	}
	filter.SetDefaults()

	repoFilter := &repository.EventFilter{
		IsPublished: filter.IsPublished,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	if filter.EventType != "" {
		eventType, ok := domain.ParseEventType(filter.EventType)
		if !ok {
			return nil, 0, invalidRequest("event_type must be one of social, class, workshop")
		}
		repoFilter.EventType = eventType
	}

	return s.eventRepo.List(ctx, repoFilter)
}

// AddSession validates the session against the locked event and stores it
func (s *eventService) AddSession(ctx context.Context, eventID string, req *dto.CreateSessionRequest) (*domain.Session, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.add_session")
	defer span.End()
	span.SetAttributes(attribute.String("event_id", eventID))

	if req == nil {
		return nil, invalidRequest("request body is required")
	}
	if valid, msg := req.Validate(); !valid {
		span.SetStatus(codes.Error, msg)
		return nil, invalidRequest(msg)
	}
	params, err := req.ToParams()
	if err != nil {
		return nil, invalidRequest(err.Error())
	}

	var session *domain.Session
	err = s.eventRepo.WithLock(ctx, eventID, func(event *domain.Event, tx repository.EventTx) error {
		created, err := event.CreateSession(params)
		if err != nil {
			return err
		}
		session = created
		return tx.InsertSession(ctx, event.ID, created)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	logger.Get().InfoContext(ctx, "session added",
		zap.String("event_id", eventID),
		zap.String("session_id", session.ID),
		zap.Int("capacity", session.Capacity),
	)
	return session, nil
}

// AddTicketType validates the ticket type against the locked event and stores it
func (s *eventService) AddTicketType(ctx context.Context, eventID string, req *dto.CreateTicketTypeRequest) (*domain.TicketType, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.add_ticket_type")
	defer span.End()
	span.SetAttributes(attribute.String("event_id", eventID))

	if req == nil {
		return nil, invalidRequest("request body is required")
	}
	if valid, msg := req.Validate(); !valid {
		span.SetStatus(codes.Error, msg)
		return nil, invalidRequest(msg)
	}

	var ticketType *domain.TicketType
	err := s.eventRepo.WithLock(ctx, eventID, func(event *domain.Event, tx repository.EventTx) error {
		created, err := event.CreateTicketType(req.Name, *req.Price, req.SessionIDs, domain.TicketTypeOptions{
			ID:          req.ID,
			Description: req.Description,
			IsRSVPMode:  req.IsRSVPMode,
		})
		if err != nil {
			return err
		}
		ticketType = created
		return tx.InsertTicketType(ctx, event.ID, created)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.availability.Invalidate(ctx, eventID)
	logger.Get().InfoContext(ctx, "ticket type added",
		zap.String("event_id", eventID),
		zap.String("ticket_type_id", ticketType.ID),
		zap.Strings("session_ids", ticketType.SessionIDs),
	)
	return ticketType, nil
}

// ListTicketTypes lists the ticket types of an event
func (s *eventService) ListTicketTypes(ctx context.Context, eventID string) ([]*domain.TicketType, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return event.TicketTypes, nil
}
