package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prohmpiriya/session-ticketing/internal/domain"
	"github.com/prohmpiriya/session-ticketing/internal/dto"
	"github.com/prohmpiriya/session-ticketing/internal/metrics"
	"github.com/prohmpiriya/session-ticketing/internal/repository"
	"github.com/prohmpiriya/session-ticketing/pkg/logger"
	"github.com/prohmpiriya/session-ticketing/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// registrationService implements RegistrationService
type registrationService struct {
	eventRepo        repository.EventRepository
	registrationRepo repository.RegistrationRepository
	availability     AvailabilityService
	eventPublisher   EventPublisher
	enforceCapacity  bool
	maxQuantity      int
}

// RegistrationServiceConfig contains configuration for registration service
type RegistrationServiceConfig struct {
	// EnforceCapacity rejects registrations larger than the computed availability
	EnforceCapacity bool
	// MaxQuantity caps units per registration (0 = no cap)
	MaxQuantity int
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(
	eventRepo repository.EventRepository,
	registrationRepo repository.RegistrationRepository,
	availability AvailabilityService,
	eventPublisher EventPublisher,
	cfg *RegistrationServiceConfig,
) RegistrationService {
	enforce := true
	maxQuantity := 10
	if cfg != nil {
		enforce = cfg.EnforceCapacity
		maxQuantity = cfg.MaxQuantity
	}
	// Use NoOpEventPublisher if none provided
	if eventPublisher == nil {
		eventPublisher = NewNoOpEventPublisher()
	}
	return &registrationService{
		eventRepo:        eventRepo,
		registrationRepo: registrationRepo,
		availability:     availability,
		eventPublisher:   eventPublisher,
		enforceCapacity:  enforce,
		maxQuantity:      maxQuantity,
	}
}

// Register validates the request against the locked event snapshot and
// stores the registration in the same critical section
func (s *registrationService) Register(ctx context.Context, req *dto.RegisterRequest) (*domain.Registration, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.registration.register")
	defer span.End()

	if req == nil {
		return nil, invalidRequest("request body is required")
	}
	if valid, msg := req.Validate(); !valid {
		span.SetStatus(codes.Error, msg)
		metrics.TrackRejection("validation")
		return nil, invalidRequest(msg)
	}
	quantity := *req.Quantity
	if s.maxQuantity > 0 && quantity > s.maxQuantity {
		metrics.TrackRejection("validation")
		return nil, &domain.DomainError{
			Kind:    domain.KindInvalidQuantity,
			Message: fmt.Sprintf("quantity must not exceed %d", s.maxQuantity),
		}
	}

	span.SetAttributes(
		attribute.String("event_id", req.EventID),
		attribute.String("ticket_type_id", req.TicketTypeID),
		attribute.String("user_id", req.UserID),
		attribute.Int("quantity", quantity),
	)

	var (
		reg       *domain.Registration
		eventType domain.EventType
		replayed  bool
		available int
	)
	err := s.eventRepo.WithLock(ctx, req.EventID, func(event *domain.Event, tx repository.EventTx) error {
		eventType = event.EventType

		if req.IdempotencyKey != "" {
			existing, err := tx.FindRegistrationByKey(ctx, event.ID, req.IdempotencyKey)
			if err != nil {
				return err
			}
			if existing != nil {
				reg = existing
				replayed = true
				return nil
			}
		}

		tt, ok := event.TicketType(req.TicketTypeID)
		if !ok {
			return ErrTicketTypeNotFound
		}

		available = event.CalculateAvailability(tt)
		if s.enforceCapacity && quantity > available {
			return ErrInsufficientCapacity
		}

		result, err := event.RegisterAttendee(req.UserID, tt, quantity)
		if err != nil {
			return err
		}

		now := time.Now()
		reg = &domain.Registration{
			ID:              uuid.New().String(),
			EventID:         event.ID,
			TicketTypeID:    tt.ID,
			UserID:          strings.TrimSpace(req.UserID),
			Quantity:        result.Record.Quantity,
			Status:          result.Status,
			PaymentStatus:   result.PaymentStatus,
			RequiresPayment: result.RequiresPayment,
			IdempotencyKey:  req.IdempotencyKey,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		return tx.InsertRegistration(ctx, reg)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			err = ErrEventNotFound
		}
		metrics.TrackRejection(rejectionReason(err))
		metrics.TrackRegistration(string(eventType), metrics.OutcomeRejected)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if replayed {
		metrics.TrackRegistration(string(eventType), metrics.OutcomeReplayed)
		span.SetAttributes(attribute.Bool("replayed", true))
		span.SetStatus(codes.Ok, "")
		return reg, nil
	}

	s.availability.Invalidate(ctx, reg.EventID)
	if err := s.eventPublisher.PublishRegistrationCreated(ctx, reg); err != nil {
		logger.Get().WarnContext(ctx, "failed to publish registration created",
			zap.String("registration_id", reg.ID),
			zap.Error(err),
		)
	}

	metrics.TrackRegistration(string(eventType), metrics.OutcomeSuccess)
	metrics.TrackTickets(string(eventType), reg.RequiresPayment, reg.Quantity)

	span.AddEvent("registration_created", trace.WithAttributes(
		attribute.String("registration_id", reg.ID),
		attribute.String("status", string(reg.Status)),
		attribute.Bool("requires_payment", reg.RequiresPayment),
		attribute.Int("available_before", available),
	))
	span.SetStatus(codes.Ok, "")

	logger.Get().InfoContext(ctx, "attendee registered",
		zap.String("registration_id", reg.ID),
		zap.String("event_id", reg.EventID),
		zap.String("ticket_type_id", reg.TicketTypeID),
		zap.Int("quantity", reg.Quantity),
		zap.String("status", string(reg.Status)),
	)
	return reg, nil
}

// CancelRegistration cancels a registration and frees its capacity
func (s *registrationService) CancelRegistration(ctx context.Context, id string) (*domain.Registration, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.registration.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("registration_id", id))

	reg, err := s.GetRegistration(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if reg.Status == domain.RegistrationStatusCancelled {
		span.SetStatus(codes.Error, "already cancelled")
		return nil, ErrRegistrationAlreadyCancelled
	}

	now := time.Now()
	cancelled, err := s.registrationRepo.Cancel(ctx, id, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if !cancelled {
		// lost a race with another cancel
		return nil, ErrRegistrationAlreadyCancelled
	}

	reg.Status = domain.RegistrationStatusCancelled
	reg.CancelledAt = &now
	reg.UpdatedAt = now

	s.availability.Invalidate(ctx, reg.EventID)
	if err := s.eventPublisher.PublishRegistrationCancelled(ctx, reg); err != nil {
		logger.Get().WarnContext(ctx, "failed to publish registration cancelled",
			zap.String("registration_id", reg.ID),
			zap.Error(err),
		)
	}

	span.SetStatus(codes.Ok, "")
	logger.Get().InfoContext(ctx, "registration cancelled",
		zap.String("registration_id", reg.ID),
		zap.String("event_id", reg.EventID),
		zap.Int("quantity", reg.Quantity),
	)
	return reg, nil
}

// GetRegistration retrieves a registration by ID
func (s *registrationService) GetRegistration(ctx context.Context, id string) (*domain.Registration, error) {
	reg, err := s.registrationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, ErrRegistrationNotFound
	}
	return reg, nil
}

// ListRegistrations lists registrations of an event, newest first
func (s *registrationService) ListRegistrations(ctx context.Context, eventID string, limit, offset int) ([]*domain.Registration, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.registrationRepo.ListByEvent(ctx, eventID, limit, offset)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientCapacity):
		return "insufficient_capacity"
	case errors.Is(err, ErrEventNotFound), errors.Is(err, ErrTicketTypeNotFound):
		return "not_found"
	case domain.IsDomainError(err):
		var de *domain.DomainError
		errors.As(err, &de)
		return string(de.Kind)
	default:
		return "error"
	}
}

