package service

import (
	"context"
	"time"

	"github.com/prohmpiriya/session-ticketing/internal/domain"
	"github.com/prohmpiriya/session-ticketing/internal/metrics"
	"github.com/prohmpiriya/session-ticketing/internal/repository"
	"github.com/prohmpiriya/session-ticketing/pkg/logger"
	"github.com/prohmpiriya/session-ticketing/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// availabilityService implements AvailabilityService as cache-aside over
// the event repository
type availabilityService struct {
	eventRepo repository.EventRepository
	cache     repository.AvailabilityCache
}

// NewAvailabilityService creates a new AvailabilityService. A nil cache disables caching.
func NewAvailabilityService(eventRepo repository.EventRepository, cache repository.AvailabilityCache) AvailabilityService {
	if cache == nil {
		cache = repository.NoopAvailabilityCache{}
	}
	return &availabilityService{
		eventRepo: eventRepo,
		cache:     cache,
	}
}

// GetAvailability returns availability of every ticket type of an event
func (s *availabilityService) GetAvailability(ctx context.Context, eventID string) ([]domain.Availability, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.availability.get")
	defer span.End()
	span.SetAttributes(attribute.String("event_id", eventID))

	metrics.TrackAvailabilityQuery("event")
	return s.lookup(ctx, eventID)
}

// GetTicketTypeAvailability returns availability of one ticket type
func (s *availabilityService) GetTicketTypeAvailability(ctx context.Context, eventID, ticketTypeID string) (*domain.Availability, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.availability.get_ticket_type")
	defer span.End()
	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("ticket_type_id", ticketTypeID),
	)

	metrics.TrackAvailabilityQuery("ticket_type")
	all, err := s.lookup(ctx, eventID)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].TicketTypeID == ticketTypeID {
			return &all[i], nil
		}
	}
	span.SetStatus(codes.Error, "ticket type not found")
	return nil, ErrTicketTypeNotFound
}

func (s *availabilityService) lookup(ctx context.Context, eventID string) ([]domain.Availability, error) {
	cached, hit, err := s.cache.Get(ctx, eventID)
	if err != nil {
		logger.Get().WarnContext(ctx, "availability cache read failed",
			zap.String("event_id", eventID),
			zap.Error(err),
		)
	}
	if hit {
		metrics.TrackCacheLookup(true)
		return cached, nil
	}
	metrics.TrackCacheLookup(false)
	return s.Refresh(ctx, eventID)
}

// Refresh recomputes availability from a fresh snapshot and rewrites the cache.
// The generation is read before the snapshot so a registration that lands in
// between invalidates the write.
func (s *availabilityService) Refresh(ctx context.Context, eventID string) ([]domain.Availability, error) {
	generation, genErr := s.cache.Generation(ctx, eventID)
	if genErr != nil {
		logger.Get().WarnContext(ctx, "availability cache generation read failed",
			zap.String("event_id", eventID),
			zap.Error(genErr),
		)
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	start := time.Now()
	availability := event.AllAvailability()
	metrics.ObserveCalculation(time.Since(start))

	if genErr != nil {
		return availability, nil
	}
	written, err := s.cache.Set(ctx, eventID, generation, availability)
	if err != nil {
		logger.Get().WarnContext(ctx, "availability cache write failed",
			zap.String("event_id", eventID),
			zap.Error(err),
		)
	} else if !written {
		logger.Get().DebugContext(ctx, "stale availability not cached",
			zap.String("event_id", eventID),
			zap.Int64("generation", generation),
		)
	}
	return availability, nil
}

// Invalidate drops cached availability
func (s *availabilityService) Invalidate(ctx context.Context, eventID string) {
	if err := s.cache.Invalidate(ctx, eventID); err != nil {
		logger.Get().WarnContext(ctx, "availability cache invalidation failed",
			zap.String("event_id", eventID),
			zap.Error(err),
		)
	}
}
