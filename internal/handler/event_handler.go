package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/session-ticketing/internal/dto"
	"github.com/prohmpiriya/session-ticketing/internal/service"
	"github.com/prohmpiriya/session-ticketing/pkg/response"
	"github.com/prohmpiriya/session-ticketing/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// EventHandler handles event, session, ticket type and availability requests
type EventHandler struct {
	eventService        service.EventService
	availabilityService service.AvailabilityService
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(eventService service.EventService, availabilityService service.AvailabilityService) *EventHandler {
	return &EventHandler{
		eventService:        eventService,
		availabilityService: availabilityService,
	}
}

// Create handles POST /events
func (h *EventHandler) Create(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.Create")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, span, err, "Invalid request body")
		return
	}

	if valid, msg := req.Validate(); !valid {
		badRequest(c, span, nil, msg)
		return
	}

	event, err := h.eventService.CreateEvent(ctx, &req)
	if err != nil {
		writeServiceError(c, span, err, "Failed to create event")
		return
	}

	span.SetAttributes(attribute.String("event_id", event.ID))
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusCreated, response.Success(dto.NewEventResponse(event)))
}

// List handles GET /events
func (h *EventHandler) List(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.List")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var filter dto.EventListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, span, err, "Invalid query parameters")
		return
	}

	events, total, err := h.eventService.ListEvents(ctx, &filter)
	if err != nil {
		writeServiceError(c, span, err, "Failed to list events")
		return
	}

	eventResponses := make([]*dto.EventResponse, len(events))
	for i, event := range events {
		eventResponses[i] = dto.NewEventResponse(event)
	}

	filter.SetDefaults()
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, response.Paginated(eventResponses, filter.Offset/filter.Limit+1, filter.Limit, int64(total)))
}

// GetByID handles GET /events/:id
func (h *EventHandler) GetByID(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.GetByID")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id := c.Param("id")
	span.SetAttributes(attribute.String("event_id", id))

	event, err := h.eventService.GetEvent(ctx, id)
	if err != nil {
		writeServiceError(c, span, err, "Failed to get event")
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, response.Success(dto.NewEventResponse(event)))
}

// AddSession handles POST /events/:id/sessions
func (h *EventHandler) AddSession(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.AddSession")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("id")
	span.SetAttributes(attribute.String("event_id", eventID))

	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, span, err, "Invalid request body")
		return
	}

	if valid, msg := req.Validate(); !valid {
		badRequest(c, span, nil, msg)
		return
	}

	session, err := h.eventService.AddSession(ctx, eventID, &req)
	if err != nil {
		writeServiceError(c, span, err, "Failed to add session")
		return
	}

	span.SetAttributes(attribute.String("session_id", session.ID))
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusCreated, response.Success(dto.NewSessionResponse(session)))
}

// AddTicketType handles POST /events/:id/ticket-types
func (h *EventHandler) AddTicketType(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.AddTicketType")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("id")
	span.SetAttributes(attribute.String("event_id", eventID))

	var req dto.CreateTicketTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, span, err, "Invalid request body")
		return
	}

	if valid, msg := req.Validate(); !valid {
		badRequest(c, span, nil, msg)
		return
	}

	ticketType, err := h.eventService.AddTicketType(ctx, eventID, &req)
	if err != nil {
		writeServiceError(c, span, err, "Failed to add ticket type")
		return
	}

	span.SetAttributes(attribute.String("ticket_type_id", ticketType.ID))
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusCreated, response.Success(dto.NewTicketTypeResponse(ticketType)))
}

// ListTicketTypes handles GET /events/:id/ticket-types
func (h *EventHandler) ListTicketTypes(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.ListTicketTypes")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("id")
	span.SetAttributes(attribute.String("event_id", eventID))

	ticketTypes, err := h.eventService.ListTicketTypes(ctx, eventID)
	if err != nil {
		writeServiceError(c, span, err, "Failed to list ticket types")
		return
	}

	ticketTypeResponses := make([]*dto.TicketTypeResponse, len(ticketTypes))
	for i, tt := range ticketTypes {
		ticketTypeResponses[i] = dto.NewTicketTypeResponse(tt)
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, response.Success(ticketTypeResponses))
}

// GetAvailability handles GET /events/:id/ticket-availability
func (h *EventHandler) GetAvailability(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.GetAvailability")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("id")
	span.SetAttributes(attribute.String("event_id", eventID))

	availability, err := h.availabilityService.GetAvailability(ctx, eventID)
	if err != nil {
		writeServiceError(c, span, err, "Failed to get availability")
		return
	}

	availabilityResponses := make([]*dto.AvailabilityResponse, len(availability))
	for i, a := range availability {
		availabilityResponses[i] = dto.NewAvailabilityResponse(a)
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, response.Success(availabilityResponses))
}

// GetTicketTypeAvailability handles GET /events/:id/ticket-types/:ticketTypeId/availability
func (h *EventHandler) GetTicketTypeAvailability(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.GetTicketTypeAvailability")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("id")
	ticketTypeID := c.Param("ticketTypeId")
	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("ticket_type_id", ticketTypeID),
	)

	availability, err := h.availabilityService.GetTicketTypeAvailability(ctx, eventID, ticketTypeID)
	if err != nil {
		writeServiceError(c, span, err, "Failed to get availability")
		return
	}

	span.SetAttributes(attribute.Int("available", availability.Available))
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, response.Success(dto.NewAvailabilityResponse(*availability)))
}
