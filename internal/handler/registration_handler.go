package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/session-ticketing/internal/dto"
	"github.com/prohmpiriya/session-ticketing/internal/service"
	"github.com/prohmpiriya/session-ticketing/pkg/middleware"
	"github.com/prohmpiriya/session-ticketing/pkg/response"
	"github.com/prohmpiriya/session-ticketing/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// RegistrationHandler handles registration requests
type RegistrationHandler struct {
	registrationService service.RegistrationService
}

// NewRegistrationHandler creates a new RegistrationHandler
func NewRegistrationHandler(registrationService service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrationService: registrationService}
}

// Register handles POST /events/:id/registrations
func (h *RegistrationHandler) Register(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.registration.Register")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("id")
	span.SetAttributes(attribute.String("event_id", eventID))

	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, span, err, "Invalid request body")
		return
	}

	req.EventID = eventID
	if key, ok := middleware.GetIdempotencyKey(c); ok {
		req.IdempotencyKey = key
	} else {
		req.IdempotencyKey = c.GetHeader(middleware.IdempotencyKeyHeader)
	}

	if valid, msg := req.Validate(); !valid {
		badRequest(c, span, nil, msg)
		return
	}

	reg, err := h.registrationService.Register(ctx, &req)
	if err != nil {
		writeServiceError(c, span, err, "Failed to register")
		return
	}

	span.SetAttributes(attribute.String("registration_id", reg.ID))
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusCreated, response.Success(dto.NewRegistrationResponse(reg)))
}

// ListByEvent handles GET /events/:id/registrations
func (h *RegistrationHandler) ListByEvent(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.registration.ListByEvent")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("id")
	span.SetAttributes(attribute.String("event_id", eventID))

	var filter dto.RegistrationListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, span, err, "Invalid query parameters")
		return
	}
	filter.SetDefaults()

	registrations, total, err := h.registrationService.ListRegistrations(ctx, eventID, filter.Limit, filter.Offset)
	if err != nil {
		writeServiceError(c, span, err, "Failed to list registrations")
		return
	}

	registrationResponses := make([]*dto.RegistrationResponse, len(registrations))
	for i, reg := range registrations {
		registrationResponses[i] = dto.NewRegistrationResponse(reg)
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, response.Paginated(registrationResponses, filter.Offset/filter.Limit+1, filter.Limit, int64(total)))
}

// GetByID handles GET /registrations/:id
func (h *RegistrationHandler) GetByID(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.registration.GetByID")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id := c.Param("id")
	span.SetAttributes(attribute.String("registration_id", id))

	reg, err := h.registrationService.GetRegistration(ctx, id)
	if err != nil {
		writeServiceError(c, span, err, "Failed to get registration")
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, response.Success(dto.NewRegistrationResponse(reg)))
}

// Cancel handles POST /registrations/:id/cancel
func (h *RegistrationHandler) Cancel(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.registration.Cancel")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id := c.Param("id")
	span.SetAttributes(attribute.String("registration_id", id))

	reg, err := h.registrationService.CancelRegistration(ctx, id)
	if err != nil {
		writeServiceError(c, span, err, "Failed to cancel registration")
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, response.Success(dto.NewRegistrationResponse(reg)))
}
