package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/session-ticketing/internal/domain"
	"github.com/prohmpiriya/session-ticketing/internal/service"
	"github.com/prohmpiriya/session-ticketing/pkg/response"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// writeServiceError translates a service error into the response envelope.
// Domain messages are returned verbatim; unknown errors become fallback.
func writeServiceError(c *gin.Context, span trace.Span, err error, fallback string) {
	span.RecordError(err)

	var domainErr *domain.DomainError
	switch {
	case errors.As(err, &domainErr):
		span.SetStatus(codes.Error, domainErr.Message)
		c.JSON(http.StatusBadRequest, response.ValidationError(domainErr.Message))
	case errors.Is(err, service.ErrInvalidRequest):
		msg := strings.TrimPrefix(err.Error(), service.ErrInvalidRequest.Error()+": ")
		span.SetStatus(codes.Error, msg)
		c.JSON(http.StatusBadRequest, response.BadRequest(msg))
	case errors.Is(err, service.ErrInsufficientCapacity):
		span.SetStatus(codes.Error, "Insufficient capacity")
		c.JSON(http.StatusBadRequest, response.Error(response.CodeInsufficientCapacity, service.ErrInsufficientCapacity.Error()))
	case errors.Is(err, service.ErrEventNotFound):
		span.SetStatus(codes.Error, "Event not found")
		c.JSON(http.StatusNotFound, response.NotFound("Event not found"))
	case errors.Is(err, service.ErrTicketTypeNotFound):
		span.SetStatus(codes.Error, "Ticket type not found")
		c.JSON(http.StatusNotFound, response.NotFound("Ticket type not found"))
	case errors.Is(err, service.ErrRegistrationNotFound):
		span.SetStatus(codes.Error, "Registration not found")
		c.JSON(http.StatusNotFound, response.NotFound("Registration not found"))
	case errors.Is(err, service.ErrRegistrationAlreadyCancelled):
		span.SetStatus(codes.Error, "Registration already cancelled")
		c.JSON(http.StatusConflict, response.Conflict("Registration already cancelled"))
	default:
		span.SetStatus(codes.Error, fallback)
		c.JSON(http.StatusInternalServerError, response.InternalError(fallback))
	}
}

// badRequest records a request-shape failure on the span
func badRequest(c *gin.Context, span trace.Span, err error, msg string) {
	if err == nil {
		err = errors.New(msg)
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	c.JSON(http.StatusBadRequest, response.BadRequest(msg))
}
