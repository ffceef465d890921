package dto

import (
	"strings"
	"time"

	"github.com/prohmpiriya/session-ticketing/internal/domain"
)

// RegisterRequest registers a user for a ticket type
type RegisterRequest struct {
	EventID        string `json:"-"` // Set from URL param
	IdempotencyKey string `json:"-"` // Set from header
	TicketTypeID   string `json:"ticket_type_id" binding:"required"`
	UserID         string `json:"user_id" binding:"required"`
	Quantity       *int   `json:"quantity"`
}

// Validate validates the RegisterRequest. A missing quantity means one.
func (r *RegisterRequest) Validate() (bool, string) {
	if strings.TrimSpace(r.TicketTypeID) == "" {
		return false, "Ticket type ID is required"
	}
	if strings.TrimSpace(r.UserID) == "" {
		return false, "User ID is required"
	}
	if r.Quantity == nil {
		one := 1
		r.Quantity = &one
	}
	if *r.Quantity <= 0 {
		return false, "Quantity must be greater than 0"
	}
	return true, ""
}

// RegistrationResponse represents a registration
type RegistrationResponse struct {
	ID              string  `json:"id"`
	EventID         string  `json:"event_id"`
	TicketTypeID    string  `json:"ticket_type_id"`
	UserID          string  `json:"user_id"`
	Quantity        int     `json:"quantity"`
	Status          string  `json:"status"`
	PaymentRequired bool    `json:"payment_required"`
	PaymentStatus   string  `json:"payment_status"`
	CreatedAt       string  `json:"created_at"`
	CancelledAt     *string `json:"cancelled_at,omitempty"`
}

// NewRegistrationResponse maps a domain registration
func NewRegistrationResponse(r *domain.Registration) *RegistrationResponse {
	resp := &RegistrationResponse{
		ID:              r.ID,
		EventID:         r.EventID,
		TicketTypeID:    r.TicketTypeID,
		UserID:          r.UserID,
		Quantity:        r.Quantity,
		Status:          string(r.Status),
		PaymentRequired: r.RequiresPayment,
		PaymentStatus:   string(r.PaymentStatus),
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
	}
	if r.CancelledAt != nil {
		s := r.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &s
	}
	return resp
}

// SessionRemainingResponse is one session's share of an availability result
type SessionRemainingResponse struct {
	SessionID string `json:"session_id"`
	Capacity  int    `json:"capacity"`
	Consumed  int    `json:"consumed"`
	Remaining int    `json:"remaining"`
}

// AvailabilityResponse is the purchasable quantity of a ticket type
type AvailabilityResponse struct {
	TicketTypeID     string                     `json:"ticket_type_id"`
	Name             string                     `json:"name"`
	Available        int                        `json:"available"`
	Capacity         int                        `json:"capacity"`
	LimitingSessions []string                   `json:"limiting_sessions"`
	Sessions         []SessionRemainingResponse `json:"sessions"`
}

// NewAvailabilityResponse maps a domain availability result
func NewAvailabilityResponse(a domain.Availability) *AvailabilityResponse {
	resp := &AvailabilityResponse{
		TicketTypeID:     a.TicketTypeID,
		Name:             a.Name,
		Available:        a.Available,
		Capacity:         a.Capacity,
		LimitingSessions: append([]string{}, a.LimitingSessions...),
		Sessions:         make([]SessionRemainingResponse, 0, len(a.Sessions)),
	}
	for _, s := range a.Sessions {
		resp.Sessions = append(resp.Sessions, SessionRemainingResponse(s))
	}
	return resp
}

// RegistrationListFilter represents pagination for listing registrations
type RegistrationListFilter struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// SetDefaults sets default values for pagination
func (f *RegistrationListFilter) SetDefaults() {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}
