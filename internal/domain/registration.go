package domain

import (
	"strings"
	"time"
)

// RegistrationStatus is the lifecycle state of a registration
type RegistrationStatus string

const (
	RegistrationStatusConfirmed RegistrationStatus = "confirmed"
	RegistrationStatusPending   RegistrationStatus = "pending"
	RegistrationStatusCancelled RegistrationStatus = "cancelled"
)

// PaymentStatus tracks whether money is owed for a registration
type PaymentStatus string

const (
	PaymentStatusNotRequired PaymentStatus = "not_required"
	PaymentStatusPending     PaymentStatus = "pending"
)

// Registration is the persisted form of a consumption record
type Registration struct {
	ID              string
	EventID         string
	TicketTypeID    string
	UserID          string
	Quantity        int
	Status          RegistrationStatus
	PaymentStatus   PaymentStatus
	RequiresPayment bool
	IdempotencyKey  string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CancelledAt     *time.Time
}

// ConsumesCapacity reports whether the registration counts against sessions
func (r *Registration) ConsumesCapacity() bool {
	return r.Status != RegistrationStatusCancelled
}

// RegistrationResult is the outcome of RegisterAttendee
type RegistrationResult struct {
	RequiresPayment bool
	Status          RegistrationStatus
	PaymentStatus   PaymentStatus
	Record          ConsumptionRecord
}

// PaymentPolicy returns the registration outcome for an event type and
// ticket mode. Only RSVP tickets to social events are free; every other
// combination waits for payment.
func PaymentPolicy(eventType EventType, rsvp bool) (requiresPayment bool, status RegistrationStatus, payment PaymentStatus) {
	if eventType == EventTypeSocial && rsvp {
		return false, RegistrationStatusConfirmed, PaymentStatusNotRequired
	}
	return true, RegistrationStatusPending, PaymentStatusPending
}

// RegisterAttendee appends a consumption record for quantity units of tt and
// reports the payment outcome. It does not check availability; callers that
// must not oversell compare against CalculateAvailability under a lock.
func (e *Event) RegisterAttendee(userID string, tt *TicketType, quantity int) (*RegistrationResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, argumentNull("user")
	}
	if tt == nil {
		return nil, argumentNull("ticket type")
	}
	if _, ok := e.TicketType(tt.ID); !ok {
		return nil, newError(KindUnknownTicketType, "ticket type '%s' does not belong to event '%s'", tt.ID, e.ID)
	}
	if quantity <= 0 {
		return nil, newError(KindInvalidQuantity, "quantity must be greater than zero")
	}

	rec := ConsumptionRecord{TicketTypeID: tt.ID, Quantity: quantity}
	e.Consumption = append(e.Consumption, rec)

	requires, status, payment := PaymentPolicy(e.EventType, tt.IsRSVPMode)
	return &RegistrationResult{
		RequiresPayment: requires,
		Status:          status,
		PaymentStatus:   payment,
		Record:          rec,
	}, nil
}
