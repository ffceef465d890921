package domain

import "time"

// RegistrationEventType names a registration lifecycle message
type RegistrationEventType string

const (
	RegistrationEventCreated   RegistrationEventType = "registration.created"
	RegistrationEventCancelled RegistrationEventType = "registration.cancelled"
)

// RegistrationEvent is published whenever consumption changes
type RegistrationEvent struct {
	ID              string                `json:"id"`
	Type            RegistrationEventType `json:"type"`
	EventID         string                `json:"event_id"`
	RegistrationID  string                `json:"registration_id"`
	TicketTypeID    string                `json:"ticket_type_id"`
	UserID          string                `json:"user_id"`
	Quantity        int                   `json:"quantity"`
	Status          RegistrationStatus    `json:"status"`
	PaymentStatus   PaymentStatus         `json:"payment_status"`
	RequiresPayment bool                  `json:"requires_payment"`
	OccurredAt      time.Time             `json:"occurred_at"`
}

// NewRegistrationEvent builds a message for reg
func NewRegistrationEvent(eventType RegistrationEventType, reg *Registration, id string) *RegistrationEvent {
	return &RegistrationEvent{
		ID:              id,
		Type:            eventType,
		EventID:         reg.EventID,
		RegistrationID:  reg.ID,
		TicketTypeID:    reg.TicketTypeID,
		UserID:          reg.UserID,
		Quantity:        reg.Quantity,
		Status:          reg.Status,
		PaymentStatus:   reg.PaymentStatus,
		RequiresPayment: reg.RequiresPayment,
		OccurredAt:      time.Now(),
	}
}

// Key partitions messages by event so one event's changes stay ordered
func (e *RegistrationEvent) Key() string {
	return e.EventID
}
