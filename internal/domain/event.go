package domain

import (
	"strings"
	"time"
)

// EventType drives the payment policy applied on registration
type EventType string

const (
	EventTypeSocial   EventType = "social"
	EventTypeClass    EventType = "class"
	EventTypeWorkshop EventType = "workshop"
)

// IsValid reports whether t is a known event type
func (t EventType) IsValid() bool {
	switch t {
	case EventTypeSocial, EventTypeClass, EventTypeWorkshop:
		return true
	}
	return false
}

// ParseEventType parses a case-insensitive event type name
func ParseEventType(s string) (EventType, bool) {
	t := EventType(strings.ToLower(strings.TrimSpace(s)))
	return t, t.IsValid()
}

// ConsumptionRecord is a completed or pending registration that consumes
// Quantity units from every session of its ticket type
type ConsumptionRecord struct {
	TicketTypeID string
	Quantity     int
}

// Event is the aggregate the availability calculator reads: its sessions,
// its ticket catalog and the full history of consumption records.
type Event struct {
	ID          string
	Title       string
	Description string
	EventType   EventType
	Location    string
	IsPublished bool
	OrganizerID string
	Sessions    []*Session
	TicketTypes []*TicketType
	Consumption []ConsumptionRecord
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewEvent returns an empty event ready for sessions and ticket types
func NewEvent(id, title string, eventType EventType) (*Event, error) {
	if strings.TrimSpace(id) == "" {
		return nil, argumentNull("event id")
	}
	if strings.TrimSpace(title) == "" {
		return nil, argumentNull("event title")
	}
	if !eventType.IsValid() {
		return nil, argumentNull("event type")
	}

	now := time.Now()
	return &Event{
		ID:        id,
		Title:     strings.TrimSpace(title),
		EventType: eventType,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// StartsAt returns the earliest scheduled session start, or the zero time
func (e *Event) StartsAt() time.Time {
	var first time.Time
	for _, s := range e.Sessions {
		if t := s.StartsAt(); first.IsZero() || t.Before(first) {
			first = t
		}
	}
	return first
}

// EndsAt returns the latest session end, or the zero time
func (e *Event) EndsAt() time.Time {
	var last time.Time
	for _, s := range e.Sessions {
		if t := s.EndsAt(); t.After(last) {
			last = t
		}
	}
	return last
}

// Clone returns a deep copy safe to mutate independently
func (e *Event) Clone() *Event {
	c := *e
	c.Sessions = make([]*Session, len(e.Sessions))
	for i, s := range e.Sessions {
		cp := *s
		c.Sessions[i] = &cp
	}
	c.TicketTypes = make([]*TicketType, len(e.TicketTypes))
	for i, t := range e.TicketTypes {
		cp := *t
		cp.SessionIDs = append([]string(nil), t.SessionIDs...)
		c.TicketTypes[i] = &cp
	}
	c.Consumption = append([]ConsumptionRecord(nil), e.Consumption...)
	return &c
}
