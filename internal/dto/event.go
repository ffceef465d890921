package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/prohmpiriya/session-ticketing/internal/domain"
	"github.com/shopspring/decimal"
)

// Wire formats for session dates and times
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// CreateEventRequest creates an event together with its sessions and ticket types
type CreateEventRequest struct {
	Title       string                    `json:"title" binding:"required,min=1,max=200"`
	Description string                    `json:"description" binding:"omitempty,max=5000"`
	EventType   string                    `json:"event_type" binding:"required"`
	Location    string                    `json:"location" binding:"omitempty,max=500"`
	IsPublished bool                      `json:"is_published"`
	OrganizerID string                    `json:"organizer_id" binding:"omitempty,max=100"`
	Sessions    []CreateSessionRequest    `json:"sessions"`
	TicketTypes []CreateTicketTypeRequest `json:"ticket_types"`
}

// Validate validates the CreateEventRequest
func (r *CreateEventRequest) Validate() (bool, string) {
	if strings.TrimSpace(r.Title) == "" {
		return false, "Event title is required"
	}
	if _, ok := domain.ParseEventType(r.EventType); !ok {
		return false, "Event type must be one of social, class, workshop"
	}
	if len(r.TicketTypes) > 0 && len(r.Sessions) == 0 {
		return false, "Ticket types require at least one session"
	}
	for i := range r.Sessions {
		if ok, msg := r.Sessions[i].Validate(); !ok {
			return false, fmt.Sprintf("sessions[%d]: %s", i, msg)
		}
	}
	for i := range r.TicketTypes {
		if ok, msg := r.TicketTypes[i].Validate(); !ok {
			return false, fmt.Sprintf("ticket_types[%d]: %s", i, msg)
		}
	}
	return true, ""
}

// CreateSessionRequest describes one session. Start and end times are
// optional but must be given together.
type CreateSessionRequest struct {
	ID        string `json:"id" binding:"required,max=50"`
	Name      string `json:"name" binding:"required,max=200"`
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Capacity  int    `json:"capacity"`
}

// Validate checks shape only; capacity and overlap rules live in the domain
func (r *CreateSessionRequest) Validate() (bool, string) {
	if strings.TrimSpace(r.ID) == "" {
		return false, "Session id is required"
	}
	if strings.TrimSpace(r.Name) == "" {
		return false, "Session name is required"
	}
	if _, err := r.ToParams(); err != nil {
		return false, err.Error()
	}
	return true, ""
}

// ToParams parses the wire format into domain parameters
func (r *CreateSessionRequest) ToParams() (domain.SessionParams, error) {
	date, err := time.Parse(DateLayout, r.Date)
	if err != nil {
		return domain.SessionParams{}, fmt.Errorf("invalid session date %q, expected YYYY-MM-DD", r.Date)
	}

	if (r.StartTime == "") != (r.EndTime == "") {
		return domain.SessionParams{}, fmt.Errorf("session start_time and end_time must be given together")
	}

	var start, end time.Duration
	if r.StartTime != "" {
		if start, err = parseClock(r.StartTime); err != nil {
			return domain.SessionParams{}, err
		}
		if end, err = parseClock(r.EndTime); err != nil {
			return domain.SessionParams{}, err
		}
	}

	return domain.SessionParams{
		ID:        strings.TrimSpace(r.ID),
		Name:      strings.TrimSpace(r.Name),
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Capacity:  r.Capacity,
	}, nil
}

// parseClock parses HH:MM, accepting 24:00 as end of day
func parseClock(s string) (time.Duration, error) {
	if s == "24:00" {
		return 24 * time.Hour, nil
	}
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// FormatClock renders an offset from midnight as HH:MM
func FormatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int((d%time.Hour)/time.Minute))
}

// CreateTicketTypeRequest describes one ticket type
type CreateTicketTypeRequest struct {
	ID          string           `json:"id" binding:"omitempty,max=100"`
	Name        string           `json:"name" binding:"required,max=200"`
	Description string           `json:"description" binding:"omitempty,max=1000"`
	Price       *decimal.Decimal `json:"price"`
	SessionIDs  []string         `json:"session_ids"`
	IsRSVPMode  bool             `json:"is_rsvp_mode"`
}

// Validate validates the CreateTicketTypeRequest
func (r *CreateTicketTypeRequest) Validate() (bool, string) {
	if strings.TrimSpace(r.Name) == "" {
		return false, "Ticket type name is required"
	}
	if r.Price == nil {
		return false, "Ticket type price is required"
	}
	return true, ""
}

// EventListFilter represents filters for listing events
type EventListFilter struct {
	EventType   string `form:"event_type"`
	IsPublished *bool  `form:"is_published"`
	Limit       int    `form:"limit"`
	Offset      int    `form:"offset"`
}

// SetDefaults sets default values for pagination
func (f *EventListFilter) SetDefaults() {
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

// EventResponse represents an event with its sessions and ticket catalog
type EventResponse struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	EventType   string                `json:"event_type"`
	Location    string                `json:"location"`
	IsPublished bool                  `json:"is_published"`
	OrganizerID string                `json:"organizer_id,omitempty"`
	StartsAt    *string               `json:"starts_at,omitempty"`
	EndsAt      *string               `json:"ends_at,omitempty"`
	Sessions    []*SessionResponse    `json:"sessions"`
	TicketTypes []*TicketTypeResponse `json:"ticket_types"`
	CreatedAt   string                `json:"created_at"`
	UpdatedAt   string                `json:"updated_at"`
}

// SessionResponse represents a session
type SessionResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Capacity  int    `json:"capacity"`
}

// TicketTypeResponse represents a ticket type
type TicketTypeResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	SessionIDs  []string        `json:"session_ids"`
	IsRSVPMode  bool            `json:"is_rsvp_mode"`
}

// NewEventResponse maps a domain event
func NewEventResponse(e *domain.Event) *EventResponse {
	resp := &EventResponse{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		EventType:   string(e.EventType),
		Location:    e.Location,
		IsPublished: e.IsPublished,
		OrganizerID: e.OrganizerID,
		Sessions:    make([]*SessionResponse, 0, len(e.Sessions)),
		TicketTypes: make([]*TicketTypeResponse, 0, len(e.TicketTypes)),
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   e.UpdatedAt.Format(time.RFC3339),
	}
	if start := e.StartsAt(); !start.IsZero() {
		s := start.Format(time.RFC3339)
		resp.StartsAt = &s
	}
	if end := e.EndsAt(); !end.IsZero() {
		s := end.Format(time.RFC3339)
		resp.EndsAt = &s
	}
	for _, s := range e.Sessions {
		resp.Sessions = append(resp.Sessions, NewSessionResponse(s))
	}
	for _, t := range e.TicketTypes {
		resp.TicketTypes = append(resp.TicketTypes, NewTicketTypeResponse(t))
	}
	return resp
}

// NewSessionResponse maps a domain session
func NewSessionResponse(s *domain.Session) *SessionResponse {
	return &SessionResponse{
		ID:        s.ID,
		Name:      s.Name,
		Date:      s.Date.Format(DateLayout),
		StartTime: FormatClock(s.StartTime),
		EndTime:   FormatClock(s.EndTime),
		Capacity:  s.Capacity,
	}
}

// NewTicketTypeResponse maps a domain ticket type
func NewTicketTypeResponse(t *domain.TicketType) *TicketTypeResponse {
	return &TicketTypeResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Price:       t.Price,
		SessionIDs:  append([]string(nil), t.SessionIDs...),
		IsRSVPMode:  t.IsRSVPMode,
	}
}
