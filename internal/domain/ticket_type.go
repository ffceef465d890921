package domain

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TicketType is a purchasable product granting access to one or more sessions
type TicketType struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	// SessionIDs is ordered and free of duplicates
	SessionIDs []string
	// IsRSVPMode marks a free reservation instead of a paid ticket
	IsRSVPMode bool
}

// TicketTypeOptions are optional attributes for CreateTicketType
type TicketTypeOptions struct {
	ID          string // generated when empty
	Description string
	IsRSVPMode  bool
}

// Includes reports whether the ticket type grants access to the session
func (t *TicketType) Includes(sessionID string) bool {
	for _, id := range t.SessionIDs {
		if id == sessionID {
			return true
		}
	}
	return false
}

// CreateTicketType validates and appends a ticket type covering sessionIDs.
// Duplicate ids are collapsed keeping their first position.
func (e *Event) CreateTicketType(name string, price decimal.Decimal, sessionIDs []string, opts TicketTypeOptions) (*TicketType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, argumentNull("ticket type name")
	}
	if price.IsNegative() {
		return nil, newError(KindInvalidPrice, "ticket type price must be greater than or equal to zero")
	}
	if !price.Equal(price.Round(2)) {
		return nil, newError(KindInvalidPrice, "ticket type price must have at most 2 decimal places")
	}
	if len(sessionIDs) == 0 {
		return nil, newError(KindArgumentNull, "ticket type must include at least one session")
	}

	seen := make(map[string]struct{}, len(sessionIDs))
	ids := make([]string, 0, len(sessionIDs))
	for _, raw := range sessionIDs {
		id := strings.TrimSpace(raw)
		if id == "" {
			return nil, argumentNull("session id")
		}
		if _, dup := seen[id]; dup {
			continue
		}
		if _, ok := e.Session(id); !ok {
			return nil, newError(KindUnknownSessionReference, "session '%s' does not exist", id)
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	id := opts.ID
	if id == "" {
		id = uuid.New().String()
	}
	if _, exists := e.TicketType(id); exists {
		return nil, newError(KindDuplicateTicketType, "ticket type '%s' already exists", id)
	}

	tt := &TicketType{
		ID:          id,
		Name:        name,
		Description: opts.Description,
		Price:       price,
		SessionIDs:  ids,
		IsRSVPMode:  opts.IsRSVPMode,
	}
	e.TicketTypes = append(e.TicketTypes, tt)
	return tt, nil
}

// TicketType returns the ticket type with the given id
func (e *Event) TicketType(id string) (*TicketType, bool) {
	for _, t := range e.TicketTypes {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}
