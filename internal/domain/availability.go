package domain

// SessionRemaining is the unclamped remaining capacity of one session
type SessionRemaining struct {
	SessionID string
	Capacity  int
	Consumed  int
	Remaining int
}

// Availability is the computed purchasable quantity for a ticket type
type Availability struct {
	TicketTypeID string
	Name         string
	Available    int
	// Capacity is the smallest capacity among the included sessions
	Capacity int
	// LimitingSessions are the included sessions whose remaining equals the
	// minimum, in ticket order
	LimitingSessions []string
	Sessions         []SessionRemaining
}

// consumedBySession sums consumption per session. Records for ticket types
// outside the catalog are ignored.
func (e *Event) consumedBySession() map[string]int {
	consumed := make(map[string]int, len(e.Sessions))
	for _, r := range e.Consumption {
		tt, ok := e.TicketType(r.TicketTypeID)
		if !ok {
			continue
		}
		for _, sid := range tt.SessionIDs {
			consumed[sid] += r.Quantity
		}
	}
	return consumed
}

// CalculateAvailability returns how many more units of tt can be sold:
// the minimum remaining capacity over its sessions, never below zero.
func (e *Event) CalculateAvailability(tt *TicketType) int {
	if tt == nil {
		return 0
	}
	return e.breakdown(tt, e.consumedBySession()).Available
}

// AvailabilityBreakdown is CalculateAvailability with per-session detail
func (e *Event) AvailabilityBreakdown(tt *TicketType) Availability {
	return e.breakdown(tt, e.consumedBySession())
}

// AllAvailability computes every ticket type in catalog order
func (e *Event) AllAvailability() []Availability {
	consumed := e.consumedBySession()
	out := make([]Availability, 0, len(e.TicketTypes))
	for _, tt := range e.TicketTypes {
		out = append(out, e.breakdown(tt, consumed))
	}
	return out
}

// SessionRemaining returns capacity minus consumption for a session. The
// value is negative when the session has been oversold.
func (e *Event) SessionRemaining(sessionID string) (int, bool) {
	s, ok := e.Session(sessionID)
	if !ok {
		return 0, false
	}
	return s.Capacity - e.consumedBySession()[sessionID], true
}

func (e *Event) breakdown(tt *TicketType, consumed map[string]int) Availability {
	a := Availability{TicketTypeID: tt.ID, Name: tt.Name}

	first := true
	for _, sid := range tt.SessionIDs {
		s, ok := e.Session(sid)
		if !ok {
			continue
		}
		sr := SessionRemaining{
			SessionID: sid,
			Capacity:  s.Capacity,
			Consumed:  consumed[sid],
			Remaining: s.Capacity - consumed[sid],
		}
		a.Sessions = append(a.Sessions, sr)

		if first || sr.Remaining < a.Available {
			a.Available = sr.Remaining
		}
		if first || s.Capacity < a.Capacity {
			a.Capacity = s.Capacity
		}
		first = false
	}

	for _, sr := range a.Sessions {
		if sr.Remaining == a.Available {
			a.LimitingSessions = append(a.LimitingSessions, sr.SessionID)
		}
	}

	if a.Available < 0 {
		a.Available = 0
	}
	return a
}
