package domain

import (
	"strings"
	"time"
)

// Session is an atomic unit of capacity within an event, typically one day
// or one time block. StartTime and EndTime are offsets from midnight of Date;
// a session with both at zero is unscheduled and never overlaps another.
type Session struct {
	ID        string
	Name      string
	Date      time.Time
	StartTime time.Duration
	EndTime   time.Duration
	Capacity  int
}

// SessionParams are the inputs to Event.CreateSession
type SessionParams struct {
	ID        string
	Name      string
	Date      time.Time
	StartTime time.Duration
	EndTime   time.Duration
	Capacity  int
}

// Overlaps reports whether both sessions share a date and their half-open
// windows [start, end) intersect. Touching windows do not overlap.
func (s *Session) Overlaps(o *Session) bool {
	if !sameDate(s.Date, o.Date) {
		return false
	}
	return s.StartTime < o.EndTime && o.StartTime < s.EndTime
}

// StartsAt returns the absolute start instant
func (s *Session) StartsAt() time.Time {
	return dateOnly(s.Date).Add(s.StartTime)
}

// EndsAt returns the absolute end instant
func (s *Session) EndsAt() time.Time {
	return dateOnly(s.Date).Add(s.EndTime)
}

// CreateSession validates p against the event's existing sessions and
// appends the new session.
func (e *Event) CreateSession(p SessionParams) (*Session, error) {
	id := strings.TrimSpace(p.ID)
	if id == "" {
		return nil, argumentNull("session id")
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, argumentNull("session name")
	}
	if p.Capacity <= 0 {
		return nil, newError(KindInvalidCapacity, "session capacity must be greater than zero")
	}
	if p.StartTime < 0 || p.EndTime < 0 || p.EndTime > 24*time.Hour || p.StartTime > 24*time.Hour {
		return nil, newError(KindInvalidTimeWindow, "session '%s' times must fall within the day", id)
	}
	if p.EndTime < p.StartTime {
		return nil, newError(KindInvalidTimeWindow, "session '%s' end time must not be before its start time", id)
	}

	s := &Session{
		ID:        id,
		Name:      name,
		Date:      dateOnly(p.Date),
		StartTime: p.StartTime,
		EndTime:   p.EndTime,
		Capacity:  p.Capacity,
	}

	for _, existing := range e.Sessions {
		if existing.ID == s.ID {
			return nil, newError(KindDuplicateSession, "session '%s' already exists", s.ID)
		}
		if existing.Overlaps(s) {
			return nil, newError(KindOverlappingSession,
				"sessions cannot overlap on the same date: '%s' overlaps '%s'", s.ID, existing.ID)
		}
	}

	e.Sessions = append(e.Sessions, s)
	return s, nil
}

// Session returns the session with the given id
func (e *Event) Session(id string) (*Session, bool) {
	for _, s := range e.Sessions {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
