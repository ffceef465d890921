package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prohmpiriya/session-ticketing/internal/domain"
)

// MemoryStore implements EventRepository in process; Registrations returns
// the matching RegistrationRepository view. Writes issued inside WithLock are
// buffered and applied only when the callback succeeds.
type MemoryStore struct {
	mu            sync.RWMutex
	events        map[string]*domain.Event
	eventOrder    []string
	registrations map[string]*domain.Registration
	byEvent       map[string][]string

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:        make(map[string]*domain.Event),
		registrations: make(map[string]*domain.Registration),
		byEvent:       make(map[string][]string),
		locks:         make(map[string]*sync.Mutex),
	}
}

// eventLock returns the event's mutex, or nil for unknown events so lookups
// of missing ids leave no entry behind. Events are never removed.
func (s *MemoryStore) eventLock(id string) *sync.Mutex {
	s.mu.RLock()
	_, exists := s.events[id]
	s.mu.RUnlock()
	if !exists {
		return nil
	}

	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// Create stores a copy of event
func (s *MemoryStore) Create(ctx context.Context, event *domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.events[event.ID]; exists {
		return fmt.Errorf("event %s already exists", event.ID)
	}
	stored := event.Clone()
	stored.Consumption = nil
	s.events[event.ID] = stored
	s.eventOrder = append(s.eventOrder, event.ID)
	return nil
}

// GetByID returns a snapshot with consumption, or nil when missing
func (s *MemoryStore) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(id), nil
}

func (s *MemoryStore) snapshotLocked(id string) *domain.Event {
	stored, ok := s.events[id]
	if !ok {
		return nil
	}
	e := stored.Clone()
	e.Consumption = s.consumptionLocked(id)
	return e
}

func (s *MemoryStore) consumptionLocked(eventID string) []domain.ConsumptionRecord {
	var records []domain.ConsumptionRecord
	for _, regID := range s.byEvent[eventID] {
		reg := s.registrations[regID]
		if reg.ConsumesCapacity() {
			records = append(records, domain.ConsumptionRecord{TicketTypeID: reg.TicketTypeID, Quantity: reg.Quantity})
		}
	}
	return records
}

// List returns matching events newest first, without consumption
func (s *MemoryStore) List(ctx context.Context, filter *EventFilter) ([]*domain.Event, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*domain.Event
	for _, id := range s.eventOrder {
		e := s.events[id]
		if filter.EventType != "" && e.EventType != filter.EventType {
			continue
		}
		if filter.IsPublished != nil && e.IsPublished != *filter.IsPublished {
			continue
		}
		matched = append(matched, e)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	start := min(filter.Offset, total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}

	page := make([]*domain.Event, 0, end-start)
	for _, e := range matched[start:end] {
		page = append(page, e.Clone())
	}
	return page, total, nil
}

// ListIDs returns every event id in creation order
func (s *MemoryStore) ListIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.eventOrder...), nil
}

// WithLock serialises callers per event
func (s *MemoryStore) WithLock(ctx context.Context, eventID string, fn func(event *domain.Event, tx EventTx) error) error {
	lock := s.eventLock(eventID)
	if lock == nil {
		return ErrNotFound
	}
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	event := s.snapshotLocked(eventID)
	s.mu.RUnlock()
	if event == nil {
		return ErrNotFound
	}

	tx := &memoryTx{store: s}
	if err := fn(event, tx); err != nil {
		return err
	}
	return tx.commit(eventID)
}

func (s *MemoryStore) getRegistration(id string) *domain.Registration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg, ok := s.registrations[id]
	if !ok {
		return nil
	}
	cp := *reg
	return &cp
}

// Registrations exposes the store as a RegistrationRepository
func (s *MemoryStore) Registrations() RegistrationRepository {
	return &memoryRegistrations{store: s}
}

type memoryRegistrations struct {
	store *MemoryStore
}

func (r *memoryRegistrations) GetByID(ctx context.Context, id string) (*domain.Registration, error) {
	return r.store.getRegistration(id), nil
}

func (r *memoryRegistrations) ListByEvent(ctx context.Context, eventID string, limit, offset int) ([]*domain.Registration, int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byEvent[eventID]
	total := len(ids)
	start := min(offset, total)
	end := total
	if limit > 0 {
		end = min(start+limit, total)
	}

	result := make([]*domain.Registration, 0, end-start)
	for i := start; i < end; i++ {
		// newest first
		cp := *s.registrations[ids[total-1-i]]
		result = append(result, &cp)
	}
	return result, total, nil
}

func (r *memoryRegistrations) ListConsumption(ctx context.Context, eventID string) ([]domain.ConsumptionRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.consumptionLocked(eventID), nil
}

func (r *memoryRegistrations) Cancel(ctx context.Context, id string, at time.Time) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.registrations[id]
	if !ok || reg.Status == domain.RegistrationStatusCancelled {
		return false, nil
	}
	reg.Status = domain.RegistrationStatusCancelled
	reg.CancelledAt = &at
	reg.UpdatedAt = at
	return true, nil
}

// memoryTx buffers writes until commit
type memoryTx struct {
	store         *MemoryStore
	sessions      []*domain.Session
	ticketTypes   []*domain.TicketType
	registrations []*domain.Registration
}

func (t *memoryTx) InsertSession(ctx context.Context, eventID string, s *domain.Session) error {
	cp := *s
	t.sessions = append(t.sessions, &cp)
	return nil
}

func (t *memoryTx) InsertTicketType(ctx context.Context, eventID string, tt *domain.TicketType) error {
	cp := *tt
	cp.SessionIDs = append([]string(nil), tt.SessionIDs...)
	t.ticketTypes = append(t.ticketTypes, &cp)
	return nil
}

func (t *memoryTx) InsertRegistration(ctx context.Context, reg *domain.Registration) error {
	cp := *reg
	t.registrations = append(t.registrations, &cp)
	return nil
}

func (t *memoryTx) FindRegistrationByKey(ctx context.Context, eventID, key string) (*domain.Registration, error) {
	if key == "" {
		return nil, nil
	}
	for _, reg := range t.registrations {
		if reg.IdempotencyKey == key {
			cp := *reg
			return &cp, nil
		}
	}

	s := t.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.byEvent[eventID] {
		if reg := s.registrations[id]; reg.IdempotencyKey == key {
			cp := *reg
			return &cp, nil
		}
	}
	return nil, nil
}

func (t *memoryTx) commit(eventID string) error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[eventID]
	if !ok {
		return ErrNotFound
	}
	for _, reg := range t.registrations {
		if _, exists := s.registrations[reg.ID]; exists {
			return fmt.Errorf("registration %s already exists", reg.ID)
		}
	}

	if len(t.sessions) > 0 || len(t.ticketTypes) > 0 {
		event.Sessions = append(event.Sessions, t.sessions...)
		event.TicketTypes = append(event.TicketTypes, t.ticketTypes...)
		event.UpdatedAt = time.Now()
	}
	for _, reg := range t.registrations {
		s.registrations[reg.ID] = reg
		s.byEvent[eventID] = append(s.byEvent[eventID], reg.ID)
	}
	return nil
}
