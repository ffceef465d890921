package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prohmpiriya/session-ticketing/internal/domain"
	"github.com/prohmpiriya/session-ticketing/pkg/database"
	"github.com/shopspring/decimal"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// eventColumns defines columns for events table
const eventColumns = `id, title, COALESCE(description, '') AS description, event_type,
	COALESCE(location, '') AS location, is_published, COALESCE(organizer_id, '') AS organizer_id,
	created_at, updated_at`

// PostgresEventRepository implements EventRepository using PostgreSQL
type PostgresEventRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresEventRepository creates a new PostgresEventRepository
func NewPostgresEventRepository(pool *pgxpool.Pool) *PostgresEventRepository {
	return &PostgresEventRepository{pool: pool}
}

// scanEvent scans a row into an Event without sessions or ticket types
func scanEvent(row pgx.Row) (*domain.Event, error) {
	e := &domain.Event{}
	var eventType string
	err := row.Scan(
		&e.ID,
		&e.Title,
		&e.Description,
		&eventType,
		&e.Location,
		&e.IsPublished,
		&e.OrganizerID,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	e.EventType = domain.EventType(eventType)
	return e, nil
}

// Create stores the event, its sessions and its ticket types in one transaction
func (r *PostgresEventRepository) Create(ctx context.Context, event *domain.Event) error {
	return database.InTx(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		query := `
			INSERT INTO events (id, title, description, event_type, location, is_published,
				organizer_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		if _, err := tx.Exec(ctx, query,
			event.ID,
			event.Title,
			event.Description,
			string(event.EventType),
			event.Location,
			event.IsPublished,
			event.OrganizerID,
			event.CreatedAt,
			event.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}

		for _, s := range event.Sessions {
			if err := insertSession(ctx, tx, event.ID, s); err != nil {
				return err
			}
		}
		for _, tt := range event.TicketTypes {
			if err := insertTicketType(ctx, tx, event.ID, tt); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID loads a full snapshot: sessions, ticket types and consumption
func (r *PostgresEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	event, err := scanEvent(r.pool.QueryRow(ctx, query, id))
	if err != nil || event == nil {
		return nil, err
	}
	if err := loadAggregate(ctx, r.pool, event, true); err != nil {
		return nil, err
	}
	return event, nil
}

// List returns events with sessions and ticket types, newest first
func (r *PostgresEventRepository) List(ctx context.Context, filter *EventFilter) ([]*domain.Event, int, error) {
	whereClause := "1=1"
	args := []interface{}{}
	argIndex := 1

	if filter.EventType != "" {
		whereClause += fmt.Sprintf(" AND event_type = $%d", argIndex)
		args = append(args, string(filter.EventType))
		argIndex++
	}
	if filter.IsPublished != nil {
		whereClause += fmt.Sprintf(" AND is_published = $%d", argIndex)
		args = append(args, *filter.IsPublished)
		argIndex++
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM events WHERE %s`, whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM events
		WHERE %s
		ORDER BY created_at DESC, id ASC
		LIMIT $%d OFFSET $%d`, eventColumns, whereClause, argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	var events []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			rows.Close()
			return nil, 0, err
		}
		events = append(events, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for _, e := range events {
		if err := loadAggregate(ctx, r.pool, e, false); err != nil {
			return nil, 0, err
		}
	}
	return events, total, nil
}

// ListIDs returns every event id, oldest first
func (r *PostgresEventRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM events ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// WithLock takes a row lock on the event (SELECT ... FOR UPDATE) at READ
// COMMITTED, reads the snapshot inside the same transaction, and commits
// whatever fn writes through tx.
func (r *PostgresEventRepository) WithLock(ctx context.Context, eventID string, fn func(event *domain.Event, tx EventTx) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	return database.InTx(ctx, r.pool, opts, func(tx pgx.Tx) error {
		query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`
		event, err := scanEvent(tx.QueryRow(ctx, query, eventID))
		if err != nil {
			return fmt.Errorf("lock event: %w", err)
		}
		if event == nil {
			return ErrNotFound
		}
		if err := loadAggregate(ctx, tx, event, true); err != nil {
			return err
		}
		return fn(event, &pgEventTx{tx: tx})
	})
}

// pgEventTx implements EventTx on an open transaction
type pgEventTx struct {
	tx pgx.Tx
}

func (t *pgEventTx) InsertSession(ctx context.Context, eventID string, s *domain.Session) error {
	if err := insertSession(ctx, t.tx, eventID, s); err != nil {
		return err
	}
	_, err := t.tx.Exec(ctx, `UPDATE events SET updated_at = $2 WHERE id = $1`, eventID, time.Now())
	return err
}

func (t *pgEventTx) InsertTicketType(ctx context.Context, eventID string, tt *domain.TicketType) error {
	if err := insertTicketType(ctx, t.tx, eventID, tt); err != nil {
		return err
	}
	_, err := t.tx.Exec(ctx, `UPDATE events SET updated_at = $2 WHERE id = $1`, eventID, time.Now())
	return err
}

func (t *pgEventTx) InsertRegistration(ctx context.Context, reg *domain.Registration) error {
	return insertRegistration(ctx, t.tx, reg)
}

func (t *pgEventTx) FindRegistrationByKey(ctx context.Context, eventID, key string) (*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE event_id = $1 AND idempotency_key = $2`
	return scanRegistration(t.tx.QueryRow(ctx, query, eventID, key))
}

func insertSession(ctx context.Context, q querier, eventID string, s *domain.Session) error {
	query := `
		INSERT INTO event_sessions (event_id, session_code, name, session_date, start_time,
			end_time, capacity, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7,
			(SELECT COALESCE(MAX(position), -1) + 1 FROM event_sessions WHERE event_id = $1))
	`
	_, err := q.Exec(ctx, query,
		eventID,
		s.ID,
		s.Name,
		s.Date,
		clockToPg(s.StartTime),
		clockToPg(s.EndTime),
		s.Capacity,
	)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", s.ID, err)
	}
	return nil
}

func insertTicketType(ctx context.Context, q querier, eventID string, tt *domain.TicketType) error {
	query := `
		INSERT INTO ticket_types (id, event_id, name, description, price, is_rsvp_mode, position)
		VALUES ($1, $2, $3, $4, $5::numeric, $6,
			(SELECT COALESCE(MAX(position), -1) + 1 FROM ticket_types WHERE event_id = $2))
	`
	if _, err := q.Exec(ctx, query,
		tt.ID,
		eventID,
		tt.Name,
		tt.Description,
		tt.Price.String(),
		tt.IsRSVPMode,
	); err != nil {
		return fmt.Errorf("insert ticket type %s: %w", tt.ID, err)
	}

	for i, sid := range tt.SessionIDs {
		if _, err := q.Exec(ctx, `
			INSERT INTO ticket_type_sessions (ticket_type_id, event_id, session_code, position)
			VALUES ($1, $2, $3, $4)
		`, tt.ID, eventID, sid, i); err != nil {
			return fmt.Errorf("link ticket type %s to session %s: %w", tt.ID, sid, err)
		}
	}
	return nil
}

// loadAggregate fills sessions, ticket types and optionally consumption
func loadAggregate(ctx context.Context, q querier, e *domain.Event, withConsumption bool) error {
	sessions, err := loadSessions(ctx, q, e.ID)
	if err != nil {
		return err
	}
	ticketTypes, err := loadTicketTypes(ctx, q, e.ID)
	if err != nil {
		return err
	}
	e.Sessions = sessions
	e.TicketTypes = ticketTypes

	if withConsumption {
		consumption, err := loadConsumption(ctx, q, e.ID)
		if err != nil {
			return err
		}
		e.Consumption = consumption
	}
	return nil
}

func loadSessions(ctx context.Context, q querier, eventID string) ([]*domain.Session, error) {
	rows, err := q.Query(ctx, `
		SELECT session_code, name, session_date, start_time, end_time, capacity
		FROM event_sessions WHERE event_id = $1 ORDER BY position ASC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*domain.Session
	for rows.Next() {
		s := &domain.Session{}
		var start, end pgtype.Time
		if err := rows.Scan(&s.ID, &s.Name, &s.Date, &start, &end, &s.Capacity); err != nil {
			return nil, err
		}
		s.StartTime = clockFromPg(start)
		s.EndTime = clockFromPg(end)
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func loadTicketTypes(ctx context.Context, q querier, eventID string) ([]*domain.TicketType, error) {
	rows, err := q.Query(ctx, `
		SELECT id, name, COALESCE(description, ''), price::text, is_rsvp_mode
		FROM ticket_types WHERE event_id = $1 ORDER BY position ASC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("load ticket types: %w", err)
	}

	var ticketTypes []*domain.TicketType
	byID := make(map[string]*domain.TicketType)
	for rows.Next() {
		tt := &domain.TicketType{}
		var price string
		if err := rows.Scan(&tt.ID, &tt.Name, &tt.Description, &price, &tt.IsRSVPMode); err != nil {
			rows.Close()
			return nil, err
		}
		if tt.Price, err = decimal.NewFromString(price); err != nil {
			rows.Close()
			return nil, fmt.Errorf("parse price of ticket type %s: %w", tt.ID, err)
		}
		ticketTypes = append(ticketTypes, tt)
		byID[tt.ID] = tt
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	links, err := q.Query(ctx, `
		SELECT ticket_type_id, session_code FROM ticket_type_sessions
		WHERE event_id = $1 ORDER BY ticket_type_id, position ASC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("load ticket type sessions: %w", err)
	}
	defer links.Close()

	for links.Next() {
		var ttID, sid string
		if err := links.Scan(&ttID, &sid); err != nil {
			return nil, err
		}
		if tt, ok := byID[ttID]; ok {
			tt.SessionIDs = append(tt.SessionIDs, sid)
		}
	}
	return ticketTypes, links.Err()
}

// loadConsumption aggregates non-cancelled registrations per ticket type
func loadConsumption(ctx context.Context, q querier, eventID string) ([]domain.ConsumptionRecord, error) {
	rows, err := q.Query(ctx, `
		SELECT ticket_type_id, SUM(quantity)
		FROM registrations
		WHERE event_id = $1 AND status <> 'cancelled'
		GROUP BY ticket_type_id
		ORDER BY ticket_type_id
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("load consumption: %w", err)
	}
	defer rows.Close()

	var records []domain.ConsumptionRecord
	for rows.Next() {
		var ttID string
		var qty int64
		if err := rows.Scan(&ttID, &qty); err != nil {
			return nil, err
		}
		records = append(records, domain.ConsumptionRecord{TicketTypeID: ttID, Quantity: int(qty)})
	}
	return records, rows.Err()
}

func clockToPg(d time.Duration) pgtype.Time {
	return pgtype.Time{Microseconds: d.Microseconds(), Valid: true}
}

func clockFromPg(t pgtype.Time) time.Duration {
	if !t.Valid {
		return 0
	}
	return time.Duration(t.Microseconds) * time.Microsecond
}
