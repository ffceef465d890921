package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prohmpiriya/session-ticketing/internal/domain"
)

// registrationColumns defines columns for registrations table
const registrationColumns = `id, event_id, ticket_type_id, user_id, quantity, status,
	payment_status, requires_payment, COALESCE(idempotency_key, '') AS idempotency_key,
	created_at, updated_at, cancelled_at`

// PostgresRegistrationRepository implements RegistrationRepository using PostgreSQL
type PostgresRegistrationRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRegistrationRepository creates a new PostgresRegistrationRepository
func NewPostgresRegistrationRepository(pool *pgxpool.Pool) *PostgresRegistrationRepository {
	return &PostgresRegistrationRepository{pool: pool}
}

// scanRegistration scans a row into a Registration
func scanRegistration(row pgx.Row) (*domain.Registration, error) {
	reg := &domain.Registration{}
	var status, paymentStatus string
	err := row.Scan(
		&reg.ID,
		&reg.EventID,
		&reg.TicketTypeID,
		&reg.UserID,
		&reg.Quantity,
		&status,
		&paymentStatus,
		&reg.RequiresPayment,
		&reg.IdempotencyKey,
		&reg.CreatedAt,
		&reg.UpdatedAt,
		&reg.CancelledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	reg.Status = domain.RegistrationStatus(status)
	reg.PaymentStatus = domain.PaymentStatus(paymentStatus)
	return reg, nil
}

func insertRegistration(ctx context.Context, q querier, reg *domain.Registration) error {
	query := `
		INSERT INTO registrations (id, event_id, ticket_type_id, user_id, quantity, status,
			payment_status, requires_payment, idempotency_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10, $11)
	`
	_, err := q.Exec(ctx, query,
		reg.ID,
		reg.EventID,
		reg.TicketTypeID,
		reg.UserID,
		reg.Quantity,
		string(reg.Status),
		string(reg.PaymentStatus),
		reg.RequiresPayment,
		reg.IdempotencyKey,
		reg.CreatedAt,
		reg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

// GetByID retrieves a registration by ID
func (r *PostgresRegistrationRepository) GetByID(ctx context.Context, id string) (*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`
	return scanRegistration(r.pool.QueryRow(ctx, query, id))
}

// ListByEvent retrieves registrations of an event with pagination
func (r *PostgresRegistrationRepository) ListByEvent(ctx context.Context, eventID string, limit, offset int) ([]*domain.Registration, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1`, eventID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + registrationColumns + ` FROM registrations
		WHERE event_id = $1
		ORDER BY created_at DESC, id ASC
		LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, eventID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var registrations []*domain.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, 0, err
		}
		registrations = append(registrations, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return registrations, total, nil
}

// ListConsumption returns one record per ticket type with the summed
// quantity of its non-cancelled registrations
func (r *PostgresRegistrationRepository) ListConsumption(ctx context.Context, eventID string) ([]domain.ConsumptionRecord, error) {
	return loadConsumption(ctx, r.pool, eventID)
}

// Cancel marks a registration cancelled if it is not already
func (r *PostgresRegistrationRepository) Cancel(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `
		UPDATE registrations
		SET status = 'cancelled', cancelled_at = $2, updated_at = $2
		WHERE id = $1 AND status <> 'cancelled'
	`
	result, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}
