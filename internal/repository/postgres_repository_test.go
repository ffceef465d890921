package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prohmpiriya/session-ticketing/internal/domain"
	"github.com/prohmpiriya/session-ticketing/pkg/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipIfNoIntegration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run.")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func setupTestDB(t *testing.T) *database.PostgresDB {
	ctx := context.Background()

	cfg := database.DefaultPostgresConfig()
	cfg.Host = getEnv("POSTGRES_HOST", "localhost")
	cfg.User = getEnv("POSTGRES_USER", "postgres")
	cfg.Password = getEnv("POSTGRES_PASSWORD", "")
	cfg.Database = getEnv("POSTGRES_DB", "events_db")
	if port, err := strconv.Atoi(getEnv("POSTGRES_PORT", "5432")); err == nil {
		cfg.Port = port
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.RetryInterval = time.Second

	db, err := database.NewPostgres(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	if err := Migrate(ctx, db.Pool()); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func cleanupEvent(t *testing.T, db *database.PostgresDB, eventID string) {
	if _, err := db.Pool().Exec(context.Background(), "DELETE FROM events WHERE id = $1", eventID); err != nil {
		t.Logf("Warning: failed to cleanup test data: %v", err)
	}
}

func newPostgresTestEvent(t *testing.T) *domain.Event {
	t.Helper()
	e, err := domain.NewEvent(uuid.New().String(), "Festival", domain.EventTypeClass)
	require.NoError(t, err)
	_, err = e.CreateSession(domain.SessionParams{ID: "S1", Name: "Friday", Date: testDate, StartTime: 18 * time.Hour, EndTime: 24 * time.Hour, Capacity: 20})
	require.NoError(t, err)
	_, err = e.CreateSession(domain.SessionParams{ID: "S2", Name: "Saturday", Date: testDate.AddDate(0, 0, 1), StartTime: 9 * time.Hour, EndTime: 17 * time.Hour, Capacity: 18})
	require.NoError(t, err)
	_, err = e.CreateTicketType("Full Pass", decimal.RequireFromString("150.50"), []string{"S2", "S1"}, domain.TicketTypeOptions{ID: e.ID + "-full"})
	require.NoError(t, err)
	return e
}

func TestPostgresEventRepository_RoundTrip(t *testing.T) {
	skipIfNoIntegration(t)

	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	repo := NewPostgresEventRepository(db.Pool())
	event := newPostgresTestEvent(t)
	defer cleanupEvent(t, db, event.ID)

	require.NoError(t, repo.Create(ctx, event))

	got, err := repo.GetByID(ctx, event.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Sessions, 2)
	assert.Equal(t, "S1", got.Sessions[0].ID)
	assert.Equal(t, 24*time.Hour, got.Sessions[0].EndTime)
	assert.True(t, got.Sessions[1].Date.Equal(testDate.AddDate(0, 0, 1)))
	require.Len(t, got.TicketTypes, 1)
	assert.Equal(t, []string{"S2", "S1"}, got.TicketTypes[0].SessionIDs)
	assert.True(t, got.TicketTypes[0].Price.Equal(decimal.RequireFromString("150.50")))

	missing, err := repo.GetByID(ctx, uuid.New().String())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPostgresEventRepository_WithLock_NoOversell(t *testing.T) {
	skipIfNoIntegration(t)

	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	repo := NewPostgresEventRepository(db.Pool())
	regs := NewPostgresRegistrationRepository(db.Pool())
	event := newPostgresTestEvent(t)
	defer cleanupEvent(t, db, event.ID)
	require.NoError(t, repo.Create(ctx, event))

	ttID := event.TicketTypes[0].ID
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = repo.WithLock(ctx, event.ID, func(e *domain.Event, tx EventTx) error {
				tt, _ := e.TicketType(ttID)
				if e.CalculateAvailability(tt) < 1 {
					return errors.New("sold out")
				}
				now := time.Now()
				return tx.InsertRegistration(ctx, &domain.Registration{
					ID:            uuid.New().String(),
					EventID:       e.ID,
					TicketTypeID:  ttID,
					UserID:        fmt.Sprintf("user-%d", i),
					Quantity:      1,
					Status:        domain.RegistrationStatusPending,
					PaymentStatus: domain.PaymentStatusPending,
					CreatedAt:     now,
					UpdatedAt:     now,
				})
			})
		}(i)
	}
	wg.Wait()

	_, total, err := regs.ListByEvent(ctx, event.ID, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, 18, total)

	got, err := repo.GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CalculateAvailability(got.TicketTypes[0]))
}

func TestPostgresEventRepository_TicketTypeIDsScopedPerEvent(t *testing.T) {
	skipIfNoIntegration(t)

	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	repo := NewPostgresEventRepository(db.Pool())
	regs := NewPostgresRegistrationRepository(db.Pool())
	_ = regs

	events := make([]*domain.Event, 2)
	for i := range events {
		e, err := domain.NewEvent(uuid.New().String(), fmt.Sprintf("Festival %d", i), domain.EventTypeClass)
		require.NoError(t, err)
		_, err = e.CreateSession(domain.SessionParams{ID: "S1", Name: "Friday", Date: testDate, StartTime: 18 * time.Hour, EndTime: 24 * time.Hour, Capacity: 10 * (i + 1)})
		require.NoError(t, err)
		_, err = e.CreateTicketType("Full Pass", decimal.RequireFromString("99.00"), []string{"S1"}, domain.TicketTypeOptions{ID: "full"})
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, e))
		defer cleanupEvent(t, db, e.ID)
		events[i] = e
	}

	for i, e := range events {
		err := repo.WithLock(ctx, e.ID, func(_ *domain.Event, tx EventTx) error {
			now := time.Now()
			return tx.InsertRegistration(ctx, &domain.Registration{
				ID:            uuid.New().String(),
				EventID:       e.ID,
				TicketTypeID:  "full",
				UserID:        "user-1",
				Quantity:      i + 1,
				Status:        domain.RegistrationStatusPending,
				PaymentStatus: domain.PaymentStatusPending,
				CreatedAt:     now,
				UpdatedAt:     now,
			})
		})
		require.NoError(t, err)
	}

	first, err := repo.GetByID(ctx, events[0].ID)
	require.NoError(t, err)
	require.Len(t, first.TicketTypes, 1)
	assert.Equal(t, []string{"S1"}, first.TicketTypes[0].SessionIDs)
	assert.Equal(t, 9, first.CalculateAvailability(first.TicketTypes[0]))

	second, err := repo.GetByID(ctx, events[1].ID)
	require.NoError(t, err)
	require.Len(t, second.TicketTypes, 1)
	assert.Equal(t, 18, second.CalculateAvailability(second.TicketTypes[0]))
}
