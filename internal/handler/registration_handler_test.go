package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/prohmpiriya/session-ticketing/internal/dto"
	"github.com/prohmpiriya/session-ticketing/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrationHandler_Register(t *testing.T) {
	tests := []struct {
		name            string
		eventType       string
		body            interface{}
		wantStatus      int
		wantCode        string
		wantPayment     bool
		wantPaymentStat string
	}{
		{
			name:            "paid workshop ticket",
			eventType:       "workshop",
			body:            map[string]interface{}{"ticket_type_id": "full", "user_id": "user-1", "quantity": 2},
			wantStatus:      http.StatusCreated,
			wantPayment:     true,
			wantPaymentStat: "pending",
		},
		{
			name:            "social event skips payment",
			eventType:       "social",
			body:            map[string]interface{}{"ticket_type_id": "full", "user_id": "user-1"},
			wantStatus:      http.StatusCreated,
			wantPayment:     false,
			wantPaymentStat: "not_required",
		},
		{
			name:            "rsvp ticket skips payment",
			eventType:       "class",
			body:            map[string]interface{}{"ticket_type_id": "rsvp", "user_id": "user-1"},
			wantStatus:      http.StatusCreated,
			wantPayment:     false,
			wantPaymentStat: "not_required",
		},
		{
			name:       "missing user",
			eventType:  "workshop",
			body:       map[string]interface{}{"ticket_type_id": "full"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "BAD_REQUEST",
		},
		{
			name:       "unknown ticket type",
			eventType:  "workshop",
			body:       map[string]interface{}{"ticket_type_id": "vip", "user_id": "user-1"},
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "explicit zero quantity",
			eventType:  "workshop",
			body:       map[string]interface{}{"ticket_type_id": "full", "user_id": "user-1", "quantity": 0},
			wantStatus: http.StatusBadRequest,
			wantCode:   "BAD_REQUEST",
		},
		{
			name:       "quantity above max",
			eventType:  "workshop",
			body:       map[string]interface{}{"ticket_type_id": "full", "user_id": "user-1", "quantity": 11},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "weekend within sunday capacity",
			eventType:  "workshop",
			body:       map[string]interface{}{"ticket_type_id": "weekend", "user_id": "user-1", "quantity": 10},
			wantStatus: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(nil)
			id := s.createFestival(t, tt.eventType)

			w := s.do(http.MethodPost, "/api/v1/events/"+id+"/registrations", tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}

			var reg dto.RegistrationResponse
			env := decode(t, w, &reg)
			if tt.wantCode != "" {
				require.NotNil(t, env.Error)
				assert.Equal(t, tt.wantCode, env.Error.Code)
				return
			}
			if tt.wantPaymentStat != "" {
				assert.Equal(t, tt.wantPayment, reg.PaymentRequired)
				assert.Equal(t, tt.wantPaymentStat, reg.PaymentStatus)
			}
		})
	}
}

func TestRegistrationHandler_InsufficientCapacity(t *testing.T) {
	s := newTestServer(nil)
	id := s.createFestival(t, "workshop")

	w := s.do(http.MethodPost, "/api/v1/events/"+id+"/registrations",
		map[string]interface{}{"ticket_type_id": "weekend", "user_id": "user-1", "quantity": 10})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/v1/events/"+id+"/registrations",
		map[string]interface{}{"ticket_type_id": "full", "user_id": "user-2", "quantity": 6})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	env := decode(t, w, nil)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INSUFFICIENT_CAPACITY", env.Error.Code)
}

func TestRegistrationHandler_CapacityNotEnforced(t *testing.T) {
	s := newTestServer(&service.RegistrationServiceConfig{EnforceCapacity: false, MaxQuantity: 50})
	id := s.createFestival(t, "workshop")

	w := s.do(http.MethodPost, "/api/v1/events/"+id+"/registrations",
		map[string]interface{}{"ticket_type_id": "weekend", "user_id": "user-1", "quantity": 18})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/events/"+id+"/ticket-types/weekend/availability", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var a dto.AvailabilityResponse
	decode(t, w, &a)
	assert.Equal(t, 0, a.Available)
}

func TestRegistrationHandler_IdempotencyKeyHeader(t *testing.T) {
	s := newTestServer(nil)
	id := s.createFestival(t, "workshop")
	body := map[string]interface{}{"ticket_type_id": "friday", "user_id": "user-1", "quantity": 2}

	w1 := s.do(http.MethodPost, "/api/v1/events/"+id+"/registrations", body, "Idempotency-Key", "key-1")
	require.Equal(t, http.StatusCreated, w1.Code, w1.Body.String())
	w2 := s.do(http.MethodPost, "/api/v1/events/"+id+"/registrations", body, "Idempotency-Key", "key-1")
	require.Equal(t, http.StatusCreated, w2.Code, w2.Body.String())

	var first, second dto.RegistrationResponse
	decode(t, w1, &first)
	decode(t, w2, &second)
	assert.Equal(t, first.ID, second.ID)

	w := s.do(http.MethodGet, "/api/v1/events/"+id+"/ticket-types/friday/availability", nil)
	var a dto.AvailabilityResponse
	decode(t, w, &a)
	assert.Equal(t, 18, a.Available)
}

func TestRegistrationHandler_ListGetCancel(t *testing.T) {
	s := newTestServer(nil)
	id := s.createFestival(t, "workshop")

	var ids []string
	for i := 0; i < 3; i++ {
		w := s.do(http.MethodPost, "/api/v1/events/"+id+"/registrations",
			map[string]interface{}{"ticket_type_id": "friday", "user_id": fmt.Sprintf("user-%d", i)})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var reg dto.RegistrationResponse
		decode(t, w, &reg)
		ids = append(ids, reg.ID)
	}

	w := s.do(http.MethodGet, "/api/v1/events/"+id+"/registrations?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page []dto.RegistrationResponse
	env := decode(t, w, &page)
	assert.Len(t, page, 2)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(3), env.Meta.Total)
	assert.Equal(t, 2, env.Meta.PerPage)

	w = s.do(http.MethodGet, "/api/v1/registrations/"+ids[0], nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/api/v1/registrations/"+ids[0]+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cancelled dto.RegistrationResponse
	decode(t, w, &cancelled)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	w = s.do(http.MethodPost, "/api/v1/registrations/"+ids[0]+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodGet, "/api/v1/registrations/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/v1/events/"+id+"/ticket-types/friday/availability", nil)
	var a dto.AvailabilityResponse
	decode(t, w, &a)
	assert.Equal(t, 18, a.Available)
}
