package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/session-ticketing/internal/repository"
	"github.com/prohmpiriya/session-ticketing/internal/service"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	store  *repository.MemoryStore
}

// newTestServer wires real services over the in-memory store
func newTestServer(cfg *service.RegistrationServiceConfig) *testServer {
	store := repository.NewMemoryStore()
	availability := service.NewAvailabilityService(store, nil)
	events := service.NewEventService(store, availability)
	registrations := service.NewRegistrationService(store, store.Registrations(), availability, service.NewNoOpEventPublisher(), cfg)

	eventHandler := NewEventHandler(events, availability)
	registrationHandler := NewRegistrationHandler(registrations)

	r := gin.New()
	v1 := r.Group("/api/v1")
	{
		ev := v1.Group("/events")
		ev.POST("", eventHandler.Create)
		ev.GET("", eventHandler.List)
		ev.GET("/:id", eventHandler.GetByID)
		ev.POST("/:id/sessions", eventHandler.AddSession)
		ev.POST("/:id/ticket-types", eventHandler.AddTicketType)
		ev.GET("/:id/ticket-types", eventHandler.ListTicketTypes)
		ev.GET("/:id/ticket-availability", eventHandler.GetAvailability)
		ev.GET("/:id/ticket-types/:ticketTypeId/availability", eventHandler.GetTicketTypeAvailability)
		ev.POST("/:id/registrations", registrationHandler.Register)
		ev.GET("/:id/registrations", registrationHandler.ListByEvent)

		reg := v1.Group("/registrations")
		reg.GET("/:id", registrationHandler.GetByID)
		reg.POST("/:id/cancel", registrationHandler.Cancel)
	}

	return &testServer{router: r, store: store}
}

func (s *testServer) do(method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	switch b := body.(type) {
	case nil:
		buf = &bytes.Buffer{}
	case string:
		buf = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		buf = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta *struct {
		Page    int   `json:"page"`
		PerPage int   `json:"per_page"`
		Total   int64 `json:"total"`
	} `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

// festivalBody is a three day event: FRI 20, SAT 18, SUN 15
func festivalBody(eventType string) map[string]interface{} {
	return map[string]interface{}{
		"title":      "Rope Festival",
		"event_type": eventType,
		"sessions": []map[string]interface{}{
			{"id": "FRI", "name": "Friday", "date": "2025-09-19", "start_time": "18:00", "end_time": "23:00", "capacity": 20},
			{"id": "SAT", "name": "Saturday", "date": "2025-09-20", "start_time": "10:00", "end_time": "18:00", "capacity": 18},
			{"id": "SUN", "name": "Sunday", "date": "2025-09-21", "start_time": "10:00", "end_time": "16:00", "capacity": 15},
		},
		"ticket_types": []map[string]interface{}{
			{"id": "friday", "name": "Friday Only", "price": "40", "session_ids": []string{"FRI"}},
			{"id": "weekend", "name": "Weekend Pass", "price": "90", "session_ids": []string{"SAT", "SUN"}},
			{"id": "full", "name": "Full Pass", "price": "120", "session_ids": []string{"FRI", "SAT", "SUN"}},
			{"id": "rsvp", "name": "RSVP", "price": "0", "session_ids": []string{"FRI"}, "is_rsvp_mode": true},
		},
	}
}

func (s *testServer) createFestival(t *testing.T, eventType string) string {
	t.Helper()
	w := s.do(http.MethodPost, "/api/v1/events", festivalBody(eventType))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID string `json:"id"`
	}
	decode(t, w, &created)
	require.NotEmpty(t, created.ID)
	return created.ID
}
