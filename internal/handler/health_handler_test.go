package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	err error
}

func (s *stubChecker) HealthCheck(ctx context.Context) error {
	return s.err
}

func TestHealthHandler_Health(t *testing.T) {
	h := NewHealthHandler(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	h.Health(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
}

func TestHealthHandler_Ready(t *testing.T) {
	tests := []struct {
		name       string
		components map[string]HealthChecker
		wantStatus int
		wantState  string
		wantDetail map[string]string
	}{
		{
			name:       "all healthy",
			components: map[string]HealthChecker{"database": &stubChecker{}, "redis": &stubChecker{}},
			wantStatus: http.StatusOK,
			wantState:  "ready",
			wantDetail: map[string]string{"database": "healthy", "redis": "healthy"},
		},
		{
			name:       "redis not configured",
			components: map[string]HealthChecker{"database": &stubChecker{}, "redis": nil},
			wantStatus: http.StatusOK,
			wantState:  "ready",
			wantDetail: map[string]string{"database": "healthy", "redis": "not configured"},
		},
		{
			name:       "database down",
			components: map[string]HealthChecker{"database": &stubChecker{err: errors.New("connection refused")}},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "not ready",
			wantDetail: map[string]string{"database": "unhealthy: connection refused"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.components)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

			h.Ready(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp ReadyResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantState, resp.Status)
			assert.Equal(t, tt.wantDetail, resp.Components)
		})
	}
}
