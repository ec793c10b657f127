package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/services"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/shared/testutil"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/store"
)

type MockHealthService struct {
	mock.Mock
}

func (m *MockHealthService) HealthCheck(ctx context.Context) services.HealthStatus {
	return m.Called().Get(0).(services.HealthStatus)
}

func (m *MockHealthService) ReadinessCheck(ctx context.Context) services.HealthStatus {
	return m.Called().Get(0).(services.HealthStatus)
}

func (m *MockHealthService) LivenessCheck(ctx context.Context) services.HealthStatus {
	return m.Called().Get(0).(services.HealthStatus)
}

func (m *MockHealthService) Version() map[string]interface{} {
	return m.Called().Get(0).(map[string]interface{})
}

func (m *MockHealthService) SystemStats(ctx context.Context) services.SystemStats {
	return m.Called().Get(0).(services.SystemStats)
}

func (m *MockHealthService) GetDetailedHealth(ctx context.Context) map[string]interface{} {
	return m.Called().Get(0).(map[string]interface{})
}

type fakeStoreStats struct{ stats store.Stats }

func (f fakeStoreStats) Stats() store.Stats { return f.stats }

func TestHealthHandler_Routes(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	svc := new(MockHealthService)
	svc.On("HealthCheck").Return(services.HealthStatus{Status: "ok", Version: "1.0.0"})
	svc.On("LivenessCheck").Return(services.HealthStatus{Status: "alive"})
	svc.On("GetDetailedHealth").Return(map[string]interface{}{"status": "healthy"})
	svc.On("SystemStats").Return(services.SystemStats{Datasets: 2, TotalRows: 40})

	h := NewHealthHandler(svc, logger)
	router := h.Routes()

	tests := []struct {
		path     string
		contains string
	}{
		{"/", `"status":"ok"`},
		{"/live", `"status":"alive"`},
		{"/detailed", `"status":"healthy"`},
		{"/stats", `"total_rows":40`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), tt.contains)
		})
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	tests := []struct {
		name           string
		status         string
		expectedStatus int
	}{
		{"ready", "ready", http.StatusOK},
		{"not ready", "not_ready", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			svc := new(MockHealthService)
			svc.On("ReadinessCheck").Return(services.HealthStatus{Status: tt.status})

			w := httptest.NewRecorder()
			NewHealthHandler(svc, logger).Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestHealthHandler_WithHealthService(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hs := services.NewHealthService(services.HealthDeps{
		Version: "1.2.3",
		Store:   fakeStoreStats{stats: store.Stats{Datasets: 1, TotalRows: 9}},
		Logger:  logger,
	})
	h := NewHealthHandler(hs, logger)

	w := httptest.NewRecorder()
	h.Version(w, httptest.NewRequest(http.MethodGet, "/api/version", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var version map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &version))
	assert.Equal(t, "1.2.3", version["version"])
}

func TestMetricsHandler(t *testing.T) {
	t.Run("wraps the exporter", func(t *testing.T) {
		exporter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("# HELP datasets_active Datasets in the store\n"))
		})

		w := httptest.NewRecorder()
		NewMetricsHandler(exporter).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, strings.HasPrefix(w.Body.String(), "# HELP datasets_active"))
	})

	t.Run("falls back to the default registry", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewMetricsHandler(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "go_goroutines")
	})
}
