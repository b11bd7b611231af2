package router

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabric_backend/internal/feature/inspection/domain/entity"
	inspectionhandler "fabric_backend/internal/feature/inspection/transport/handler"
	"fabric_backend/internal/feature/inspection/usecase"
	platformhandler "fabric_backend/internal/platform/http/handler"
)

type noopBackend struct{}

func (noopBackend) Detect(ctx context.Context, img image.Image, confThreshold float64) (*entity.RawResult, error) {
	return &entity.RawResult{}, nil
}

func newTestRouter(t *testing.T, opts Options) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := usecase.NewRegistry(usecase.RegisteredBackend{
		BackendInfo: usecase.BackendInfo{ID: usecase.BackendUltra, Label: usecase.BackendUltraLabel},
		Backend:     noopBackend{},
	})
	uc := usecase.NewInspectionUsecase(registry, nil, nil)
	h := inspectionhandler.NewInspectionHandler(uc, registry, nil)
	return NewRouter(h, opts)
}

func TestNewRouter_PublicRoutes(t *testing.T) {
	r := newTestRouter(t, Options{Started: time.Now(), RequireAuth: true})

	tests := []struct {
		path string
		key  string
	}{
		{"/healthz", "status"},
		{"/health", "model_loaded"},
		{"/models", "available"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			require.Equal(t, http.StatusOK, w.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Contains(t, body, tt.key)
		})
	}
}

func TestNewRouter_AuthRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "router-test-secret")

	tests := []struct {
		name        string
		requireAuth bool
		method      string
		path        string
		wantStatus  int
	}{
		{"infer requires token", true, http.MethodPost, "/infer", http.StatusUnauthorized},
		{"inspections requires token", true, http.MethodGet, "/inspections", http.StatusUnauthorized},
		{"infer open without auth", false, http.MethodPost, "/infer", http.StatusBadRequest},
		{"inspections open without auth", false, http.MethodGet, "/inspections", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t, Options{Started: time.Now(), RequireAuth: tt.requireAuth})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestNewRouter_CORS(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		origin     string
		wantHeader string
	}{
		{"allow all by default", nil, "http://example.com", "*"},
		{"explicit origin", []string{"http://qa.local"}, "http://qa.local", "http://qa.local"},
		{"unlisted origin", []string{"http://qa.local"}, "http://evil.local", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t, Options{Started: time.Now(), AllowOrigins: tt.origins})

			req := httptest.NewRequest(http.MethodGet, "/models", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantHeader, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestLoadAllowOrigins(t *testing.T) {
	t.Setenv("CORS_ALLOW_ORIGINS", " http://a.local, ,http://b.local ")
	assert.Equal(t, []string{"http://a.local", "http://b.local"}, LoadAllowOrigins())

	t.Setenv("CORS_ALLOW_ORIGINS", "")
	assert.Empty(t, LoadAllowOrigins())
}

func TestNewRouter_RequestID(t *testing.T) {
	r := newTestRouter(t, Options{Started: time.Now()})

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		_, err := uuid.Parse(w.Header().Get(platformhandler.HeaderRequestID))
		assert.NoError(t, err)
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set(platformhandler.HeaderRequestID, "loom-7-req-42")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, "loom-7-req-42", w.Header().Get(platformhandler.HeaderRequestID))
	})
}
