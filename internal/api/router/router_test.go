package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"busbuddy/config"
	"busbuddy/internal/api/handler"
	"busbuddy/internal/repository"
	"busbuddy/internal/service"
	"busbuddy/pkg/database"
	"busbuddy/pkg/jwt"
	"busbuddy/pkg/metrics"
)

const testSecret = "router-test-secret-0123456789"

type testServer struct {
	engine http.Handler
	jwt    *jwt.Manager
}

func newTestServer(t *testing.T, authEnabled bool) *testServer {
	t.Helper()
	cfg := &config.Config{
		Server:   config.ServerConfig{Mode: "test", BodyLimit: 1 << 20},
		Database: config.DatabaseConfig{
			Driver:     config.DriverSQLite,
			SQLitePath: "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared",
		},
		Auth: config.AuthConfig{
			Enabled:        authEnabled,
			JWTSecret:      testSecret,
			Issuer:         "busbuddy",
			AccessTokenTTL: time.Hour,
		},
		Log:       config.LogConfig{SQLLevel: "silent"},
		Schedule:  config.ScheduleConfig{LockTTL: time.Second},
		RateLimit: config.RateLimitConfig{Enabled: false},
	}

	db, err := database.NewDB(&cfg.Database, &cfg.Log, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	uows := repository.NewFactory(db, repository.Options{Metrics: m})
	svc := service.NewService(cfg, uows, nil, m, zap.NewNop())
	mgr := jwt.NewManager(&cfg.Auth)

	engine := Setup(cfg, handler.NewHandler(svc), Deps{
		JWT:      mgr,
		Metrics:  m,
		Gatherer: reg,
		Health:   map[string]Pinger{
			"database": func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
		},
	})
	return &testServer{engine: engine, jwt: mgr}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) token(t *testing.T, actor, role string) string {
	t.Helper()
	tok, err := s.jwt.GenerateAccessToken(actor, role)
	require.NoError(t, err)
	return tok
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, v))
}

var busBody = map[string]interface{}{
	"bus_number":       "BUS-001",
	"year":             2021,
	"make":             "Blue Bird",
	"model":            "Vision",
	"seating_capacity": 72,
}

func TestRouter_AuthAndAudit(t *testing.T) {
	s := newTestServer(t, true)
	dispatcher := s.token(t, "dispatcher@district", jwt.RoleDispatcher)
	viewer := s.token(t, "viewer@district", jwt.RoleViewer)

	w := s.do(t, http.MethodGet, "/api/v1/buses", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/buses", viewer, busBody)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/buses", dispatcher, busBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var bus struct {
		ID        uint   `json:"id"`
		CreatedBy string `json:"created_by"`
	}
	decodeData(t, w, &bus)
	assert.Equal(t, "dispatcher@district", bus.CreatedBy)

	w = s.do(t, http.MethodGet, "/api/v1/buses", viewer, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_ScheduleConflictFlow(t *testing.T) {
	s := newTestServer(t, false)

	w := s.do(t, http.MethodPost, "/api/v1/buses", "", busBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = s.do(t, http.MethodPost, "/api/v1/drivers", "", map[string]interface{}{"name": "Dana", "license_number": "D-1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	activity := map[string]interface{}{
		"activity_type": "Field Trip",
		"date":          "2025-01-01",
		"start_time":    "08:00",
		"end_time":      "10:00",
		"vehicle_id":    1,
		"driver_id":     1,
	}
	w = s.do(t, http.MethodPost, "/api/v1/schedules", "", activity)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		CreatedBy string `json:"created_by"`
	}
	decodeData(t, w, &created)
	assert.Equal(t, "System", created.CreatedBy)

	activity["start_time"], activity["end_time"] = "09:00", "11:00"
	w = s.do(t, http.MethodPost, "/api/v1/schedules", "", activity)
	require.Equal(t, http.StatusConflict, w.Code)
	var conflict struct {
		Details struct {
			Resource    string `json:"resource"`
			ExistingRef string `json:"existing_ref"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conflict))
	assert.Equal(t, "vehicle", conflict.Details.Resource)
	assert.Equal(t, "activity#1", conflict.Details.ExistingRef)

	activity["start_time"], activity["end_time"] = "10:00", "12:00"
	w = s.do(t, http.MethodPost, "/api/v1/schedules", "", activity)
	assert.Equal(t, http.StatusCreated, w.Code, "首尾相接不算冲突")

	w = s.do(t, http.MethodGet, "/api/v1/schedules/range?from=2025-01-01&to=2025-01-01", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var list struct {
		List []json.RawMessage `json:"list"`
	}
	decodeData(t, w, &list)
	assert.Len(t, list.List, 2)

	w = s.do(t, http.MethodGet, "/api/v1/buses/1/schedules", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t, true)

	w := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"up"`)

	w = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "busbuddy_http_requests_total")
}

func TestHealthHandler_Degraded(t *testing.T) {
	h := healthHandler(map[string]Pinger{
		"redis": func(context.Context) error { return errors.New("down") },
	})
	engine := gin.New()
	engine.GET("/health", h)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"down"`)
}
