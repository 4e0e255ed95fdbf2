package echo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatwerk/cyclequota/pkg/cyclequota"
	"github.com/chatwerk/cyclequota/storage/memory"
)

var testNow = time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)

func setupTestGate(t *testing.T, store *memory.Store) *cyclequota.Gate {
	t.Helper()

	gate, err := cyclequota.NewGate(cyclequota.GateConfig{
		Counter: store,
		Now:     func() time.Time { return testNow },
	})
	require.NoError(t, err)
	return gate
}

func quarterlyConfig(limit int) cyclequota.CycleConfig {
	start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	return cyclequota.CycleConfig{
		StartDate:  &start,
		Duration:   cyclequota.DurationQuarterly,
		UsageLimit: &limit,
	}
}

func record(t *testing.T, store *memory.Store, tenantID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, store.Record(context.Background(), tenantID, testNow.Add(-time.Hour)))
	}
}

func runRequest(t *testing.T, cfg Config, tenantID string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	e.Use(Middleware(cfg))
	e.GET("/api/things", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/things", nil)
	if tenantID != "" {
		req.Header.Set("X-Tenant-ID", tenantID)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestMiddlewareAllowed(t *testing.T) {
	store := memory.New()
	record(t, store, "tenant1", 3)

	rec := runRequest(t, Config{
		Gate:        setupTestGate(t, store),
		GetTenantID: HeaderTenant("X-Tenant-ID"),
		GetConfig:   StaticConfig(quarterlyConfig(10)),
	}, "tenant1")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "10", rec.Header().Get("X-Quota-Limit"))
	assert.Equal(t, "7", rec.Header().Get("X-Quota-Remaining"))
	assert.Equal(t, "2025-04-15T00:00:00Z", rec.Header().Get("X-Quota-Reset"))
}

func TestMiddlewareDenied(t *testing.T) {
	store := memory.New()
	record(t, store, "tenant1", 10)

	rec := runRequest(t, Config{
		Gate:        setupTestGate(t, store),
		GetTenantID: HeaderTenant("X-Tenant-ID"),
		GetConfig:   StaticConfig(quarterlyConfig(10)),
	}, "tenant1")

	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["allowed"])

	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "error payload missing")
	assert.Equal(t, "quota_exceeded", errObj["reasonCode"])
}

func TestMiddlewareUnauthorized(t *testing.T) {
	rec := runRequest(t, Config{
		Gate:        setupTestGate(t, memory.New()),
		GetTenantID: HeaderTenant("X-Tenant-ID"),
		GetConfig:   StaticConfig(quarterlyConfig(10)),
	}, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareCustomDeniedHook(t *testing.T) {
	store := memory.New()
	record(t, store, "tenant1", 10)

	deniedCalled := false
	rec := runRequest(t, Config{
		Gate:        setupTestGate(t, store),
		GetTenantID: HeaderTenant("X-Tenant-ID"),
		GetConfig:   StaticConfig(quarterlyConfig(10)),
		OnDenied: func(c echo.Context, decision *cyclequota.Decision) error {
			deniedCalled = true
			return c.NoContent(http.StatusPaymentRequired)
		},
	}, "tenant1")

	assert.True(t, deniedCalled)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestContextTenant(t *testing.T) {
	store := memory.New()

	e := echo.New()
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("tenant", "tenant1")
			return next(c)
		}
	})
	e.Use(Middleware(Config{
		Gate:        setupTestGate(t, store),
		GetTenantID: ContextTenant("tenant"),
		GetConfig:   StaticConfig(quarterlyConfig(10)),
	}))
	e.GET("/", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
