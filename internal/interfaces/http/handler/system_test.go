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

func serveSystem(t *testing.T, h *SystemHandler, path string) (*httptest.ResponseRecorder, APIResponse[map[string]any]) {
	t.Helper()
	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/ping", h.Ping)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var resp APIResponse[map[string]any]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestSystemHandler_HealthWithoutChecks(t *testing.T) {
	h := NewSystemHandler("frameshop", "1.2.0", nil)
	assert.False(t, h.startTime.IsZero())

	w, resp := serveSystem(t, h, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "healthy", resp.Data["status"])
	assert.Equal(t, "1.2.0", resp.Data["version"])
	assert.NotEmpty(t, resp.Data["go_version"])
	assert.NotContains(t, resp.Data, "checks")
}

func TestSystemHandler_HealthReportsEachCheck(t *testing.T) {
	h := NewSystemHandler("frameshop", "dev", map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	w, resp := serveSystem(t, h, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", resp.Data["status"])
	checks, ok := resp.Data["checks"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ok", checks["database"])
	assert.Equal(t, "connection refused", checks["redis"])
}

func TestSystemHandler_HealthCheckHasDeadline(t *testing.T) {
	var hadDeadline bool
	h := NewSystemHandler("frameshop", "dev", map[string]HealthCheck{
		"database": func(ctx context.Context) error {
			_, hadDeadline = ctx.Deadline()
			return nil
		},
	})

	w, _ := serveSystem(t, h, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, hadDeadline)
}

func TestSystemHandler_Ping(t *testing.T) {
	h := NewSystemHandler("frameshop", "dev", map[string]HealthCheck{
		"database": func(context.Context) error { return errors.New("down") },
	})

	w, resp := serveSystem(t, h, "/ping")
	assert.Equal(t, http.StatusOK, w.Code, "ping does not run dependency checks")
	assert.Equal(t, "pong", resp.Data["message"])
	assert.Equal(t, "frameshop", resp.Data["service"])
	assert.NotEmpty(t, resp.Data["timestamp"])
}
