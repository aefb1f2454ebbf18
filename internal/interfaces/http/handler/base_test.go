package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/frameshop/backend/internal/domain/production"
	"github.com/frameshop/backend/internal/domain/shared"
	"github.com/frameshop/backend/internal/interfaces/http/dto"
	"github.com/frameshop/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	var resp APIResponse[any]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestGetRequestID(t *testing.T) {
	c, _ := newTestContext("/")
	assert.Empty(t, getRequestID(c))

	c.Request.Header.Set(middleware.RequestIDHeader, "header-id")
	assert.Equal(t, "header-id", getRequestID(c))

	c.Set(middleware.RequestIDKey, "ctx-id")
	assert.Equal(t, "ctx-id", getRequestID(c), "context wins over the header")
}

func TestBaseHandler_RequireUser(t *testing.T) {
	h := &BaseHandler{}

	c, w := newTestContext("/")
	_, ok := h.requireUser(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeUnauthorized, decodeError(t, w).Code)

	userID := uuid.New()
	c, _ = newTestContext("/")
	c.Set(middleware.ActorIDKey, userID.String())
	got, ok := h.requireUser(c)
	require.True(t, ok)
	assert.Equal(t, userID, got)
}

func TestBaseHandler_QueryParsing(t *testing.T) {
	h := &BaseHandler{}
	id := uuid.New()

	c, _ := newTestContext("/?batch_id=" + id.String() + "&from=2026-03-02")
	batchID, ok := h.queryUUID(c, "batch_id")
	require.True(t, ok)
	assert.Equal(t, id, *batchID)
	from, ok := h.queryTime(c, "from")
	require.True(t, ok)
	assert.Equal(t, 2, from.Day())

	c, _ = newTestContext("/")
	missing, ok := h.queryUUID(c, "batch_id")
	assert.True(t, ok)
	assert.Nil(t, missing)

	c, w := newTestContext("/")
	_, ok = h.requiredQueryUUID(c, "target_stage_id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newTestContext("/?to=yesterday")
	_, ok = h.queryTime(c, "to")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", shared.NewNotFoundError("batch"), http.StatusNotFound, dto.ErrCodeNotFound},
		{"validation", shared.NewValidationError("qty must not be negative"), http.StatusBadRequest, dto.ErrCodeValidation},
		{"conflict", shared.NewConflictError("stage order taken"), http.StatusConflict, dto.ErrCodeConflict},
		{"timer gate", production.NewGateRequiredError("Sanding"), http.StatusForbidden, dto.ErrCodeTimerGate},
		{"invalid state", shared.NewStateError("batch is archived"), http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
		{"expired", shared.NewExpiredError("session closed"), http.StatusGone, dto.ErrCodeTimerExpired},
		{"wrapped", fmt.Errorf("move: %w", production.NewFrameNotFoundError()), http.StatusNotFound, dto.ErrCodeNotFound},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	h := &BaseHandler{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext("/")
			c.Set(middleware.RequestIDKey, "req-1")
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			info := decodeError(t, w)
			assert.Equal(t, tt.wantCode, info.Code)
			assert.Equal(t, "req-1", info.RequestID)
			if tt.wantStatus == http.StatusInternalServerError {
				assert.NotContains(t, info.Message, "disk", "internal details stay in the log")
			}
		})
	}
}

func TestBaseHandler_HandleNilError(t *testing.T) {
	c, w := newTestContext("/")
	(&BaseHandler{}).HandleError(c, nil)
	assert.False(t, c.Writer.Written())
	assert.Equal(t, http.StatusOK, w.Code)
}
