package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/frameshop/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stageInput struct {
	Name  string `json:"name" binding:"required,max=10"`
	Order int    `json:"order" binding:"min=0"`
	Color string `json:"color" binding:"omitempty,hexcolor"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()

	router := gin.New()
	router.Use(RequestID())
	router.POST("/stages", func(c *gin.Context) {
		var req stageInput
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusCreated)
	})
	return router
}

func TestHandleValidationError(t *testing.T) {
	router := newValidationRouter()

	t.Run("reports every invalid field by its json name", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/stages", strings.NewReader(`{"order": -1, "color": "blue"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(RequestIDHeader, "req-v")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "req-v", resp.Error.RequestID)

		byField := map[string]dto.ValidationDetail{}
		for _, d := range resp.Error.Details {
			byField[d.Field] = d
		}
		require.Len(t, byField, 3)
		assert.Equal(t, "This field is required", byField["name"].Message)
		assert.Equal(t, "Must be at least 0", byField["order"].Message)
		assert.Equal(t, "hexcolor", byField["color"].Tag)
	})

	t.Run("string lengths mention characters", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/stages", strings.NewReader(`{"name": "Quality Check Plus"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Must be at most 10 characters")
	})

	t.Run("malformed json has no details", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/stages", strings.NewReader(`{`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.NotContains(t, w.Body.String(), `"details"`)
	})

	t.Run("valid input passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/stages", strings.NewReader(`{"name": "Packing", "order": 5, "color": "#795548"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
	})
}
