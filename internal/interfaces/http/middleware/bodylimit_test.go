package middleware

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBodyLimitEngine(limit int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID(), BodyLimit(limit))
	engine.POST("/sales", func(c *gin.Context) {
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "truncated")
			return
		}
		c.String(http.StatusOK, "%d", len(raw))
	})
	engine.GET("/inventory/batches", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return engine
}

func cartBody(lines int) string {
	items := make([]string, lines)
	for i := range items {
		items[i] = fmt.Sprintf(`{"product_id":"%08d-0000-0000-0000-000000000000","quantity":"1","uom":"can"}`, i)
	}
	return `{"warehouse_id":"00000000-0000-0000-0000-000000000001","lines":[` + strings.Join(items, ",") + `]}`
}

func TestBodyLimit(t *testing.T) {
	t.Run("cart within the limit passes through", func(t *testing.T) {
		body := cartBody(3)
		req := httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader(body))
		w := httptest.NewRecorder()
		newBodyLimitEngine(DefaultBodyLimit).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, fmt.Sprint(len(body)), w.Body.String())
	})

	t.Run("declared length over the limit is rejected up front", func(t *testing.T) {
		body := cartBody(10)
		req := httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader(body))
		req.Header.Set("X-Request-ID", "req-big-cart")
		w := httptest.NewRecorder()
		newBodyLimitEngine(256).ServeHTTP(w, req)

		require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		var resp struct {
			Success bool `json:"success"`
			Error   struct {
				Code      string `json:"code"`
				RequestID string `json:"request_id"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, "REQUEST_TOO_LARGE", resp.Error.Code)
		assert.Equal(t, "req-big-cart", resp.Error.RequestID)
	})

	t.Run("streamed body is cut off while reading", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader(cartBody(10)))
		req.ContentLength = -1
		w := httptest.NewRecorder()
		newBodyLimitEngine(256).ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, "truncated", w.Body.String())
	})

	t.Run("reads are unaffected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/inventory/batches", nil)
		w := httptest.NewRecorder()
		newBodyLimitEngine(1).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
