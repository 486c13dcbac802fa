package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID_ReuseIncoming(t *testing.T) {
	incomingID := uuid.NewString()
	var gotID string

	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		gotID = RequestIDFromCtx(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incomingID)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, incomingID, gotID)
	assert.Equal(t, incomingID, w.Header().Get(RequestIDHeader))
}

func TestRequestID_GenerateNew(t *testing.T) {
	var gotID string

	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		gotID = RequestIDFromCtx(c.Request.Context())
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	_, err := uuid.Parse(gotID)
	require.NoError(t, err)
	assert.Equal(t, gotID, w.Header().Get(RequestIDHeader))
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"ok is info", http.StatusOK, "INFO"},
		{"client error is info", http.StatusBadRequest, "INFO"},
		{"server error is error", http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			r := gin.New()
			r.Use(RequestID(), Logger(logger))
			r.POST("/comment/addComment", func(c *gin.Context) { c.Status(tt.status) })

			req := httptest.NewRequest(http.MethodPost, "/comment/addComment", nil)
			req.Header.Set(RequestIDHeader, "req-1")
			r.ServeHTTP(httptest.NewRecorder(), req)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, "http.request", entry["msg"])
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, "POST", entry["method"])
			assert.Equal(t, "/comment/addComment", entry["path"])
			assert.EqualValues(t, tt.status, entry["status"])
			assert.Equal(t, "req-1", entry["request_id"])
		})
	}
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(Recovery(logger))
	r.GET("/panic", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
	assert.Contains(t, buf.String(), "panic recovered")
	assert.Contains(t, buf.String(), "boom")
}
