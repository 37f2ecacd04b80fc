package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(r *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID_PropagatesOrGenerates(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	w := serve(r, http.MethodGet, "/", http.Header{RequestIDHeader: {"abc-123"}})
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	w = serve(r, http.MethodGet, "/", nil)
	assert.Len(t, w.Body.String(), 36)
}

func TestRecovery_HidesPanic(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/", func(*gin.Context) { panic("db password leaked") })

	w := serve(r, http.MethodGet, "/", http.Header{RequestIDHeader: {"req-42"}})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.Contains(t, w.Body.String(), `"detail"`)
	assert.Contains(t, w.Body.String(), `"request_id":"req-42"`)
}

func TestErrorHandler_UnhandledError(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), ErrorHandler())
	r.GET("/", func(c *gin.Context) { _ = c.Error(assert.AnError) })
	r.GET("/written", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
		c.JSON(http.StatusConflict, gin.H{"detail": "конфликт"})
	})

	w := serve(r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
	assert.Contains(t, w.Body.String(), w.Header().Get(RequestIDHeader))

	// A response the handler already wrote is left as is.
	w = serve(r, http.MethodGet, "/written", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "конфликт")
}

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter(2, time.Minute))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", nil).Code)
	w := serve(r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimiter_PurgesExpired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rl := &rateLimiter{limit: 1, window: time.Minute, entries: make(map[string]*rateEntry), now: func() time.Time { return now }}
	rl.entries["10.0.0.1"] = &rateEntry{count: 1, windowEnd: now.Add(-time.Second)}
	rl.entries["10.0.0.2"] = &rateEntry{count: 1, windowEnd: now.Add(time.Second)}

	assert.Equal(t, 1, rl.purge())
	assert.Len(t, rl.entries, 1)
}

func TestCORS_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS(nil))
	r.PATCH("/v1/zones/1/active", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodOptions, "/v1/zones/1/active", http.Header{"Origin": {"http://any.example"}})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestCORS_AllowList(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://dashboard.sklad.local", " http://localhost:5173 "}))
	r.GET("/v1/kpi", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodOptions, "/v1/kpi", http.Header{"Origin": {"http://localhost:5173"}})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))

	w = serve(r, http.MethodOptions, "/v1/kpi", http.Header{"Origin": {"http://evil.example"}})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	// Non-preflight requests still run; the browser enforces the missing header.
	w = serve(r, http.MethodGet, "/v1/kpi", http.Header{"Origin": {"http://evil.example"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLevel(t *testing.T) {
	assert.Equal(t, zerolog.ErrorLevel, requestLevel("/v1/kpi", http.StatusServiceUnavailable))
	assert.Equal(t, zerolog.WarnLevel, requestLevel("/v1/kpi", http.StatusUnprocessableEntity))
	assert.Equal(t, zerolog.DebugLevel, requestLevel("/health", http.StatusOK))
	assert.Equal(t, zerolog.ErrorLevel, requestLevel("/health", http.StatusServiceUnavailable))
	assert.Equal(t, zerolog.InfoLevel, requestLevel("/v1/kpi", http.StatusOK))
}
