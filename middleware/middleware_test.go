package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tripmind/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestIDAndLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(RequestID(), Logger(log))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	rid := w.Header().Get(RequestIDHeader)
	require.NotEmpty(t, rid)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "GET", line["method"])
	assert.Equal(t, "/ping", line["path"])
	assert.Equal(t, float64(http.StatusTeapot), line["status"])
	assert.Equal(t, rid, line["req_id"])
	assert.Equal(t, "WARN", line["level"])

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = serve(r, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestOptionalAuth(t *testing.T) {
	iss := auth.NewIssuer("secret", time.Hour)
	tok, err := iss.Issue("user-1")
	require.NoError(t, err)

	r := gin.New()
	r.Use(OptionalAuth(iss))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(UserIDKey)) })

	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"valid", "Bearer " + tok, "user-1"},
		{"none", "", ""},
		{"invalid", "Bearer garbage", ""},
		{"wrong scheme", "Basic " + tok, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := serve(r, req)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tc.want, w.Body.String())
		})
	}
}

func TestIPRateLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewIPRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("1.1.1.1"))
	assert.False(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("2.2.2.2"))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.Allow("1.1.1.1"))

	now = now.Add(2 * time.Minute)
	rl.Sweep()
	assert.Empty(t, rl.hits)
}

func TestIPRateLimiterReserve(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := start
	rl := NewIPRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.Zero(t, rl.Reserve("1.1.1.1"))
	now = start.Add(10 * time.Second)
	assert.Zero(t, rl.Reserve("1.1.1.1"))

	now = start.Add(15 * time.Second)
	assert.Equal(t, 45*time.Second, rl.Reserve("1.1.1.1"))
	now = start.Add(30 * time.Second)
	assert.Equal(t, 30*time.Second, rl.Reserve("1.1.1.1"), "rejected requests do not extend the window")

	now = start.Add(time.Minute)
	assert.Zero(t, rl.Reserve("1.1.1.1"))
	assert.Equal(t, 10*time.Second, rl.Reserve("1.1.1.1"))
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(NewIPRateLimiter(1, time.Minute)))
	r.POST("/plan", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodPost, "/plan", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Retry-After"))

	w = serve(r, httptest.NewRequest(http.MethodPost, "/plan", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"message":"Too many requests."}`, w.Body.String())
}

type readiness bool

func (r readiness) Ready() bool { return bool(r) }

func TestRequireDatabase(t *testing.T) {
	for _, ready := range []bool{true, false} {
		r := gin.New()
		r.Use(RequireDatabase(readiness(ready)))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
		if ready {
			assert.Equal(t, http.StatusOK, w.Code)
			continue
		}
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, `{"message":"Database unavailable."}`, w.Body.String())
	}
}
