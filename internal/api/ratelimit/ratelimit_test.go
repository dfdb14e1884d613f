package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eventsphere/eventsphere/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(l *Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(l.Middleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func do(router *gin.Engine, header string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	if header != "" {
		req.Header.Set("X-Test-User", header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code
}

// identifyByHeader treats "admin" as user 1 with admin rights and any other value as user 2.
func identifyByHeader(c *gin.Context) *Identity {
	switch c.GetHeader("X-Test-User") {
	case "":
		return nil
	case "admin":
		return &Identity{UserID: 1, IsAdmin: true}
	default:
		return &Identity{UserID: 2}
	}
}

func testConfig() *config.RateLimitConfig {
	return &config.RateLimitConfig{
		Enabled:       true,
		Window:        time.Minute,
		Anonymous:     2,
		Authenticated: 3,
		Admin:         5,
	}
}

func TestLimiter_Tiers(t *testing.T) {
	router := newRouter(New(testConfig(), identifyByHeader, nil))

	for range 2 {
		assert.Equal(t, http.StatusOK, do(router, ""))
	}
	assert.Equal(t, http.StatusTooManyRequests, do(router, ""))

	for range 3 {
		assert.Equal(t, http.StatusOK, do(router, "user"))
	}
	assert.Equal(t, http.StatusTooManyRequests, do(router, "user"))

	for range 5 {
		assert.Equal(t, http.StatusOK, do(router, "admin"))
	}
	assert.Equal(t, http.StatusTooManyRequests, do(router, "admin"))
}

func TestLimiter_OverrideAppliesToAuthenticatedUsers(t *testing.T) {
	override := func(context.Context) (int, bool) { return 1, true }
	router := newRouter(New(testConfig(), identifyByHeader, override))

	assert.Equal(t, http.StatusOK, do(router, "user"))
	assert.Equal(t, http.StatusTooManyRequests, do(router, "user"))

	// anonymous callers keep their own budget
	assert.Equal(t, http.StatusOK, do(router, ""))
	assert.Equal(t, http.StatusOK, do(router, ""))
}

func TestLimiter_WindowResets(t *testing.T) {
	cfg := testConfig()
	cfg.Window = 50 * time.Millisecond
	router := newRouter(New(cfg, nil, nil))

	assert.Equal(t, http.StatusOK, do(router, ""))
	assert.Equal(t, http.StatusOK, do(router, ""))
	assert.Equal(t, http.StatusTooManyRequests, do(router, ""))

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, http.StatusOK, do(router, ""))
}

func TestLimiter_ResponseBody(t *testing.T) {
	cfg := testConfig()
	cfg.Anonymous = 1
	router := newRouter(New(cfg, nil, nil))
	do(router, "")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"message":"Too many requests, please try again later."}`, w.Body.String())
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}
