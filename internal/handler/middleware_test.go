package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestRateLimiterPerClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewRateLimiter(1, 2)
	fixed := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return fixed }

	router := gin.New()
	router.GET("/limited", limiter.Handler(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	hit := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/limited", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := hit("10.0.0.1"); code != http.StatusNoContent {
			t.Fatalf("request %d: expected 204, got %d", i, code)
		}
	}
	if code := hit("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", code)
	}
	if code := hit("10.0.0.2"); code != http.StatusNoContent {
		t.Fatalf("expected other client to pass, got %d", code)
	}

	fixed = fixed.Add(time.Second)
	if code := hit("10.0.0.1"); code != http.StatusNoContent {
		t.Fatalf("expected token refill after 1s, got %d", code)
	}
}

func TestRateLimiterKeysByUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewRateLimiter(1, 1)

	router := gin.New()
	router.GET("/limited", func(c *gin.Context) {
		c.Set(userIDContextKey, uuid.MustParse(c.GetHeader("X-User")))
		c.Next()
	}, limiter.Handler(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	hit := func(user string) int {
		req := httptest.NewRequest(http.MethodGet, "/limited", nil)
		req.Header.Set("X-User", user)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	a, b := uuid.NewString(), uuid.NewString()
	if hit(a) != http.StatusNoContent || hit(b) != http.StatusNoContent {
		t.Fatal("expected first request per user to pass")
	}
	if hit(a) != http.StatusTooManyRequests {
		t.Fatal("expected second request for same user to be limited")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	now := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.allow("old")
	now = now.Add(time.Hour)
	limiter.allow("fresh")
	limiter.Cleanup()

	if _, ok := limiter.limiters["old"]; ok {
		t.Fatal("expected idle limiter to be removed")
	}
	if _, ok := limiter.limiters["fresh"]; !ok {
		t.Fatal("expected recent limiter to be kept")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewRateLimiter(0, 0)

	router := gin.New()
	router.GET("/open", limiter.Handler(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/open", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected no limiting, got %d", rec.Code)
		}
	}
}
