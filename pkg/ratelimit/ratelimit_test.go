package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(2, 15*time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := l.Allow(ctx, "login:1.2.3.4")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, err := l.Allow(ctx, "login:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 15*time.Minute, res.RetryAfter)

	other, _ := l.Allow(ctx, "login:5.6.7.8")
	assert.True(t, other.Allowed)

	now = now.Add(15 * time.Minute)
	res, _ = l.Allow(ctx, "login:1.2.3.4")
	assert.True(t, res.Allowed)
}

func TestMemoryLimiter_EvictsExpiredWindows(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(5, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		_, err := l.Allow(ctx, "login:"+ip)
		require.NoError(t, err)
	}
	assert.Len(t, l.windows, 3)

	now = now.Add(30 * time.Second)
	_, _ = l.Allow(ctx, "login:10.0.0.4")
	assert.Len(t, l.windows, 4, "live windows are kept")

	now = now.Add(45 * time.Second)
	_, err := l.Allow(ctx, "login:10.0.0.5")
	require.NoError(t, err)
	assert.Len(t, l.windows, 2)
	assert.Contains(t, l.windows, "login:10.0.0.4")
	assert.Contains(t, l.windows, "login:10.0.0.5")
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (Result, error) {
	return Result{}, errors.New("redis: connection refused")
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/login", Middleware(NewMemoryLimiter(1, time.Hour), "login", "Too many authentication attempts, please try again later"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.POST("/open", Middleware(failingLimiter{}, "open", "nope"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "3600", second.Header().Get("Retry-After"))
	assert.Contains(t, second.Body.String(), "Too many authentication attempts")

	open := httptest.NewRecorder()
	router.ServeHTTP(open, httptest.NewRequest(http.MethodPost, "/open", nil))
	assert.Equal(t, http.StatusOK, open.Code)
}
