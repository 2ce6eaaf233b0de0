package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// newTestLimiter spins up a miniredis-backed Echo instance with a single
// rate-limited route.
func newTestLimiter(t *testing.T, maxRequests int, window time.Duration) (*echo.Echo, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	e := echo.New()
	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	}, RateLimit(rdb, maxRequests, window))

	return e, mr
}

func doRequest(e *echo.Echo, ip string) int {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":12345"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimit_UnderLimit(t *testing.T) {
	e, _ := newTestLimiter(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		if code := doRequest(e, "203.0.113.7"); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, code)
		}
	}
}

func TestRateLimit_OverLimit(t *testing.T) {
	e, _ := newTestLimiter(t, 2, time.Minute)

	doRequest(e, "203.0.113.7")
	doRequest(e, "203.0.113.7")

	if code := doRequest(e, "203.0.113.7"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", code)
	}
}

func TestRateLimit_PerIP(t *testing.T) {
	e, _ := newTestLimiter(t, 1, time.Minute)

	if code := doRequest(e, "203.0.113.7"); code != http.StatusOK {
		t.Fatalf("first IP: expected 200, got %d", code)
	}
	if code := doRequest(e, "203.0.113.8"); code != http.StatusOK {
		t.Fatalf("second IP should have its own counter, got %d", code)
	}
	if code := doRequest(e, "203.0.113.7"); code != http.StatusTooManyRequests {
		t.Fatalf("first IP over limit: expected 429, got %d", code)
	}
}

func TestRateLimit_WindowExpiry(t *testing.T) {
	e, mr := newTestLimiter(t, 1, time.Minute)

	doRequest(e, "203.0.113.7")
	if code := doRequest(e, "203.0.113.7"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 within window, got %d", code)
	}

	// Advance past the window; the counter key expires and the IP gets
	// a fresh allowance.
	mr.FastForward(2 * time.Minute)

	if code := doRequest(e, "203.0.113.7"); code != http.StatusOK {
		t.Fatalf("expected 200 after window expiry, got %d", code)
	}
}

func TestRateLimit_FailsOpenWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	e := echo.New()
	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	}, RateLimit(rdb, 1, time.Minute))

	mr.Close()

	if code := doRequest(e, "203.0.113.7"); code != http.StatusOK {
		t.Fatalf("expected limiter to fail open, got %d", code)
	}
}
