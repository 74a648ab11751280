package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimiterThrottles(t *testing.T) {
	rl := NewRateLimiter(map[string]RateLimit{
		"mutate": {RequestsPerMinute: 60, Burst: 2},
	}, nil)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := rl.Middleware("mutate")(next)

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("X-Real-IP", ip)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("10.0.0.1"); code != http.StatusOK {
		t.Fatalf("first request: %d", code)
	}
	if code := send("10.0.0.1"); code != http.StatusOK {
		t.Fatalf("second request: %d", code)
	}
	if code := send("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", code)
	}

	// Buckets are per caller.
	if code := send("10.0.0.2"); code != http.StatusOK {
		t.Fatalf("other caller throttled: %d", code)
	}
}

func TestRateLimiterUnknownClassPassesThrough(t *testing.T) {
	rl := NewRateLimiter(map[string]RateLimit{}, nil)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := rl.Middleware("unlimited")(next)
	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d throttled", i)
		}
	}
}
