package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T, n int) (*Limiter, *fakeClock) {
	t.Helper()
	rl := NewLimiter(Config{Requests: n, Window: time.Minute, CleanupInterval: time.Hour})
	t.Cleanup(rl.Stop)
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl.now = clock.now
	return rl, clock
}

func TestAllow(t *testing.T) {
	rl, clock := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("a") {
			t.Fatalf("request %d rejected", i+1)
		}
	}
	if rl.Allow("a") {
		t.Error("fourth request in window should be rejected")
	}
	if !rl.Allow("b") {
		t.Error("other clients have their own budget")
	}

	clock.advance(time.Minute)
	if !rl.Allow("a") {
		t.Error("new window should reset the budget")
	}
	if got := rl.GetMetrics(); got.TotalHits != 1 || got.ClientCount != 2 {
		t.Errorf("GetMetrics() = %+v", got)
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	rl, clock := newTestLimiter(t, 3)
	rl.Allow("a")
	clock.advance(30 * time.Second)
	rl.Allow("b")
	clock.advance(40 * time.Second)

	if removed := rl.cleanupStaleEntries(); removed != 1 {
		t.Errorf("removed %d, want 1", removed)
	}
	if rl.ActiveClients() != 1 {
		t.Errorf("ActiveClients() = %d, want 1", rl.ActiveClients())
	}
}

func TestMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	h := rl.Middleware(func(*http.Request) string { return "client" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	tests := []struct {
		method string
		want   int
	}{
		{http.MethodPost, http.StatusNoContent},
		{http.MethodPut, http.StatusTooManyRequests},
		{http.MethodGet, http.StatusNoContent},
		{http.MethodDelete, http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(tt.method, "/accounts", nil))
		if w.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.method, w.Code, tt.want)
		}
		if w.Code == http.StatusTooManyRequests && w.Header().Get("Retry-After") != "60" {
			t.Errorf("Retry-After = %q, want 60", w.Header().Get("Retry-After"))
		}
	}
}

func TestStopIsIdempotent(t *testing.T) {
	rl := NewLimiter(DefaultConfig())
	rl.Stop()
	rl.Stop()
}
