package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *time.Time) {
	t.Helper()
	l := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Hour})
	t.Cleanup(l.Stop)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLimiter_Allow(t *testing.T) {
	l, now := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		if !l.Allow("1.1.1.1") {
			t.Fatalf("request %d rejected", i+1)
		}
	}
	if l.Allow("1.1.1.1") {
		t.Fatal("fourth request allowed")
	}
	if !l.Allow("2.2.2.2") {
		t.Fatal("other client rejected")
	}

	*now = now.Add(time.Minute)
	if !l.Allow("1.1.1.1") {
		t.Fatal("request after window reset rejected")
	}
}

func TestLimiter_RemoveIdle(t *testing.T) {
	l, now := newTestLimiter(t, 3)
	l.Allow("1.1.1.1")
	*now = now.Add(30 * time.Second)
	l.Allow("2.2.2.2")

	*now = now.Add(45 * time.Second)
	l.removeIdle()

	if got := l.ActiveClients(); got != 1 {
		t.Fatalf("ActiveClients() = %d, want 1", got)
	}
}

func TestLimiter_Middleware(t *testing.T) {
	l, _ := newTestLimiter(t, 1)
	ip := func(r *http.Request) string { return r.RemoteAddr }
	handler := l.Middleware(ip, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("first status = %d, want 204", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
	}
}
