// Package ratelimit throttles requests per client IP over a one minute window.
package ratelimit

import (
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Limiter counts requests per client inside a fixed one minute window.
type Limiter struct {
	mu       sync.Mutex
	clients  map[string]*window
	limit    int
	interval time.Duration
	now      func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type window struct {
	start time.Time
	count int
}

type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 10,
		CleanupInterval:   5 * time.Minute,
	}
}

// NewLimiter starts a limiter with a background sweep of idle clients.
// Call Stop to end the sweep.
func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}

	l := &Limiter{
		clients:  make(map[string]*window),
		limit:    cfg.RequestsPerMinute,
		interval: cfg.CleanupInterval,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go l.sweep()
	return l
}

// Allow reports whether the client may make another request now.
func (l *Limiter) Allow(clientIP string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.clients[clientIP]
	if !ok || now.Sub(w.start) >= time.Minute {
		l.clients[clientIP] = &window{start: now, count: 1}
		return true
	}
	w.count++
	return w.count <= l.limit
}

// ActiveClients returns how many clients are currently tracked.
func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Limiter) sweep() {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.removeIdle()
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) removeIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-time.Minute)
	for ip, w := range l.clients {
		if w.start.Before(cutoff) {
			delete(l.clients, ip)
		}
	}
}

// Middleware rejects requests over the limit. onLimit renders the rejection;
// when nil a plain 429 is written.
func (l *Limiter) Middleware(extractIP func(*http.Request) string, onLimit http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := extractIP(r)
			if !l.Allow(ip) {
				slog.WarnContext(r.Context(), "Rate limit exceeded",
					"client_ip", ip,
					"path", r.URL.Path,
					"method", r.Method)
				w.Header().Set("Retry-After", "60")
				if onLimit != nil {
					onLimit(w, r)
					return
				}
				http.Error(w, "Too many requests, try again later", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
