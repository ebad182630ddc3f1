package http

import (
	"context"
	"net/http"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// handleReady checks the database and the receipt store.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	for name, dep := range map[string]Pinger{"database": s.database, "receipts": s.receipts} {
		switch {
		case dep == nil:
			checks[name] = "not_configured"
		case ctx.Err() != nil:
			checks[name] = "timeout"
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		default:
			if err := dep.Ping(ctx); err != nil {
				checks[name] = "failed: " + err.Error()
				status, httpStatus = "not_ready", http.StatusServiceUnavailable
			} else {
				checks[name] = "ok"
			}
		}
	}

	checks["login_rate_limiter"] = map[string]any{
		"active_clients": s.loginLimiter.ActiveClients(),
	}
	checks["blocked_probes"] = s.detector.Blocked()

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}
