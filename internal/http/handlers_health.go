package http

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

// handleReady reports dependency state. A missing model degrades forecasts
// only, so the service stays ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{"ledger": "ok"}
	if s.ledger == nil {
		checks["ledger"] = "not_configured"
	}
	switch probe, ok := s.predictor.(ModelProbe); {
	case s.predictor == nil:
		checks["model"] = "not_configured"
	case !ok:
		checks["model"] = "ok"
	default:
		if _, err := probe.Model(ctx); err != nil {
			checks["model"] = fmt.Sprintf("unavailable: %v", err)
		} else {
			checks["model"] = "ok"
		}
	}

	status, code := "ready", http.StatusOK
	if s.ledger == nil {
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides request and rate limiting counters in plain text.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tm := s.tracer.GetMetrics()
	rm := s.limiter.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "# HELP bilancio_http_requests_total Total HTTP requests\n")
	fmt.Fprintf(w, "# TYPE bilancio_http_requests_total counter\n")
	fmt.Fprintf(w, "bilancio_http_requests_total %d\n", tm.TotalRequests)
	fmt.Fprintf(w, "# HELP bilancio_http_server_errors_total Responses with status >= 500\n")
	fmt.Fprintf(w, "# TYPE bilancio_http_server_errors_total counter\n")
	fmt.Fprintf(w, "bilancio_http_server_errors_total %d\n", tm.ServerFailures)
	fmt.Fprintf(w, "# HELP bilancio_rate_limit_hits_total Rejected write requests\n")
	fmt.Fprintf(w, "# TYPE bilancio_rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "bilancio_rate_limit_hits_total %d\n", rm.TotalHits)
	fmt.Fprintf(w, "# HELP bilancio_rate_limit_clients Tracked clients\n")
	fmt.Fprintf(w, "# TYPE bilancio_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "bilancio_rate_limit_clients %d\n", rm.ClientCount)
}
