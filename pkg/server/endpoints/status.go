package endpoints

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"github.com/doodlesbykumbi/fincore-authz/pkg/server"
)

// HealthResponse represents the response from /health
type HealthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	Database     string `json:"database"`
	AuditPending int    `json:"audit_pending"`
	Error        string `json:"error,omitempty"`
}

// HealthChecker is the part of the rule store /health probes.
type HealthChecker interface {
	CheckConnectivity(ctx context.Context) error
}

// PendingCounter reports the size of the audit retry queue.
type PendingCounter interface {
	Pending() int
}

// RegisterStatusEndpoints registers the status, health and metrics endpoints
func RegisterStatusEndpoints(s *server.Server) {
	// GET / - Version (no auth required)
	s.Router.HandleFunc("/", handleStatus()).Methods("GET")

	// GET /health - Store connectivity and audit backlog (no auth required)
	s.Router.HandleFunc("/health", handleHealth(s.Store, s.Ledger)).Methods("GET")

	// GET /metrics - Prometheus exposition (no auth required)
	s.Router.Handle("/metrics", s.Metrics.Handler()).Methods("GET")
}

func version() string {
	v := os.Getenv("AUTHZ_VERSION")
	if v == "" {
		v = "0.1.0"
	}
	return v
}

func handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"service": "fincore-authz", "version": version()})
	}
}

func handleHealth(checker HealthChecker, pending PendingCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{Status: "ok", Version: version(), Database: "ok"}
		if pending != nil {
			resp.AuditPending = pending.Pending()
		}

		if err := checker.CheckConnectivity(r.Context()); err != nil {
			resp.Status = "error"
			resp.Database = "unreachable"
			resp.Error = "database connectivity check failed"
			respondWithJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		if resp.AuditPending > 0 {
			resp.Status = "degraded"
		}
		respondWithJSON(w, http.StatusOK, resp)
	}
}
