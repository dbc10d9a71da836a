package endpoints

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/fincore-authz/pkg/audit"
	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
	"github.com/doodlesbykumbi/fincore-authz/pkg/report"
	"github.com/doodlesbykumbi/fincore-authz/pkg/server"
	"github.com/doodlesbykumbi/fincore-authz/pkg/server/store"
)

const defaultAnalyticsDays = 30

// RegisterAnalyticsEndpoints registers the security analytics endpoints
func RegisterAnalyticsEndpoints(s *server.Server) {
	analyticsRouter := s.Protected("/analytics")

	// GET /analytics/{type}/{id}?days=N - Ledger aggregates for a user or
	// company. ?format=html or ?format=markdown renders the report.
	analyticsRouter.HandleFunc("/{type}/{id}", handleAnalytics(s.Engine, s.Ledger, s.Store)).Methods("GET")
}

func handleAnalytics(engine *authz.Engine, ledger *audit.Ledger, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requestIdentity(w, r)
		if !ok {
			return
		}
		vars := mux.Vars(r)
		targetID := vars["id"]
		targetType, err := audit.ParseTargetType(vars["type"])
		if err != nil {
			respondWithDomainError(w, authz.InvalidInput("%v", err))
			return
		}
		days := defaultAnalyticsDays
		if raw := r.URL.Query().Get("days"); raw != "" {
			days, err = strconv.Atoi(raw)
			if err != nil || days < 1 {
				respondWithDomainError(w, authz.InvalidInput("days must be a positive integer"))
				return
			}
		}

		format := strings.ToLower(r.URL.Query().Get("format"))
		switch format {
		case "", "json", "markdown", "md", "html":
		default:
			respondWithDomainError(w, authz.InvalidInput("unknown format %q", format))
			return
		}

		// Reading the ledger of a tenant is itself an authorization check.
		companyID := targetID
		if targetType == audit.TargetUser {
			target, err := st.GetUser(r.Context(), targetID)
			if err != nil {
				respondWithDomainError(w, err)
				return
			}
			companyID = target.CompanyID
		}
		d, err := engine.Authorize(r.Context(), id.Actor(), authz.Check{
			Resource:   authz.ResourceAuditLogs,
			Action:     authz.ActionRead,
			ResourceID: targetID,
			Target:     authz.ResourceSnapshot{ID: targetID, CompanyID: companyID},
		}, id.Environment(r.Method, r.URL.Path))
		if err != nil {
			respondWithDomainError(w, err)
			return
		}
		if !d.Allowed {
			respondWithError(w, http.StatusForbidden, ErrorBody{Category: "forbidden", Message: d.Reason})
			return
		}

		if format == "" || format == "json" {
			a, err := engine.GetSecurityAnalytics(r.Context(), targetID, targetType, days)
			if err != nil {
				respondWithDomainError(w, err)
				return
			}
			respondWithJSON(w, http.StatusOK, a)
			return
		}

		rep, err := report.Build(r.Context(), engine, ledger, targetID, targetType, days, report.DefaultHighRiskLimit)
		if err != nil {
			respondWithDomainError(w, err)
			return
		}
		if format == "html" {
			html, err := rep.HTML()
			if err != nil {
				respondWithDomainError(w, err)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(html))
			return
		}
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(rep.Markdown()))
	}
}
