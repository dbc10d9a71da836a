// Package server provides the HTTP server for the authorization API.
//
// It uses gorilla/mux for routing, gorilla/handlers for access logging and
// verifies the identity service's session tokens before any protected
// route runs.
//
// # Server Setup
//
//	srv := server.NewServer(cfg, engine, rules, ledger, "0.0.0.0", "8080",
//	    server.WithMetrics(m),
//	    server.WithAttempts(tracker),
//	)
//	endpoints.RegisterAll(srv)
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Components
//
// The Server struct holds:
//
//   - Engine: the decision engine all requests are answered by
//   - Store: the rule store behind the engine
//   - Ledger: the audit ledger every decision is recorded in
//   - Metrics: Prometheus collectors for requests and decisions
//   - Attempts: optional per-actor throttling of denied requests
//   - JWTMiddleware: session token validation
//
// # Endpoints
//
// API endpoints are registered via the endpoints subpackage:
//
//   - POST /authorize, /authorize/batch - decisions
//   - /admin/permissions, /admin/roles, /admin/policies - administration
//   - GET /users/{id}/permissions - effective permissions
//   - GET /analytics/{type}/{id} - ledger analytics and reports
//   - GET /, /health, /metrics - status
package server
