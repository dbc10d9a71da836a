package endpoints

import (
	"github.com/doodlesbykumbi/fincore-authz/pkg/server"
)

// RegisterAll registers all API endpoints on the server
func RegisterAll(srv *server.Server) {
	RegisterStatusEndpoints(srv)
	RegisterAuthorizeEndpoints(srv)
	RegisterPermissionsEndpoints(srv)
	RegisterAdminEndpoints(srv)
	RegisterAnalyticsEndpoints(srv)
}
