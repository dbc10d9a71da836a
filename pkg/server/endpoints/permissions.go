package endpoints

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
	"github.com/doodlesbykumbi/fincore-authz/pkg/server"
	"github.com/doodlesbykumbi/fincore-authz/pkg/server/store"
)

// RegisterPermissionsEndpoints registers the introspection endpoints
func RegisterPermissionsEndpoints(s *server.Server) {
	usersRouter := s.Protected("/users")

	// GET /users/{id}/permissions - Effective permissions of a user.
	// Users may always read their own; anyone else needs users:manage on
	// the target.
	usersRouter.HandleFunc("/{id}/permissions", handleEffectivePermissions(s.Engine, s.Store)).Methods("GET")
}

func handleEffectivePermissions(engine *authz.Engine, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requestIdentity(w, r)
		if !ok {
			return
		}
		userID := mux.Vars(r)["id"]

		if userID != id.UserID {
			target, err := st.GetUser(r.Context(), userID)
			if err != nil {
				respondWithDomainError(w, err)
				return
			}
			d, err := engine.Authorize(r.Context(), id.Actor(), authz.Check{
				Resource:   authz.ResourceUsers,
				Action:     authz.ActionManage,
				ResourceID: target.ID,
				Target:     authz.ResourceSnapshot{ID: target.ID, OwnerID: target.ID, CompanyID: target.CompanyID},
			}, id.Environment(r.Method, r.URL.Path))
			if err != nil {
				respondWithDomainError(w, err)
				return
			}
			if !d.Allowed {
				respondWithError(w, http.StatusForbidden, ErrorBody{Category: "forbidden", Message: d.Reason})
				return
			}
		}

		perms, err := engine.GetEffectivePermissions(r.Context(), userID)
		if err != nil {
			respondWithDomainError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, perms)
	}
}
