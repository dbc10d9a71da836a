package endpoints

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
	"github.com/doodlesbykumbi/fincore-authz/pkg/server"
)

// CheckRequest is one (resource, action) question in wire form.
type CheckRequest struct {
	Resource   string                 `json:"resource" validate:"required"`
	Action     string                 `json:"action" validate:"required"`
	Scope      string                 `json:"scope,omitempty" validate:"omitempty,oneof=GLOBAL COMPANY PERSONAL ASSIGNED"`
	ResourceID string                 `json:"resource_id,omitempty" validate:"omitempty,max=255"`
	Target     authz.ResourceSnapshot `json:"target,omitempty"`
}

// AuthorizeRequest asks for a single decision. Company carries tenant
// attributes the caller already knows.
type AuthorizeRequest struct {
	CheckRequest
	Company *authz.CompanyInfo `json:"company,omitempty"`
}

// BatchAuthorizeRequest asks for up to 100 decisions sharing one
// environment.
type BatchAuthorizeRequest struct {
	Checks  []CheckRequest     `json:"checks" validate:"required,min=1,max=100,dive"`
	Company *authz.CompanyInfo `json:"company,omitempty"`
}

// AuthorizeResponse wraps a decision. Error is set when the decision was
// forced by a missing user or role.
type AuthorizeResponse struct {
	Decision authz.Decision `json:"decision"`
	Error    *ErrorBody     `json:"error,omitempty"`
}

type BatchAuthorizeResponse struct {
	Results map[string]authz.Decision `json:"results"`
	Error   *ErrorBody                `json:"error,omitempty"`
}

// RegisterAuthorizeEndpoints registers the decision API endpoints
func RegisterAuthorizeEndpoints(s *server.Server) {
	authzRouter := s.Protected("/authorize")

	// POST /authorize - Decide one check for the caller
	authzRouter.HandleFunc("", handleAuthorize(s.Engine, s.Log)).Methods("POST")

	// POST /authorize/batch - Decide several checks, keyed by check key
	authzRouter.HandleFunc("/batch", handleAuthorizeBatch(s.Engine, s.Log)).Methods("POST")
}

func (c CheckRequest) toCheck() (authz.Check, error) {
	resource, err := authz.ResourceString(c.Resource)
	if err != nil {
		return authz.Check{}, authz.InvalidInput("unknown resource %q", c.Resource)
	}
	action, err := authz.ActionString(c.Action)
	if err != nil {
		return authz.Check{}, authz.InvalidInput("unknown action %q", c.Action)
	}
	check := authz.Check{
		Resource:   resource,
		Action:     action,
		ResourceID: c.ResourceID,
		Target:     c.Target,
	}
	if c.Scope != "" {
		scope, err := authz.ScopeString(c.Scope)
		if err != nil {
			return authz.Check{}, authz.InvalidInput("unknown scope %q", c.Scope)
		}
		check.Scope = scope.Ptr()
	}
	return check, nil
}

func errorBody(err error) *ErrorBody {
	if err == nil {
		return nil
	}
	return &ErrorBody{Category: authz.CategoryOf(err), Message: authz.ReasonOf(err)}
}

func handleAuthorize(engine *authz.Engine, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requestIdentity(w, r)
		if !ok {
			return
		}

		env := id.Environment(r.Method, r.URL.Path)

		var req AuthorizeRequest
		if err := decodeJSON(r, &req); err != nil {
			engine.RecordRejected(r.Context(), id.Actor(), env, req.Resource, req.Action, err)
			respondWithDomainError(w, err)
			return
		}
		check, err := req.toCheck()
		if err != nil {
			engine.RecordRejected(r.Context(), id.Actor(), env, req.Resource, req.Action, err)
			respondWithDomainError(w, err)
			return
		}
		mergeCompany(&env, req.Company)

		d, err := engine.Authorize(r.Context(), id.Actor(), check, env)
		if err != nil {
			log.WithFields(logrus.Fields{"actor": id.UserID, "check": d.Check, "error": err}).Info("authorization failed")
			respondWithJSON(w, statusFor(err), AuthorizeResponse{Decision: d, Error: errorBody(err)})
			return
		}
		respondWithJSON(w, http.StatusOK, AuthorizeResponse{Decision: d})
	}
}

func handleAuthorizeBatch(engine *authz.Engine, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requestIdentity(w, r)
		if !ok {
			return
		}

		env := id.Environment(r.Method, r.URL.Path)

		var req BatchAuthorizeRequest
		if err := decodeJSON(r, &req); err != nil {
			engine.RecordRejected(r.Context(), id.Actor(), env, "", "", err)
			respondWithDomainError(w, err)
			return
		}
		checks := make([]authz.Check, 0, len(req.Checks))
		for _, c := range req.Checks {
			check, err := c.toCheck()
			if err != nil {
				engine.RecordRejected(r.Context(), id.Actor(), env, c.Resource, c.Action, err)
				respondWithDomainError(w, err)
				return
			}
			checks = append(checks, check)
		}
		mergeCompany(&env, req.Company)

		results, err := engine.AuthorizeBatch(r.Context(), id.Actor(), checks, env)
		if err != nil {
			log.WithFields(logrus.Fields{"actor": id.UserID, "checks": len(checks), "error": err}).Info("batch authorization failed")
			respondWithJSON(w, statusFor(err), BatchAuthorizeResponse{Results: results, Error: errorBody(err)})
			return
		}
		respondWithJSON(w, http.StatusOK, BatchAuthorizeResponse{Results: results})
	}
}

// mergeCompany adds caller supplied tenant attributes. The tenant id always
// comes from the session.
func mergeCompany(env *authz.Environment, company *authz.CompanyInfo) {
	if company == nil {
		return
	}
	env.Company.Name = company.Name
	env.Company.Fields = company.Fields
}
