package endpoints

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
	"github.com/doodlesbykumbi/fincore-authz/pkg/server"
	"github.com/doodlesbykumbi/fincore-authz/pkg/server/store"
)

// GrantPermissionRequest creates a user override. Either PermissionID names
// a catalog permission or Resource, Action and Scope describe the grant.
type GrantPermissionRequest struct {
	UserID       string `json:"user_id" validate:"required,max=255"`
	PermissionID string `json:"permission_id,omitempty"`
	Resource     string `json:"resource,omitempty" validate:"required_without=PermissionID"`
	Action       string `json:"action,omitempty" validate:"required_without=PermissionID"`
	Scope        string `json:"scope,omitempty" validate:"omitempty,oneof=GLOBAL COMPANY PERSONAL ASSIGNED"`
	Effect       string `json:"effect,omitempty" validate:"omitempty,oneof=ALLOW DENY"`
	ResourceID   string `json:"resource_id,omitempty" validate:"omitempty,max=255"`
	Duration     string `json:"duration,omitempty"`
	Reason       string `json:"reason,omitempty" validate:"max=500"`
}

type ExtendPermissionRequest struct {
	Duration string `json:"duration" validate:"required"`
}

type CreateRoleRequest struct {
	ID          string `json:"id,omitempty" validate:"omitempty,max=255"`
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description,omitempty" validate:"max=500"`
	Type        string `json:"type" validate:"required"`
	CompanyID   string `json:"company_id,omitempty"`
	ParentID    string `json:"parent_id,omitempty"`
	Priority    int    `json:"priority" validate:"min=0,max=10000"`
	IsDefault   bool   `json:"is_default,omitempty"`
}

type AssignRoleRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// SetParentRequest re-parents a role. An empty ParentID detaches it.
type SetParentRequest struct {
	ParentID string `json:"parent_id"`
}

type ConditionRequest struct {
	Field    string      `json:"field"`
	Operator string      `json:"operator" validate:"required"`
	Value    authz.Value `json:"value"`
	Context  string      `json:"context" validate:"required"`
}

type PolicyRequest struct {
	Name        string             `json:"name" validate:"required,max=100"`
	Description string             `json:"description,omitempty" validate:"max=500"`
	Effect      string             `json:"effect" validate:"required,oneof=ALLOW DENY"`
	Resource    string             `json:"resource" validate:"required"`
	Action      string             `json:"action" validate:"required"`
	Conditions  []ConditionRequest `json:"conditions,omitempty" validate:"max=32,dive"`
	CompanyID   string             `json:"company_id,omitempty"`
	RoleID      string             `json:"role_id,omitempty"`
	UserID      string             `json:"user_id,omitempty"`
	Priority    int                `json:"priority" validate:"min=0,max=10000"`
	ValidFrom   *time.Time         `json:"valid_from,omitempty"`
	ValidUntil  *time.Time         `json:"valid_until,omitempty"`
	Active      *bool              `json:"active,omitempty"`
}

type PolicyActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// RegisterAdminEndpoints registers the administrative API endpoints
func RegisterAdminEndpoints(s *server.Server) {
	engine := s.Engine

	adminRouter := s.Protected("/admin")

	// POST /admin/permissions - Grant or deny a user permission
	adminRouter.HandleFunc("/permissions", handleGrantPermission(engine)).Methods("POST")

	// DELETE /admin/permissions/{id}?reason=... - Revoke a user permission
	adminRouter.HandleFunc("/permissions/{id}", handleRevokePermission(engine)).Methods("DELETE")

	// POST /admin/permissions/{id}/extend - Push the expiry out
	adminRouter.HandleFunc("/permissions/{id}/extend", handleExtendPermission(engine)).Methods("POST")

	// POST /admin/roles - Create a role
	adminRouter.HandleFunc("/roles", handleCreateRole(engine)).Methods("POST")

	// DELETE /admin/roles/{id} - Delete a non-system role
	adminRouter.HandleFunc("/roles/{id}", handleDeleteRole(engine)).Methods("DELETE")

	// POST /admin/roles/{id}/assign - Assign the role to a user
	adminRouter.HandleFunc("/roles/{id}/assign", handleAssignRole(engine)).Methods("POST")

	// DELETE /admin/roles/{id}/assign/{userId} - Remove the role from a user
	adminRouter.HandleFunc("/roles/{id}/assign/{userId}", handleRemoveRole(engine, s.Store)).Methods("DELETE")

	// PUT /admin/roles/{id}/parent - Re-parent a role
	adminRouter.HandleFunc("/roles/{id}/parent", handleSetRoleParent(engine)).Methods("PUT")

	// POST /admin/policies - Create a policy
	adminRouter.HandleFunc("/policies", handleCreatePolicy(engine)).Methods("POST")

	// PUT /admin/policies/{id} - Replace a policy
	adminRouter.HandleFunc("/policies/{id}", handleUpdatePolicy(engine)).Methods("PUT")

	// PUT /admin/policies/{id}/active - Switch a policy on or off
	adminRouter.HandleFunc("/policies/{id}/active", handleSetPolicyActive(engine)).Methods("PUT")

	// DELETE /admin/policies/{id} - Delete a policy
	adminRouter.HandleFunc("/policies/{id}", handleDeletePolicy(engine)).Methods("DELETE")
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, authz.InvalidInput("invalid duration %q", s)
	}
	return d, nil
}

func (req GrantPermissionRequest) toGrant() (authz.GrantRequest, error) {
	grant := authz.GrantRequest{
		UserID:       req.UserID,
		PermissionID: req.PermissionID,
		ResourceID:   req.ResourceID,
		Reason:       req.Reason,
		Effect:       authz.EffectAllow,
	}
	var err error
	if req.Effect != "" {
		if grant.Effect, err = authz.EffectString(req.Effect); err != nil {
			return grant, authz.InvalidInput("unknown effect %q", req.Effect)
		}
	}
	if grant.Duration, err = parseDuration(req.Duration); err != nil {
		return grant, err
	}
	if req.PermissionID != "" {
		return grant, nil
	}
	if grant.Resource, err = authz.ResourceString(req.Resource); err != nil {
		return grant, authz.InvalidInput("unknown resource %q", req.Resource)
	}
	if grant.Action, err = authz.ActionString(req.Action); err != nil {
		return grant, authz.InvalidInput("unknown action %q", req.Action)
	}
	grant.Scope = authz.ScopeCompany
	if req.Scope != "" {
		if grant.Scope, err = authz.ScopeString(req.Scope); err != nil {
			return grant, authz.InvalidInput("unknown scope %q", req.Scope)
		}
	}
	return grant, nil
}

func (req CreateRoleRequest) toRole() (authz.Role, error) {
	roleType, err := authz.RoleTypeString(req.Type)
	if err != nil {
		return authz.Role{}, authz.InvalidInput("unknown role type %q", req.Type)
	}
	return authz.Role{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Type:        roleType,
		CompanyID:   req.CompanyID,
		ParentID:    req.ParentID,
		Priority:    req.Priority,
		IsDefault:   req.IsDefault,
		IsActive:    true,
	}, nil
}

func (req PolicyRequest) toPolicy(id string) (authz.Policy, error) {
	p := authz.Policy{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		CompanyID:   req.CompanyID,
		RoleID:      req.RoleID,
		UserID:      req.UserID,
		Priority:    req.Priority,
		ValidFrom:   req.ValidFrom,
		ValidUntil:  req.ValidUntil,
		IsActive:    req.Active == nil || *req.Active,
	}
	var err error
	if p.Effect, err = authz.EffectString(req.Effect); err != nil {
		return p, authz.InvalidInput("unknown effect %q", req.Effect)
	}
	if p.Resource, err = authz.ResourceString(req.Resource); err != nil {
		return p, authz.InvalidInput("unknown resource %q", req.Resource)
	}
	if p.Action, err = authz.ActionString(req.Action); err != nil {
		return p, authz.InvalidInput("unknown action %q", req.Action)
	}
	for i, c := range req.Conditions {
		op, err := authz.OperatorString(c.Operator)
		if err != nil {
			return p, authz.InvalidInput("condition %d: unknown operator %q", i, c.Operator)
		}
		ct, err := authz.ContextTypeString(c.Context)
		if err != nil {
			return p, authz.InvalidInput("condition %d: unknown context %q", i, c.Context)
		}
		p.Conditions = append(p.Conditions, authz.Condition{Field: c.Field, Operator: op, Value: c.Value, ContextType: ct})
	}
	return p, nil
}

func handleGrantPermission(engine *authz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requestIdentity(w, r)
		if !ok {
			return
		}
		var req GrantPermissionRequest
		if err := decodeJSON(r, &req); err != nil {
			respondWithDomainError(w, err)
			return
		}
		grant, err := req.toGrant()
		if err != nil {
			respondWithDomainError(w, err)
			return
		}

		up, err := engine.GrantPermission(r.Context(), id.Actor(), grant)
		if err != nil {
			respondWithDomainError(w, err)
			return
		}
		respondWithJSON(w, http.StatusCreated, up)
	}
}

func handleRevokePermission(engine *authz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requestIdentity(w, r)
		if !ok {
			return
		}
		up, err := engine.RevokePermission(r.Context(), id.Actor(), mux.Vars(r)["id"], r.URL.Query().Get("reason"))
		if err != nil {
			respondWithDomainError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, up)
	}
}

func handleExtendPermission(engine *authz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requestIdentity(w, r)
		if !ok {
			return
		}
		var req ExtendPermissionRequest
		if err := decodeJSON(r, &req); err != nil {
			respondWithDomainError(w, err)
			return
		}
		d, err := parseDuration(req.Duration)
		if err != nil {
			respondWithDomainError(w, err)
			return
		}
		up, err := engine.ExtendPermission(r.Context(), id.Actor(), mux.Vars(r)["id"], d)
		if err != nil {
			respondWithDomainError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, up)
	}
}

func handleCreateRole(engine *authz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requestIdentity(w, r)
		if !ok {
			return
		}
		var req CreateRoleRequest
		if err := decodeJSON(r, &req); err != nil {
			respondWithDomainError(w, err)
			return
		}
		role, err := req.toRole()
		if err != nil {
			respondWithDomainError(w, err)
			return
		}
		created, err := engine.CreateRole(r.Context(), id.Actor(), role)
		if err != nil {
			respondWithDomainError(w, err)
			return
		}
		respondWithJSON(w, http.StatusCreated, created)
	}
}

func handleDeleteRole(engine *authz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requestIdentity(w, r)
		if !ok {
			return
		}
		if err := engine.DeleteRole(r.Context(), id.Actor(), mux.Vars(r)["id"]); err != nil {
			respondWithDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleAssignRole(engine *authz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requestIdentity(w, r)
		if !ok {
			return
		}
		var req AssignRoleRequest
		if err := decodeJSON(r, &req); err != nil {
			respondWithDomainError(w, err)
			return
		}
		if err := engine.AssignRole(r.Context(), id.Actor(), req.UserID, mux.Vars(r)["id"]); err != nil {
			respondWithDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleRemoveRole(engine *authz.Engine, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requestIdentity(w, r)
		if !ok {
			return
		}
		vars := mux.Vars(r)
		roleID, userID := vars["id"], vars["userId"]

		target, err := st.GetUser(r.Context(), userID)
		if err != nil {
			respondWithDomainError(w, err)
			return
		}
		if target.RoleID != roleID {
			respondWithDomainError(w, authz.InvalidState("user %q does not hold role %q", userID, roleID))
			return
		}
		if err := engine.RemoveRole(r.Context(), id.Actor(), userID); err != nil {
			respondWithDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleSetRoleParent(engine *authz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requestIdentity(w, r)
		if !ok {
			return
		}
		var req SetParentRequest
		if err := decodeJSON(r, &req); err != nil {
			respondWithDomainError(w, err)
			return
		}
		if err := engine.SetRoleParent(r.Context(), id.Actor(), mux.Vars(r)["id"], req.ParentID); err != nil {
			respondWithDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleCreatePolicy(engine *authz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requestIdentity(w, r)
		if !ok {
			return
		}
		var req PolicyRequest
		if err := decodeJSON(r, &req); err != nil {
			respondWithDomainError(w, err)
			return
		}
		p, err := req.toPolicy("")
		if err != nil {
			respondWithDomainError(w, err)
			return
		}
		created, err := engine.CreatePolicy(r.Context(), id.Actor(), p)
		if err != nil {
			respondWithDomainError(w, err)
			return
		}
		respondWithJSON(w, http.StatusCreated, created)
	}
}

func handleUpdatePolicy(engine *authz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requestIdentity(w, r)
		if !ok {
			return
		}
		var req PolicyRequest
		if err := decodeJSON(r, &req); err != nil {
			respondWithDomainError(w, err)
			return
		}
		p, err := req.toPolicy(mux.Vars(r)["id"])
		if err != nil {
			respondWithDomainError(w, err)
			return
		}
		updated, err := engine.UpdatePolicy(r.Context(), id.Actor(), p)
		if err != nil {
			respondWithDomainError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, updated)
	}
}

func handleSetPolicyActive(engine *authz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requestIdentity(w, r)
		if !ok {
			return
		}
		var req PolicyActiveRequest
		if err := decodeJSON(r, &req); err != nil {
			respondWithDomainError(w, err)
			return
		}
		p, err := engine.SetPolicyActive(r.Context(), id.Actor(), mux.Vars(r)["id"], *req.Active)
		if err != nil {
			respondWithDomainError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, p)
	}
}

func handleDeletePolicy(engine *authz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requestIdentity(w, r)
		if !ok {
			return
		}
		if err := engine.DeletePolicy(r.Context(), id.Actor(), mux.Vars(r)["id"]); err != nil {
			respondWithDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
