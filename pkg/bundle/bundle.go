package bundle

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
)

// namespace seeds the name based ids of bundle records, so reloading a
// bundle updates the same rows instead of creating new ones.
var namespace = uuid.MustParse("6f1c7a2e-4d0b-5f8e-9a3c-2b7d1e0f4c55")

// Bundle is the YAML document form of a rule set. Records reference each
// other by name.
type Bundle struct {
	Permissions []PermissionSpec `yaml:"permissions"`
	Roles       []RoleSpec       `yaml:"roles"`
	Users       []UserSpec       `yaml:"users"`
	Policies    []PolicySpec     `yaml:"policies"`
	Overrides   []OverrideSpec   `yaml:"overrides"`
}

type PermissionSpec struct {
	ID          string                 `yaml:"id"`
	Name        string                 `yaml:"name"`
	Description string                 `yaml:"description"`
	Resource    string                 `yaml:"resource"`
	Action      string                 `yaml:"action"`
	Scope       string                 `yaml:"scope"`
	ResourceID  string                 `yaml:"resource_id"`
	Conditions  map[string]authz.Value `yaml:"conditions"`
	Inactive    bool                   `yaml:"inactive"`
}

type RoleSpec struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Type        string   `yaml:"type"`
	Company     string   `yaml:"company"`
	Parent      string   `yaml:"parent"`
	Priority    int      `yaml:"priority"`
	System      bool     `yaml:"system"`
	Default     bool     `yaml:"default"`
	Inactive    bool     `yaml:"inactive"`
	Permissions []string `yaml:"permissions"`
}

type UserSpec struct {
	ID       string `yaml:"id"`
	Email    string `yaml:"email"`
	Company  string `yaml:"company"`
	Role     string `yaml:"role"`
	Inactive bool   `yaml:"inactive"`
}

type ConditionSpec struct {
	Field    string      `yaml:"field"`
	Operator string      `yaml:"operator"`
	Value    authz.Value `yaml:"value"`
	Context  string      `yaml:"context"`
}

type PolicySpec struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Effect      string          `yaml:"effect"`
	Resource    string          `yaml:"resource"`
	Action      string          `yaml:"action"`
	Conditions  []ConditionSpec `yaml:"conditions"`
	Company     string          `yaml:"company"`
	Role        string          `yaml:"role"`
	User        string          `yaml:"user"`
	Priority    int             `yaml:"priority"`
	ValidFrom   *time.Time      `yaml:"valid_from"`
	ValidUntil  *time.Time      `yaml:"valid_until"`
	Inactive    bool            `yaml:"inactive"`
}

// OverrideSpec grants or denies one user a permission. Either Permission
// names a catalog entry or Resource/Action/Scope describe an ad-hoc grant.
type OverrideSpec struct {
	ID         string     `yaml:"id"`
	User       string     `yaml:"user"`
	Permission string     `yaml:"permission"`
	Resource   string     `yaml:"resource"`
	Action     string     `yaml:"action"`
	Scope      string     `yaml:"scope"`
	Effect     string     `yaml:"effect"`
	ResourceID string     `yaml:"resource_id"`
	ExpiresAt  *time.Time `yaml:"expires_at"`
	GrantedBy  string     `yaml:"granted_by"`
	Reason     string     `yaml:"reason"`
}

// Parse decodes a bundle. Unknown keys are rejected.
func Parse(r io.Reader) (*Bundle, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var b Bundle
	if err := dec.Decode(&b); err != nil {
		if err == io.EOF {
			return &b, nil
		}
		return nil, authz.InvalidInput("parsing bundle: %v", err)
	}
	return &b, nil
}

// Compiled is a bundle resolved into domain records. Roles are ordered so
// that every parent precedes its children.
type Compiled struct {
	Permissions []authz.Permission
	Roles       []authz.Role
	Users       []authz.User
	Policies    []authz.Policy
	Overrides   []authz.UserPermission
}

func stableID(kind, name string) string {
	return uuid.NewSHA1(namespace, []byte(kind+"/"+name)).String()
}

// RoleID is the id a bundle assigns to a role named name when the role
// carries no explicit id.
func RoleID(name string) string { return stableID("role", name) }

// PermissionID is the RoleID counterpart for catalog permissions.
func PermissionID(name string) string { return stableID("permission", name) }

// PolicyID is the RoleID counterpart for policies.
func PolicyID(name string) string { return stableID("policy", name) }

func idOr(id, kind, name string) string {
	if id != "" {
		return id
	}
	return stableID(kind, name)
}

// Compile resolves names, parses enumerations and validates the role
// graph. now stamps override creation times.
func (b *Bundle) Compile(now time.Time) (*Compiled, error) {
	out := &Compiled{}

	perms := make(map[string]authz.Permission, len(b.Permissions))
	for _, spec := range b.Permissions {
		p, err := spec.compile()
		if err != nil {
			return nil, err
		}
		if _, dup := perms[p.Name]; dup {
			return nil, authz.InvalidInput("permission %q is defined twice", p.Name)
		}
		perms[p.Name] = p
		out.Permissions = append(out.Permissions, p)
	}

	roleIDs := make(map[string]string, len(b.Roles))
	for _, spec := range b.Roles {
		if strings.TrimSpace(spec.Name) == "" {
			return nil, authz.InvalidInput("role without a name")
		}
		if _, dup := roleIDs[spec.Name]; dup {
			return nil, authz.InvalidInput("role %q is defined twice", spec.Name)
		}
		roleIDs[spec.Name] = idOr(spec.ID, "role", spec.Name)
	}
	roleRef := func(ref string) string {
		if id, ok := roleIDs[ref]; ok {
			return id
		}
		return ref
	}

	graph := authz.NewRoleGraph()
	roles := make([]authz.Role, 0, len(b.Roles))
	for _, spec := range b.Roles {
		typ, err := authz.RoleTypeString(spec.Type)
		if err != nil {
			return nil, authz.InvalidInput("role %q: unknown type %q", spec.Name, spec.Type)
		}
		r := authz.Role{
			ID:          roleIDs[spec.Name],
			Name:        spec.Name,
			Description: spec.Description,
			Type:        typ,
			CompanyID:   spec.Company,
			ParentID:    roleRef(spec.Parent),
			Priority:    spec.Priority,
			IsSystem:    spec.System,
			IsDefault:   spec.Default,
			IsActive:    !spec.Inactive,
		}
		for _, name := range spec.Permissions {
			p, ok := perms[name]
			if !ok {
				return nil, authz.NotFound("role %q: permission %q", spec.Name, name)
			}
			r.Permissions = append(r.Permissions, p)
		}
		graph.Put(r)
		roles = append(roles, r)
	}
	ordered, err := parentsFirst(roles, graph)
	if err != nil {
		return nil, err
	}
	out.Roles = ordered

	users := make(map[string]bool, len(b.Users))
	for _, spec := range b.Users {
		if spec.ID == "" {
			return nil, authz.InvalidInput("user without an id")
		}
		if users[spec.ID] {
			return nil, authz.InvalidInput("user %q is defined twice", spec.ID)
		}
		users[spec.ID] = true
		u := authz.User{
			ID:        spec.ID,
			Email:     spec.Email,
			CompanyID: spec.Company,
			IsActive:  !spec.Inactive,
		}
		if spec.Role != "" {
			u.RoleID = roleRef(spec.Role)
		}
		out.Users = append(out.Users, u)
	}

	for _, spec := range b.Policies {
		p, err := spec.compile(roleRef)
		if err != nil {
			return nil, err
		}
		out.Policies = append(out.Policies, p)
	}

	for i, spec := range b.Overrides {
		up, err := spec.compile(i, perms, now)
		if err != nil {
			return nil, err
		}
		out.Overrides = append(out.Overrides, up)
	}
	return out, nil
}

func (spec PermissionSpec) compile() (authz.Permission, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return authz.Permission{}, authz.InvalidInput("permission without a name")
	}
	resource, action, scope, err := parseTriple(spec.Resource, spec.Action, spec.Scope)
	if err != nil {
		return authz.Permission{}, authz.InvalidInput("permission %q: %v", spec.Name, err)
	}
	return authz.Permission{
		ID:          idOr(spec.ID, "permission", spec.Name),
		Name:        spec.Name,
		Description: spec.Description,
		Resource:    resource,
		Action:      action,
		Scope:       scope,
		ResourceID:  spec.ResourceID,
		Conditions:  spec.Conditions,
		IsActive:    !spec.Inactive,
	}, nil
}

func (spec PolicySpec) compile(roleRef func(string) string) (authz.Policy, error) {
	effect, err := authz.EffectString(spec.Effect)
	if err != nil {
		return authz.Policy{}, authz.InvalidInput("policy %q: unknown effect %q", spec.Name, spec.Effect)
	}
	resource, err := authz.ResourceString(spec.Resource)
	if err != nil {
		return authz.Policy{}, authz.InvalidInput("policy %q: unknown resource %q", spec.Name, spec.Resource)
	}
	action, err := authz.ActionString(spec.Action)
	if err != nil {
		return authz.Policy{}, authz.InvalidInput("policy %q: unknown action %q", spec.Name, spec.Action)
	}
	p := authz.Policy{
		ID:          idOr(spec.ID, "policy", spec.Name),
		Name:        spec.Name,
		Description: spec.Description,
		Effect:      effect,
		Resource:    resource,
		Action:      action,
		CompanyID:   spec.Company,
		UserID:      spec.User,
		Priority:    spec.Priority,
		ValidFrom:   spec.ValidFrom,
		ValidUntil:  spec.ValidUntil,
		IsActive:    !spec.Inactive,
	}
	if spec.Role != "" {
		p.RoleID = roleRef(spec.Role)
	}
	for i, c := range spec.Conditions {
		op, err := authz.OperatorString(c.Operator)
		if err != nil {
			return authz.Policy{}, authz.InvalidInput("policy %q condition %d: unknown operator %q", spec.Name, i, c.Operator)
		}
		ctxType, err := authz.ContextTypeString(c.Context)
		if err != nil {
			return authz.Policy{}, authz.InvalidInput("policy %q condition %d: unknown context %q", spec.Name, i, c.Context)
		}
		p.Conditions = append(p.Conditions, authz.Condition{Field: c.Field, Operator: op, Value: c.Value, ContextType: ctxType})
	}
	if err := authz.ValidatePolicy(p); err != nil {
		return authz.Policy{}, err
	}
	return p, nil
}

func (spec OverrideSpec) compile(index int, perms map[string]authz.Permission, now time.Time) (authz.UserPermission, error) {
	if spec.User == "" {
		return authz.UserPermission{}, authz.InvalidInput("override %d: user is required", index)
	}
	effect := authz.EffectAllow
	if spec.Effect != "" {
		e, err := authz.EffectString(spec.Effect)
		if err != nil {
			return authz.UserPermission{}, authz.InvalidInput("override %d: unknown effect %q", index, spec.Effect)
		}
		effect = e
	}
	up := authz.UserPermission{
		UserID:      spec.User,
		Effect:      effect,
		ResourceID:  spec.ResourceID,
		ExpiresAt:   spec.ExpiresAt,
		IsTemporary: spec.ExpiresAt != nil,
		IsActive:    true,
		GrantedBy:   spec.GrantedBy,
		Reason:      spec.Reason,
		CreatedAt:   now,
	}
	if spec.Permission != "" {
		p, ok := perms[spec.Permission]
		if !ok {
			return authz.UserPermission{}, authz.NotFound("override %d: permission %q", index, spec.Permission)
		}
		up.PermissionID = p.ID
		up.Resource, up.Action, up.Scope = p.Resource, p.Action, p.Scope
		up.ID = idOr(spec.ID, "override", spec.User+"/"+p.ID)
		return up, nil
	}
	resource, action, scope, err := parseTriple(spec.Resource, spec.Action, spec.Scope)
	if err != nil {
		return authz.UserPermission{}, authz.InvalidInput("override %d: %v", index, err)
	}
	up.Resource, up.Action, up.Scope = resource, action, scope
	up.ID = idOr(spec.ID, "override", fmt.Sprintf("%s/%s/%s", spec.User, authz.PermissionKey(resource, action, scope), spec.ResourceID))
	return up, nil
}

func parseTriple(resource, action, scope string) (authz.Resource, authz.Action, authz.Scope, error) {
	r, err := authz.ResourceString(resource)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("unknown resource %q", resource)
	}
	a, err := authz.ActionString(action)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("unknown action %q", action)
	}
	s, err := authz.ScopeString(scope)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("unknown scope %q", scope)
	}
	return r, a, s, nil
}

// parentsFirst orders roles by depth. Parents outside the bundle are
// assumed to exist in the store already.
func parentsFirst(roles []authz.Role, graph *authz.RoleGraph) ([]authz.Role, error) {
	depth := make(map[string]int, len(roles))
	for _, r := range roles {
		d := 0
		visited := map[string]bool{}
		for cur := r.ParentID; cur != ""; {
			if cur == r.ID || visited[cur] {
				return nil, authz.InvalidState("role hierarchy cycle through %q", r.Name)
			}
			visited[cur] = true
			parent, ok := graph.Role(cur)
			if !ok {
				break
			}
			d++
			cur = parent.ParentID
		}
		depth[r.ID] = d
	}
	out := append([]authz.Role(nil), roles...)
	sort.SliceStable(out, func(i, j int) bool {
		return depth[out[i].ID] < depth[out[j].ID]
	})
	return out, nil
}
