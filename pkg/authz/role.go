package authz

import (
	"context"
)

// Role is a named bundle of permissions with an optional single parent.
type Role struct {
	ID          string       `json:"id" yaml:"id"`
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Type        RoleType     `json:"type" yaml:"type"`
	CompanyID   string       `json:"company_id,omitempty" yaml:"company_id,omitempty"`
	ParentID    string       `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	Priority    int          `json:"priority" yaml:"priority"`
	IsSystem    bool         `json:"is_system" yaml:"is_system"`
	IsDefault   bool         `json:"is_default" yaml:"is_default"`
	IsActive    bool         `json:"is_active" yaml:"is_active"`
	Permissions []Permission `json:"permissions,omitempty" yaml:"permissions,omitempty"`
}

// CanManage reports whether r may administer target. The system super
// admin manages anything; otherwise r must outrank target inside the same
// company.
func (r Role) CanManage(target Role) bool {
	if r.Type == RoleTypeSuperAdmin && r.IsSystem {
		return true
	}
	if r.CompanyID == "" || r.CompanyID != target.CompanyID {
		return false
	}
	return r.Type.Outranks(target.Type)
}

// RoleGraph holds a set of roles linked by parent pointers.
type RoleGraph struct {
	roles map[string]Role
}

func NewRoleGraph(roles ...Role) *RoleGraph {
	g := &RoleGraph{roles: make(map[string]Role, len(roles))}
	for _, r := range roles {
		g.roles[r.ID] = r
	}
	return g
}

// Put adds or replaces a role without checking for cycles.
func (g *RoleGraph) Put(r Role) {
	g.roles[r.ID] = r
}

func (g *RoleGraph) Role(id string) (Role, bool) {
	r, ok := g.roles[id]
	return r, ok
}

// Len returns the number of roles in the graph.
func (g *RoleGraph) Len() int {
	return len(g.roles)
}

// Chain walks from id up through its ancestors. A missing role is
// NotFound and a repeated role is InvalidState.
func (g *RoleGraph) Chain(id string) ([]Role, error) {
	var chain []Role
	visited := make(map[string]bool)
	for cur := id; cur != ""; {
		if visited[cur] {
			return nil, InvalidState("role hierarchy cycle through %q", cur)
		}
		visited[cur] = true
		r, ok := g.roles[cur]
		if !ok {
			if cur == id {
				return nil, NotFound("role %q", cur)
			}
			return nil, NotFound("parent role %q of %q", cur, chain[len(chain)-1].ID)
		}
		chain = append(chain, r)
		cur = r.ParentID
	}
	return chain, nil
}

// AllPermissions returns the role's own permissions followed by inherited
// ones, de-duplicated by identity.
func (g *RoleGraph) AllPermissions(id string) ([]Permission, error) {
	chain, err := g.Chain(id)
	if err != nil {
		return nil, err
	}
	var out []Permission
	seen := make(map[string]bool)
	for _, r := range chain {
		for _, p := range r.Permissions {
			k := p.Key()
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, p)
		}
	}
	return out, nil
}

// EffectivePermissions filters AllPermissions to what applies inside
// companyID: GLOBAL, COMPANY (unpinned or pinned to companyID) and
// PERSONAL. ASSIGNED grants come from overrides only.
func (g *RoleGraph) EffectivePermissions(id, companyID string) ([]Permission, error) {
	all, err := g.AllPermissions(id)
	if err != nil {
		return nil, err
	}
	out := all[:0:0]
	for _, p := range all {
		switch p.Scope {
		case ScopeGlobal, ScopePersonal:
			out = append(out, p)
		case ScopeCompany:
			if p.ResourceID == "" || p.ResourceID == companyID {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

// ValidateParent rejects a parent assignment that would close a cycle.
func (g *RoleGraph) ValidateParent(roleID, parentID string) error {
	if parentID == "" {
		return nil
	}
	if roleID == parentID {
		return InvalidState("role %q cannot be its own parent", roleID)
	}
	visited := make(map[string]bool)
	for cur := parentID; cur != ""; {
		if cur == roleID {
			return InvalidState("setting parent of %q to %q creates a cycle", roleID, parentID)
		}
		if visited[cur] {
			return InvalidState("role hierarchy cycle through %q", cur)
		}
		visited[cur] = true
		r, ok := g.roles[cur]
		if !ok {
			return NotFound("role %q", cur)
		}
		cur = r.ParentID
	}
	return nil
}

// Validate checks every role in the graph for cycles and dangling parents.
func (g *RoleGraph) Validate() error {
	for id := range g.roles {
		if _, err := g.Chain(id); err != nil {
			return err
		}
	}
	return nil
}

// RoleReader loads single roles with their own permissions.
type RoleReader interface {
	GetRole(ctx context.Context, id string) (Role, error)
}

// LoadRoleGraph fetches roleID and its ancestors. Loading stops at the
// first repeated id so that cycles in stored data surface from Chain as
// InvalidState rather than looping.
func LoadRoleGraph(ctx context.Context, roles RoleReader, roleID string) (*RoleGraph, error) {
	g := NewRoleGraph()
	for cur := roleID; cur != ""; {
		if _, seen := g.roles[cur]; seen {
			break
		}
		r, err := roles.GetRole(ctx, cur)
		if err != nil {
			return nil, err
		}
		g.Put(r)
		cur = r.ParentID
	}
	return g, nil
}
