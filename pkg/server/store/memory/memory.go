// Package memory is an in-process implementation of store.Store.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
	"github.com/doodlesbykumbi/fincore-authz/pkg/server/store"
)

var _ store.Store = (*Store)(nil)

type state struct {
	permissions map[string]authz.Permission
	roles       map[string]authz.Role
	rolePerms   map[string][]string
	users       map[string]authz.User
	overrides   map[string]authz.UserPermission
	policies    map[string]authz.Policy
}

func newState() *state {
	return &state{
		permissions: map[string]authz.Permission{},
		roles:       map[string]authz.Role{},
		rolePerms:   map[string][]string{},
		users:       map[string]authz.User{},
		overrides:   map[string]authz.UserPermission{},
		policies:    map[string]authz.Policy{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.permissions {
		c.permissions[k] = v
	}
	for k, v := range s.roles {
		c.roles[k] = v
	}
	for k, v := range s.rolePerms {
		c.rolePerms[k] = append([]string(nil), v...)
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.overrides {
		c.overrides[k] = v
	}
	for k, v := range s.policies {
		c.policies[k] = v
	}
	return c
}

// Store keeps rules in maps. It is safe for concurrent use.
type Store struct {
	mu sync.RWMutex
	s  *state
}

func New() *Store {
	return &Store{s: newState()}
}

func (m *Store) read(fn func(s *state) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(m.s)
}

func (m *Store) write(fn func(s *state) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.s)
}

// Transaction runs fn against a copy and swaps it in when fn succeeds.
// Writers outside the transaction wait until it finishes.
func (m *Store) Transaction(ctx context.Context, fn func(tx store.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &Store{s: m.s.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	m.s = tx.s
	return nil
}

func (m *Store) CheckConnectivity(context.Context) error {
	return nil
}

func (m *Store) GetUser(_ context.Context, id string) (authz.User, error) {
	var u authz.User
	err := m.read(func(s *state) error {
		var ok bool
		if u, ok = s.users[id]; !ok {
			return authz.NotFound("user %q", id)
		}
		return nil
	})
	return u, err
}

func (m *Store) UpsertUser(_ context.Context, u authz.User) error {
	if u.ID == "" {
		return authz.InvalidInput("user id is required")
	}
	return m.write(func(s *state) error {
		if u.RoleID != "" {
			if _, ok := s.roles[u.RoleID]; !ok {
				return authz.NotFound("role %q", u.RoleID)
			}
		}
		s.users[u.ID] = u
		return nil
	})
}

func (m *Store) SetUserRole(_ context.Context, userID, roleID string) error {
	return m.write(func(s *state) error {
		u, ok := s.users[userID]
		if !ok {
			return authz.NotFound("user %q", userID)
		}
		if roleID != "" {
			if _, ok := s.roles[roleID]; !ok {
				return authz.NotFound("role %q", roleID)
			}
		}
		u.RoleID = roleID
		s.users[userID] = u
		return nil
	})
}

func (m *Store) GetPermission(_ context.Context, id string) (authz.Permission, error) {
	var p authz.Permission
	err := m.read(func(s *state) error {
		var ok bool
		if p, ok = s.permissions[id]; !ok {
			return authz.NotFound("permission %q", id)
		}
		return nil
	})
	return p, err
}

func (m *Store) FindPermission(_ context.Context, resource authz.Resource, action authz.Action, scope authz.Scope) (authz.Permission, error) {
	var found authz.Permission
	err := m.read(func(s *state) error {
		for _, id := range sortedKeys(s.permissions) {
			p := s.permissions[id]
			if p.Resource == resource && p.Action == action && p.Scope == scope && p.ResourceID == "" {
				found = p
				return nil
			}
		}
		return authz.NotFound("permission %s", authz.PermissionKey(resource, action, scope))
	})
	return found, err
}

func (m *Store) UpsertPermission(_ context.Context, p authz.Permission) error {
	if p.ID == "" {
		return authz.InvalidInput("permission id is required")
	}
	return m.write(func(s *state) error {
		s.permissions[p.ID] = p
		return nil
	})
}

func (s *state) role(id string) (authz.Role, bool) {
	r, ok := s.roles[id]
	if !ok {
		return r, false
	}
	r.Permissions = nil
	for _, pid := range s.rolePerms[id] {
		if p, ok := s.permissions[pid]; ok {
			r.Permissions = append(r.Permissions, p)
		}
	}
	return r, true
}

func (s *state) graph() *authz.RoleGraph {
	g := authz.NewRoleGraph()
	for id := range s.roles {
		r, _ := s.role(id)
		g.Put(r)
	}
	return g
}

func (m *Store) GetRole(_ context.Context, id string) (authz.Role, error) {
	var r authz.Role
	err := m.read(func(s *state) error {
		var ok bool
		if r, ok = s.role(id); !ok {
			return authz.NotFound("role %q", id)
		}
		return nil
	})
	return r, err
}

func (m *Store) ListRoles(_ context.Context, companyID string) ([]authz.Role, error) {
	var out []authz.Role
	err := m.read(func(s *state) error {
		for _, id := range sortedKeys(s.roles) {
			r, _ := s.role(id)
			if companyID == "" || r.CompanyID == "" || r.CompanyID == companyID {
				out = append(out, r)
			}
		}
		return nil
	})
	return out, err
}

func (m *Store) upsertRole(s *state, r authz.Role, create bool) error {
	if r.ID == "" {
		return authz.InvalidInput("role id is required")
	}
	if _, exists := s.roles[r.ID]; exists && create {
		return authz.InvalidState("role %q already exists", r.ID)
	}
	for id, other := range s.roles {
		if id != r.ID && other.Name == r.Name {
			return authz.InvalidState("role name %q is taken", r.Name)
		}
	}
	ids := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		if _, ok := s.permissions[p.ID]; !ok {
			return authz.NotFound("permission %q", p.ID)
		}
		ids = append(ids, p.ID)
	}
	g := s.graph()
	g.Put(r)
	if err := g.ValidateParent(r.ID, r.ParentID); err != nil {
		return err
	}
	stored := r
	stored.Permissions = nil
	s.roles[r.ID] = stored
	s.rolePerms[r.ID] = ids
	return nil
}

func (m *Store) UpsertRole(_ context.Context, r authz.Role) error {
	return m.write(func(s *state) error {
		return m.upsertRole(s, r, false)
	})
}

func (m *Store) CreateRole(_ context.Context, r authz.Role) error {
	return m.write(func(s *state) error {
		return m.upsertRole(s, r, true)
	})
}

func (m *Store) SetRoleParent(_ context.Context, roleID, parentID string) error {
	return m.write(func(s *state) error {
		r, ok := s.roles[roleID]
		if !ok {
			return authz.NotFound("role %q", roleID)
		}
		if err := s.graph().ValidateParent(roleID, parentID); err != nil {
			return err
		}
		r.ParentID = parentID
		s.roles[roleID] = r
		return nil
	})
}

func (m *Store) DeleteRole(_ context.Context, roleID string) error {
	return m.write(func(s *state) error {
		r, ok := s.roles[roleID]
		if !ok {
			return authz.NotFound("role %q", roleID)
		}
		if r.IsSystem {
			return authz.Forbidden("role %q is a system role", roleID)
		}
		for id, other := range s.roles {
			if other.ParentID == roleID {
				return authz.InvalidState("role %q is the parent of %q", roleID, id)
			}
		}
		for id, u := range s.users {
			if u.RoleID == roleID {
				return authz.InvalidState("role %q is assigned to %q", roleID, id)
			}
		}
		delete(s.roles, roleID)
		delete(s.rolePerms, roleID)
		return nil
	})
}

func (m *Store) ListUserPermissions(_ context.Context, userID string) ([]authz.UserPermission, error) {
	var out []authz.UserPermission
	err := m.read(func(s *state) error {
		for _, id := range sortedKeys(s.overrides) {
			if up := s.overrides[id]; up.UserID == userID {
				out = append(out, up)
			}
		}
		return nil
	})
	return out, err
}

func (m *Store) GetUserPermission(_ context.Context, id string) (authz.UserPermission, error) {
	var up authz.UserPermission
	err := m.read(func(s *state) error {
		var ok bool
		if up, ok = s.overrides[id]; !ok {
			return authz.NotFound("user permission %q", id)
		}
		return nil
	})
	return up, err
}

func (m *Store) FindOverride(_ context.Context, userID, permissionID string) (authz.UserPermission, error) {
	var found authz.UserPermission
	err := m.read(func(s *state) error {
		for _, id := range sortedKeys(s.overrides) {
			up := s.overrides[id]
			if up.UserID == userID && up.PermissionID == permissionID && up.IsActive {
				found = up
				return nil
			}
		}
		return authz.NotFound("override of %q for %q", permissionID, userID)
	})
	return found, err
}

func (m *Store) CreateUserPermission(_ context.Context, up authz.UserPermission) error {
	if up.ID == "" {
		return authz.InvalidInput("user permission id is required")
	}
	return m.write(func(s *state) error {
		if _, ok := s.users[up.UserID]; !ok {
			return authz.NotFound("user %q", up.UserID)
		}
		if _, exists := s.overrides[up.ID]; exists {
			return authz.InvalidState("user permission %q already exists", up.ID)
		}
		if up.PermissionID != "" {
			if _, ok := s.permissions[up.PermissionID]; !ok {
				return authz.NotFound("permission %q", up.PermissionID)
			}
			for _, other := range s.overrides {
				if other.UserID == up.UserID && other.PermissionID == up.PermissionID && other.IsActive && up.IsActive {
					return authz.InvalidState("user %q already has an override of %q", up.UserID, up.PermissionID)
				}
			}
		}
		s.overrides[up.ID] = up
		return nil
	})
}

func (m *Store) UpdateUserPermission(_ context.Context, up authz.UserPermission) error {
	return m.write(func(s *state) error {
		if _, ok := s.overrides[up.ID]; !ok {
			return authz.NotFound("user permission %q", up.ID)
		}
		s.overrides[up.ID] = up
		return nil
	})
}

func (m *Store) ListPolicies(_ context.Context, f authz.PolicyFilter) ([]authz.Policy, error) {
	var out []authz.Policy
	err := m.read(func(s *state) error {
		for _, p := range s.policies {
			if p.CompanyID != "" && p.CompanyID != f.CompanyID {
				continue
			}
			if f.Resource != nil && p.Resource != *f.Resource {
				continue
			}
			if f.Action != nil && p.Action != *f.Action {
				continue
			}
			out = append(out, p)
		}
		return nil
	})
	authz.SortPolicies(out)
	return out, err
}

func (m *Store) GetPolicy(_ context.Context, id string) (authz.Policy, error) {
	var p authz.Policy
	err := m.read(func(s *state) error {
		var ok bool
		if p, ok = s.policies[id]; !ok {
			return authz.NotFound("policy %q", id)
		}
		return nil
	})
	return p, err
}

func (s *state) nameTaken(p authz.Policy) bool {
	for id, other := range s.policies {
		if id != p.ID && other.Name == p.Name {
			return true
		}
	}
	return false
}

func (m *Store) CreatePolicy(_ context.Context, p authz.Policy) error {
	return m.write(func(s *state) error {
		if _, exists := s.policies[p.ID]; exists {
			return authz.InvalidState("policy %q already exists", p.ID)
		}
		if s.nameTaken(p) {
			return authz.InvalidState("policy name %q is taken", p.Name)
		}
		s.policies[p.ID] = p
		return nil
	})
}

func (m *Store) UpdatePolicy(_ context.Context, p authz.Policy) error {
	return m.write(func(s *state) error {
		if _, ok := s.policies[p.ID]; !ok {
			return authz.NotFound("policy %q", p.ID)
		}
		if s.nameTaken(p) {
			return authz.InvalidState("policy name %q is taken", p.Name)
		}
		s.policies[p.ID] = p
		return nil
	})
}

func (m *Store) UpsertPolicy(_ context.Context, p authz.Policy) error {
	return m.write(func(s *state) error {
		for id, other := range s.policies {
			if other.Name == p.Name {
				p.ID = id
			}
		}
		if p.ID == "" {
			return authz.InvalidInput("policy %q has no id", p.Name)
		}
		s.policies[p.ID] = p
		return nil
	})
}

func (m *Store) DeletePolicy(_ context.Context, id string) error {
	return m.write(func(s *state) error {
		if _, ok := s.policies[id]; !ok {
			return authz.NotFound("policy %q", id)
		}
		delete(s.policies, id)
		return nil
	})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
