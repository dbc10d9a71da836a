package authz

import (
	"fmt"
	"sort"
	"strings"
)

// Permission is a catalog grant identified by (resource, action, scope).
type Permission struct {
	ID          string           `json:"id" yaml:"id"`
	Name        string           `json:"name,omitempty" yaml:"name,omitempty"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Resource    Resource         `json:"resource" yaml:"resource"`
	Action      Action           `json:"action" yaml:"action"`
	Scope       Scope            `json:"scope" yaml:"scope"`
	ResourceID  string           `json:"resource_id,omitempty" yaml:"resource_id,omitempty"`
	Conditions  map[string]Value `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	IsActive    bool             `json:"is_active" yaml:"is_active"`
}

// PermissionKey formats the canonical "resource:action:SCOPE" string.
func PermissionKey(resource Resource, action Action, scope Scope) string {
	return fmt.Sprintf("%s:%s:%s", resource, action, scope)
}

// Key is the permission identity used for de-duplication.
func (p Permission) Key() string {
	key := PermissionKey(p.Resource, p.Action, p.Scope)
	if p.ResourceID != "" {
		key += ":" + p.ResourceID
	}
	return key
}

// Matches reports whether p covers (resource, action, scope). A nil scope
// always matches; a GLOBAL permission matches any requested scope.
func (p Permission) Matches(resource Resource, action Action, scope *Scope) bool {
	return scopedMatch(p.Resource, p.Action, p.Scope, resource, action, scope)
}

// AllowsAccess is false when p is inactive or pinned to a different
// resource instance.
func (p Permission) AllowsAccess(resourceID string) bool {
	if !p.IsActive {
		return false
	}
	return pinnedMatch(p.ResourceID, resourceID)
}

// ConditionsSatisfied evaluates the permission's condition map. Keys are
// "<context>.<field>" ("request.ip_address") or a bare resource field
// ("status"). A list value is a membership test, anything else equality.
func (p Permission) ConditionsSatisfied(ctx *EvalContext) (bool, error) {
	if len(p.Conditions) == 0 {
		return true, nil
	}
	keys := make([]string, 0, len(p.Conditions))
	for k := range p.Conditions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		ct, field, err := splitConditionKey(key)
		if err != nil {
			return false, err
		}
		actual, err := ctx.Lookup(ct, field)
		if err != nil {
			return false, err
		}
		expected := p.Conditions[key]
		if expected.Kind() == KindList {
			if !expected.Contains(actual) {
				return false, nil
			}
			continue
		}
		if !expected.Equal(actual) {
			return false, nil
		}
	}
	return true, nil
}

func splitConditionKey(key string) (ContextType, string, error) {
	prefix, field, ok := strings.Cut(key, ".")
	if !ok {
		return ContextTypeResource, key, nil
	}
	ct, err := ContextTypeString(strings.ToUpper(prefix))
	if err != nil {
		return 0, "", InvalidState("permission condition %q: unknown context %q", key, prefix)
	}
	if field == "" {
		return 0, "", InvalidState("permission condition %q: missing field", key)
	}
	return ct, field, nil
}

func scopedMatch(gotResource Resource, gotAction Action, gotScope Scope, resource Resource, action Action, scope *Scope) bool {
	if gotResource != resource || gotAction != action {
		return false
	}
	if scope == nil || gotScope == ScopeGlobal {
		return true
	}
	return gotScope == *scope
}

func pinnedMatch(pinned, requested string) bool {
	return pinned == "" || requested == "" || pinned == requested
}
