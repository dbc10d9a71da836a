package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/fincore-authz/pkg/attempts"
	"github.com/doodlesbykumbi/fincore-authz/pkg/audit"
	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
	"github.com/doodlesbykumbi/fincore-authz/pkg/bundle"
	"github.com/doodlesbykumbi/fincore-authz/pkg/identity"
	"github.com/doodlesbykumbi/fincore-authz/pkg/server"
)

const fixtureBundle = "../../bundle/testdata/fincore.yml"

// A Tuesday morning, inside business hours.
var fixtureNow = time.Date(2026, 6, 2, 10, 0, 0, 0, time.UTC)

func newFixtureServer(t *testing.T, opts ...server.Option) *TestServer {
	t.Helper()
	ts, err := NewTestServer(fixtureBundle, fixtureNow, opts...)
	require.NoError(t, err)
	return ts
}

func doRequest(t *testing.T, ts *TestServer, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "203.0.113.10:4711"
	if userID != "" {
		token, err := ts.Token(userID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

func approveCheck(companyID string) map[string]interface{} {
	return map[string]interface{}{
		"resource":    "transactions",
		"action":      "approve",
		"resource_id": "tx-1",
		"target":      map[string]interface{}{"id": "tx-1", "company_id": companyID},
	}
}

func TestAuthorize_RequiresToken(t *testing.T) {
	ts := newFixtureServer(t)

	w := doRequest(t, ts, "POST", "/authorize", "", approveCheck("acme"))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, ts.Audit.Len())
}

func TestAuthorize_Decisions(t *testing.T) {
	tests := []struct {
		name        string
		user        string
		body        map[string]interface{}
		wantAllowed bool
		wantRisk    int
		wantCheck   string
	}{
		{
			name:        "clerk approves inside own company",
			user:        "carol",
			body:        approveCheck("acme"),
			wantAllowed: true,
			wantRisk:    authz.RiskRolePermission + authz.RiskPolicyAllow,
			wantCheck:   "transactions:approve:tx-1",
		},
		{
			name:        "clerk approves for another company",
			user:        "carol",
			body:        approveCheck("globex"),
			wantAllowed: false,
			wantRisk:    authz.RiskRolePermission + authz.RiskPolicyDeny,
			wantCheck:   "transactions:approve:tx-1",
		},
		{
			name:        "deny override beats the role",
			user:        "mallory",
			body:        map[string]interface{}{"resource": "transactions", "action": "read"},
			wantAllowed: false,
			wantRisk:    authz.RiskRolePermission + authz.RiskOverrideDeny,
			wantCheck:   "transactions:read",
		},
		{
			name:        "temporary grant",
			user:        "victor",
			body:        map[string]interface{}{"resource": "reports", "action": "export", "scope": "COMPANY"},
			wantAllowed: true,
			wantRisk:    authz.RiskTemporaryGrant,
			wantCheck:   "reports:export:COMPANY",
		},
		{
			name:        "no matching rule",
			user:        "victor",
			body:        map[string]interface{}{"resource": "settings", "action": "update"},
			wantAllowed: false,
			wantRisk:    0,
			wantCheck:   "settings:update",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newFixtureServer(t)

			w := doRequest(t, ts, "POST", "/authorize", tt.user, tt.body)

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			var resp AuthorizeResponse
			decodeBody(t, w, &resp)
			assert.Equal(t, tt.wantAllowed, resp.Decision.Allowed, resp.Decision.Reason)
			assert.Equal(t, tt.wantRisk, resp.Decision.RiskScore)
			assert.Equal(t, tt.wantCheck, resp.Decision.Check)
			assert.NotEmpty(t, resp.Decision.AuditID)
			assert.Nil(t, resp.Error)
			assert.Equal(t, 1, ts.Audit.Len(), "one ledger entry per decision")
		})
	}
}

func TestAuthorize_UnknownUser(t *testing.T) {
	ts := newFixtureServer(t)

	claims := identity.Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "ghost",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(TestIdentitySecret))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(approveCheck("acme")))
	req := httptest.NewRequest("POST", "/authorize", &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	var resp AuthorizeResponse
	decodeBody(t, w, &resp)
	assert.False(t, resp.Decision.Allowed)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "not_found", resp.Error.Category)
	assert.Equal(t, 1, ts.Audit.Len(), "the denial is still audited")
}

func TestAuthorize_InactiveUser(t *testing.T) {
	ts := newFixtureServer(t)

	w := doRequest(t, ts, "POST", "/authorize", "gone", approveCheck("acme"))

	require.Equal(t, http.StatusOK, w.Code)
	var resp AuthorizeResponse
	decodeBody(t, w, &resp)
	assert.False(t, resp.Decision.Allowed)
	assert.Equal(t, authz.ReasonInactiveUser, resp.Decision.Reason)
}

func TestAuthorize_BadRequests(t *testing.T) {
	ts := newFixtureServer(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing action", map[string]interface{}{"resource": "transactions"}},
		{"unknown resource", map[string]interface{}{"resource": "spaceships", "action": "read"}},
		{"unknown scope", map[string]interface{}{"resource": "transactions", "action": "read", "scope": "GALAXY"}},
		{"unknown field", map[string]interface{}{"resource": "transactions", "action": "read", "as_user": "root"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, ts, "POST", "/authorize", "carol", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
	require.Equal(t, len(tests), ts.Audit.Len(), "rejected requests are audited too")
	entries, err := ts.Ledger.ListByActor(context.Background(), "carol", 0)
	require.NoError(t, err)
	for _, e := range entries {
		assert.Equal(t, audit.CategoryAccessAttempt, e.Category)
		assert.False(t, e.Success)
		assert.Equal(t, "invalid_input", e.Context["failure"])
	}
}

func TestAuthorizeBatch(t *testing.T) {
	ts := newFixtureServer(t)

	w := doRequest(t, ts, "POST", "/authorize/batch", "carol", map[string]interface{}{
		"checks": []interface{}{
			approveCheck("acme"),
			map[string]interface{}{"resource": "transactions", "action": "read", "scope": "COMPANY"},
			map[string]interface{}{"resource": "users", "action": "manage"},
		},
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp BatchAuthorizeResponse
	decodeBody(t, w, &resp)
	require.Len(t, resp.Results, 3)
	assert.True(t, resp.Results["transactions:approve:tx-1"].Allowed)
	assert.True(t, resp.Results["transactions:read:COMPANY"].Allowed)
	assert.False(t, resp.Results["users:manage"].Allowed)
	assert.Equal(t, 3, ts.Audit.Len())

	t.Run("duplicate keys", func(t *testing.T) {
		before := ts.Audit.Len()
		w := doRequest(t, ts, "POST", "/authorize/batch", "carol", map[string]interface{}{
			"checks": []interface{}{approveCheck("acme"), approveCheck("globex")},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		assert.Equal(t, before+1, ts.Audit.Len(), "only the rejection is audited")
	})

	t.Run("empty batch", func(t *testing.T) {
		w := doRequest(t, ts, "POST", "/authorize/batch", "carol", map[string]interface{}{"checks": []interface{}{}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthorize_Throttled(t *testing.T) {
	ts := newFixtureServer(t, server.WithAttempts(attempts.New(1, 1)))

	first := doRequest(t, ts, "POST", "/authorize", "carol", approveCheck("acme"))
	second := doRequest(t, ts, "POST", "/authorize", "carol", approveCheck("acme"))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, 1, ts.Audit.Len())
}

func TestEffectivePermissions(t *testing.T) {
	ts := newFixtureServer(t)

	t.Run("own permissions", func(t *testing.T) {
		w := doRequest(t, ts, "GET", "/users/mallory/permissions", "mallory", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var perms authz.EffectivePermissions
		decodeBody(t, w, &perms)
		assert.Equal(t, "mallory", perms.UserID)
		assert.Len(t, perms.UserPermissions, 1)
		assert.Contains(t, perms.AllPermissionStrings, "transactions:approve:COMPANY")
		assert.NotContains(t, perms.AllPermissionStrings, "transactions:read:COMPANY", "denied by override")
	})

	t.Run("administrator reads a member", func(t *testing.T) {
		w := doRequest(t, ts, "GET", "/users/carol/permissions", "alice", nil)
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("viewer may not read others", func(t *testing.T) {
		w := doRequest(t, ts, "GET", "/users/carol/permissions", "victor", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		w := doRequest(t, ts, "GET", "/users/nobody/permissions", "alice", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAdmin_GrantRevokeExtend(t *testing.T) {
	ts := newFixtureServer(t)

	w := doRequest(t, ts, "POST", "/admin/permissions", "alice", map[string]interface{}{
		"user_id":  "victor",
		"resource": "transactions",
		"action":   "read",
		"scope":    "COMPANY",
		"duration": "24h",
		"reason":   "month end",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var up authz.UserPermission
	decodeBody(t, w, &up)
	assert.True(t, up.IsTemporary)
	assert.Equal(t, "alice", up.GrantedBy)
	require.NotNil(t, up.ExpiresAt)
	assert.Equal(t, fixtureNow.Add(24*time.Hour), up.ExpiresAt.UTC())

	w = doRequest(t, ts, "POST", "/admin/permissions/"+up.ID+"/extend", "alice", map[string]interface{}{"duration": "48h"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeBody(t, w, &up)
	assert.Equal(t, fixtureNow.Add(72*time.Hour), up.ExpiresAt.UTC())

	w = doRequest(t, ts, "DELETE", "/admin/permissions/"+up.ID+"?reason=done", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeBody(t, w, &up)
	assert.False(t, up.IsActive)

	w = doRequest(t, ts, "DELETE", "/admin/permissions/"+up.ID, "alice", nil)
	assert.Equal(t, http.StatusConflict, w.Code, "revocation is final")
}

func TestAdmin_GrantErrors(t *testing.T) {
	ts := newFixtureServer(t)

	tests := []struct {
		name     string
		user     string
		body     map[string]interface{}
		wantCode int
	}{
		{"missing user", "alice", map[string]interface{}{"resource": "reports", "action": "read"}, http.StatusBadRequest},
		{"missing resource", "alice", map[string]interface{}{"user_id": "victor", "action": "read"}, http.StatusBadRequest},
		{"bad duration", "alice", map[string]interface{}{"user_id": "victor", "resource": "reports", "action": "read", "duration": "soon"}, http.StatusBadRequest},
		{"unknown target", "alice", map[string]interface{}{"user_id": "nobody", "resource": "reports", "action": "read"}, http.StatusNotFound},
		{"clerk escalates", "carol", map[string]interface{}{"user_id": "victor", "resource": "reports", "action": "read"}, http.StatusForbidden},
		{"own grants", "alice", map[string]interface{}{"user_id": "alice", "resource": "settings", "action": "manage"}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, ts, "POST", "/admin/permissions", tt.user, tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
		})
	}

	escalation := audit.CategoryPrivilegeEscalation
	entries, err := ts.Ledger.List(t.Context(), audit.Filter{Category: &escalation})
	require.NoError(t, err)
	assert.Len(t, entries, 2, "forbidden mutations are recorded as escalation attempts")
}

func TestAdmin_Roles(t *testing.T) {
	ts := newFixtureServer(t)
	viewer := bundle.RoleID("acme-viewer")
	clerk := bundle.RoleID("acme-clerk")

	t.Run("create and delete", func(t *testing.T) {
		w := doRequest(t, ts, "POST", "/admin/roles", "alice", map[string]interface{}{
			"name":       "acme-intern",
			"type":       "employee",
			"company_id": "acme",
			"parent_id":  viewer,
			"priority":   100,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var role authz.Role
		decodeBody(t, w, &role)
		assert.NotEmpty(t, role.ID)

		w = doRequest(t, ts, "DELETE", "/admin/roles/"+role.ID, "alice", nil)
		assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	})

	t.Run("system role cannot be deleted", func(t *testing.T) {
		w := doRequest(t, ts, "DELETE", "/admin/roles/"+bundle.RoleID("super-admin"), "root", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("assign and remove", func(t *testing.T) {
		w := doRequest(t, ts, "POST", "/admin/roles/"+clerk+"/assign", "alice", map[string]interface{}{"user_id": "victor"})
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
		victor, err := ts.Rules.GetUser(t.Context(), "victor")
		require.NoError(t, err)
		assert.Equal(t, clerk, victor.RoleID)

		w = doRequest(t, ts, "DELETE", "/admin/roles/"+viewer+"/assign/victor", "alice", nil)
		assert.Equal(t, http.StatusConflict, w.Code, "victor no longer holds the viewer role")

		w = doRequest(t, ts, "DELETE", "/admin/roles/"+clerk+"/assign/victor", "alice", nil)
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
		victor, err = ts.Rules.GetUser(t.Context(), "victor")
		require.NoError(t, err)
		assert.Empty(t, victor.RoleID)
	})

	t.Run("parent cycle is rejected", func(t *testing.T) {
		w := doRequest(t, ts, "PUT", "/admin/roles/"+viewer+"/parent", "root", map[string]interface{}{"parent_id": clerk})
		assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	})
}

func TestAdmin_Policies(t *testing.T) {
	ts := newFixtureServer(t)

	policy := map[string]interface{}{
		"name":     "acme-mfa-exports",
		"effect":   "DENY",
		"resource": "reports",
		"action":   "export",
		"priority": 500,
		"conditions": []interface{}{
			map[string]interface{}{"field": "mfa_verified", "operator": "EQUALS", "value": false, "context": "SESSION"},
		},
	}

	w := doRequest(t, ts, "POST", "/admin/policies", "alice", policy)
	assert.Equal(t, http.StatusForbidden, w.Code, "global policies need the system role")

	policy["company_id"] = "acme"
	w = doRequest(t, ts, "POST", "/admin/policies", "alice", policy)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created authz.Policy
	decodeBody(t, w, &created)
	assert.True(t, created.IsActive)
	assert.Equal(t, "alice", created.CreatedBy)

	policy["priority"] = 600
	w = doRequest(t, ts, "PUT", "/admin/policies/"+created.ID, "alice", policy)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(t, ts, "PUT", "/admin/policies/"+created.ID+"/active", "alice", map[string]interface{}{"active": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated authz.Policy
	decodeBody(t, w, &updated)
	assert.False(t, updated.IsActive)
	assert.Equal(t, 600, updated.Priority)

	w = doRequest(t, ts, "PUT", "/admin/policies/"+created.ID+"/active", "alice", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, ts, "DELETE", "/admin/policies/"+created.ID, "alice", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, ts, "DELETE", "/admin/policies/"+created.ID, "alice", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	t.Run("unknown operator", func(t *testing.T) {
		bad := map[string]interface{}{
			"name": "bad", "effect": "ALLOW", "resource": "reports", "action": "export", "company_id": "acme",
			"conditions": []interface{}{map[string]interface{}{"field": "x", "operator": "ROUGHLY", "context": "USER"}},
		}
		w := doRequest(t, ts, "POST", "/admin/policies", "alice", bad)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAnalytics(t *testing.T) {
	ts := newFixtureServer(t)

	doRequest(t, ts, "POST", "/authorize", "carol", approveCheck("acme"))
	doRequest(t, ts, "POST", "/authorize", "carol", approveCheck("globex"))

	t.Run("json", func(t *testing.T) {
		w := doRequest(t, ts, "GET", "/analytics/user/carol?days=7", "root", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var a audit.SecurityAnalytics
		decodeBody(t, w, &a)
		assert.Equal(t, "carol", a.TargetID)
		assert.Equal(t, 7, a.Days)
		assert.Equal(t, 2, a.Total)
		assert.Equal(t, 1, a.Denied)
		assert.Len(t, a.Timeline, 7)
	})

	t.Run("markdown", func(t *testing.T) {
		w := doRequest(t, ts, "GET", "/analytics/user/carol?format=markdown", "root", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), "# Security report: user carol")
	})

	t.Run("html", func(t *testing.T) {
		w := doRequest(t, ts, "GET", "/analytics/company/acme?format=html", "root", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, w.Body.String(), "<table>")
	})

	t.Run("needs audit read", func(t *testing.T) {
		w := doRequest(t, ts, "GET", "/analytics/company/acme", "carol", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("bad input", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, doRequest(t, ts, "GET", "/analytics/team/acme", "root", nil).Code)
		assert.Equal(t, http.StatusBadRequest, doRequest(t, ts, "GET", "/analytics/user/carol?days=zero", "root", nil).Code)
		assert.Equal(t, http.StatusBadRequest, doRequest(t, ts, "GET", "/analytics/user/carol?format=pdf", "root", nil).Code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newFixtureServer(t)

	doRequest(t, ts, "POST", "/authorize", "carol", approveCheck("acme"))
	w := doRequest(t, ts, "GET", "/metrics", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `authz_decisions_total{action="approve",allowed="true",resource="transactions"} 1`)
	assert.Contains(t, body, `http_requests_total{method="POST",route="/authorize",status="200"} 1`)
	assert.Contains(t, body, "authz_audit_pending_entries 0")
}
