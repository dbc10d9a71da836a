package authz_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/fincore-authz/pkg/audit"
	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
)

func check(r authz.Resource, a authz.Action) authz.Check {
	return authz.Check{Resource: r, Action: a}
}

func TestAuthorize_RoleBaseline(t *testing.T) {
	tests := []struct {
		name    string
		actor   string
		check   authz.Check
		allowed bool
		risk    int
		reason  string
	}{
		{"own permission", "mark", check(authz.ResourceTransactions, authz.ActionRead), true, 10, authz.ReasonRolePermission},
		{"inherited permission", "mark", check(authz.ResourceDashboard, authz.ActionRead), true, 10, authz.ReasonRolePermission},
		{"no permission", "cleo", check(authz.ResourceTransactions, authz.ActionRead), false, 0, authz.ReasonNoMatch},
		{"scope mismatch", "mark", authz.Check{Resource: authz.ResourceTransactions, Action: authz.ActionRead, Scope: authz.ScopePersonal.Ptr()}, false, 0, authz.ReasonNoMatch},
		{"personal scope, someone else's", "cleo", authz.Check{Resource: authz.ResourceTransactions, Action: authz.ActionCreate, Target: authz.ResourceSnapshot{OwnerID: "mark"}}, false, 0, authz.ReasonNoMatch},
		{"personal scope, own", "cleo", authz.Check{Resource: authz.ResourceTransactions, Action: authz.ActionCreate, Target: authz.ResourceSnapshot{OwnerID: "cleo"}}, true, 10, authz.ReasonRolePermission},
		{"no role", "nora", check(authz.ResourceDashboard, authz.ActionRead), false, 0, authz.ReasonNoMatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			d, err := f.engine.Authorize(context.Background(), actor(tt.actor, "acme"), tt.check, authz.Environment{})
			require.NoError(t, err)

			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.risk, d.RiskScore)
			assert.Equal(t, tt.reason, d.Reason)
			assert.Equal(t, fixtureNow, d.EvaluatedAt)
			assert.Equal(t, 1, f.audit.Len(), "one entry per decision")
		})
	}
}

func TestAuthorize_ResolvesStoredActor(t *testing.T) {
	f := newFixture(t)

	d, err := f.engine.Authorize(context.Background(), authz.Actor{ID: "mark", CompanyID: "globex", RoleID: "globex-manager"},
		check(authz.ResourceTransactions, authz.ActionRead), authz.Environment{})
	require.NoError(t, err)

	assert.True(t, d.Allowed)
	assert.Equal(t, "acme", f.lastEntry(t).CompanyID)
}

func TestAuthorize_StaleRoleClaim(t *testing.T) {
	ctx := context.Background()

	t.Run("role removed after the session began", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.engine.RemoveRole(ctx, actor("olga", "acme"), "cleo"))

		claimed := authz.Actor{ID: "cleo", CompanyID: "acme", RoleID: "acme-clerk", Roles: []string{"Acme Clerk"}}
		d, err := f.engine.Authorize(ctx, claimed, check(authz.ResourceDashboard, authz.ActionRead), authz.Environment{})
		require.NoError(t, err)

		assert.False(t, d.Allowed)
		assert.Equal(t, 0, d.RiskScore)
		assert.Equal(t, authz.ReasonNoMatch, d.Reason)
	})

	t.Run("roleless user claims a role", func(t *testing.T) {
		f := newFixture(t)
		f.policy(t, approvalPolicy("managers-only", authz.EffectAllow, 100,
			authz.Condition{Operator: authz.OperatorHasRole, Value: authz.String("Acme Manager")}))

		claimed := authz.Actor{ID: "nora", CompanyID: "acme", RoleID: "acme-manager", Roles: []string{"Acme Manager"}}
		d, err := f.engine.Authorize(ctx, claimed, check(authz.ResourceTransactions, authz.ActionApprove), authz.Environment{})
		require.NoError(t, err)

		assert.False(t, d.Allowed)
		assert.Equal(t, 30, d.RiskScore)
		assert.Equal(t, `policy "managers-only" (DENY)`, d.Reason)
	})
}

type fakeInspector struct {
	suspicious bool
	err        error
	delay      time.Duration
}

func (f fakeInspector) IsSuspicious(ctx context.Context, _ string) (bool, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	return f.suspicious, f.err
}

func TestAuthorize_ContextAdjustments(t *testing.T) {
	withIP := authz.Environment{Request: authz.RequestInfo{IPAddress: "198.51.100.7"}}
	flagged := authz.Environment{Location: authz.LocationInfo{Suspicious: true}}
	night := fixtureNow.Add(13 * time.Hour)

	tests := []struct {
		name    string
		opts    []authz.Option
		env     authz.Environment
		at      time.Time
		actor   string
		risk    int
		allowed bool
	}{
		{"business hours", nil, withIP, fixtureNow, "mark", 10, true},
		{"outside business hours", nil, authz.Environment{}, night, "mark", 20, true},
		{"flagged location", nil, flagged, fixtureNow, "mark", 30, true},
		{"inspector flags ip", []authz.Option{authz.WithNetworkInspector(fakeInspector{suspicious: true})}, withIP, fixtureNow, "mark", 30, true},
		{"flagged at night", nil, flagged, night, "mark", 40, true},
		{"inspector error", []authz.Option{authz.WithNetworkInspector(fakeInspector{suspicious: true, err: errors.New("dns")})}, withIP, fixtureNow, "mark", 10, true},
		{"inspector too slow", []authz.Option{
			authz.WithNetworkInspector(fakeInspector{suspicious: true, delay: time.Second}),
			authz.WithLookupTimeout(5 * time.Millisecond),
		}, withIP, fixtureNow, "mark", 10, true},
		{"custom hours", []authz.Option{authz.WithBusinessHours(authz.BusinessHours{Start: 12, End: 18})}, authz.Environment{}, fixtureNow, "mark", 20, true},
		{"nothing matched", nil, flagged, night, "cleo", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.opts...)
			f.clock.Set(tt.at)

			d, err := f.engine.Authorize(context.Background(), actor(tt.actor, "acme"), check(authz.ResourceTransactions, authz.ActionRead), tt.env)
			require.NoError(t, err)

			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.risk, d.RiskScore)
		})
	}
}

func TestAuthorize_Overrides(t *testing.T) {
	txRead := func(id string, effect authz.Effect) authz.UserPermission {
		return authz.UserPermission{ID: id, Resource: authz.ResourceTransactions, Action: authz.ActionRead, Scope: authz.ScopeCompany, Effect: effect, IsActive: true}
	}
	temporary := func(up authz.UserPermission, d time.Duration) authz.UserPermission {
		up.ExpiresAt = expiresIn(d)
		up.IsTemporary = true
		return up
	}
	pinned := func(up authz.UserPermission, resourceID string) authz.UserPermission {
		up.ResourceID = resourceID
		return up
	}
	user := func(up authz.UserPermission, userID string) authz.UserPermission {
		up.UserID = userID
		return up
	}

	tests := []struct {
		name      string
		overrides []authz.UserPermission
		actor     string
		check     authz.Check
		allowed   bool
		risk      int
		reason    string
	}{
		{"deny beats role", []authz.UserPermission{user(txRead("up-1", authz.EffectDeny), "mark")}, "mark",
			check(authz.ResourceTransactions, authz.ActionRead), false, 35, authz.ReasonUserOverride},
		{"temporary grant", []authz.UserPermission{user(temporary(txRead("up-1", authz.EffectAllow), time.Hour), "cleo")}, "cleo",
			check(authz.ResourceTransactions, authz.ActionRead), true, 20, authz.ReasonUserPermission},
		{"expired grant", []authz.UserPermission{user(temporary(txRead("up-1", authz.EffectAllow), -time.Hour), "cleo")}, "cleo",
			check(authz.ResourceTransactions, authz.ActionRead), false, 0, authz.ReasonNoMatch},
		{"permanent grant", []authz.UserPermission{user(txRead("up-1", authz.EffectAllow), "cleo")}, "cleo",
			check(authz.ResourceTransactions, authz.ActionRead), true, 15, authz.ReasonUserPermission},
		{"deny beats grant", []authz.UserPermission{
			user(txRead("up-1", authz.EffectAllow), "cleo"),
			user(txRead("up-2", authz.EffectDeny), "cleo"),
		}, "cleo", check(authz.ResourceTransactions, authz.ActionRead), false, 40, authz.ReasonUserOverride},
		{"grant after deny", []authz.UserPermission{
			user(txRead("up-1", authz.EffectDeny), "cleo"),
			user(txRead("up-2", authz.EffectAllow), "cleo"),
		}, "cleo", check(authz.ResourceTransactions, authz.ActionRead), false, 40, authz.ReasonUserOverride},
		{"pinned elsewhere", []authz.UserPermission{user(pinned(txRead("up-1", authz.EffectAllow), "tx-1"), "cleo")}, "cleo",
			authz.Check{Resource: authz.ResourceTransactions, Action: authz.ActionRead, ResourceID: "tx-2"}, false, 0, authz.ReasonNoMatch},
		{"pinned here", []authz.UserPermission{user(pinned(txRead("up-1", authz.EffectAllow), "tx-1"), "cleo")}, "cleo",
			authz.Check{Resource: authz.ResourceTransactions, Action: authz.ActionRead, Target: authz.ResourceSnapshot{ID: "tx-1"}}, true, 15, authz.ReasonUserPermission},
		{"other user's grant", []authz.UserPermission{user(txRead("up-1", authz.EffectAllow), "nora")}, "cleo",
			check(authz.ResourceTransactions, authz.ActionRead), false, 0, authz.ReasonNoMatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			for _, up := range tt.overrides {
				f.override(t, up)
			}

			d, err := f.engine.Authorize(context.Background(), actor(tt.actor, "acme"), tt.check, authz.Environment{})
			require.NoError(t, err)

			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.risk, d.RiskScore)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

var requireMFA = authz.Condition{
	Field:       "mfa_verified",
	Operator:    authz.OperatorEquals,
	Value:       authz.Bool(true),
	ContextType: authz.ContextTypeSession,
}

func approvalPolicy(name string, effect authz.Effect, priority int, conds ...authz.Condition) authz.Policy {
	return authz.Policy{
		Name:       name,
		Effect:     effect,
		Resource:   authz.ResourceTransactions,
		Action:     authz.ActionApprove,
		CompanyID:  "acme",
		Priority:   priority,
		IsActive:   true,
		Conditions: conds,
	}
}

func TestAuthorize_Policies(t *testing.T) {
	mfa := authz.Environment{Session: authz.SessionInfo{MFAVerified: true}}
	expired := approvalPolicy("expired-block", authz.EffectDeny, 500)
	expired.ValidUntil = expiresIn(-time.Minute)
	inactive := approvalPolicy("inactive-block", authz.EffectDeny, 500)
	inactive.IsActive = false
	foreign := approvalPolicy("globex-block", authz.EffectDeny, 500)
	foreign.CompanyID = "globex"
	forCleo := approvalPolicy("cleo-approves", authz.EffectAllow, 100)
	forCleo.UserID = "cleo"
	managersOnly := approvalPolicy("managers-only", authz.EffectAllow, 100, authz.Condition{Operator: authz.OperatorHasRole, Value: authz.String("Acme Manager")})

	tests := []struct {
		name     string
		policies []authz.Policy
		actor    string
		env      authz.Environment
		allowed  bool
		risk     int
		reason   string
	}{
		{"conditions met", []authz.Policy{approvalPolicy("approve-with-mfa", authz.EffectAllow, 100, requireMFA)}, "mark", mfa,
			true, 15, `policy "approve-with-mfa" (ALLOW)`},
		{"conditions failed", []authz.Policy{approvalPolicy("approve-with-mfa", authz.EffectAllow, 100, requireMFA)}, "mark", authz.Environment{},
			false, 40, `policy "approve-with-mfa" (DENY)`},
		{"highest priority last", []authz.Policy{
			approvalPolicy("allow-with-mfa", authz.EffectAllow, 100, requireMFA),
			approvalPolicy("block-approvals", authz.EffectDeny, 10),
		}, "mark", mfa, true, 45, `policy "allow-with-mfa" (ALLOW)`},
		{"deny on top", []authz.Policy{
			approvalPolicy("allow-all", authz.EffectAllow, 10),
			approvalPolicy("freeze", authz.EffectDeny, 900),
		}, "mark", mfa, false, 45, `policy "freeze" (DENY)`},
		{"out of force", []authz.Policy{expired, inactive, foreign}, "mark", authz.Environment{}, true, 10, authz.ReasonRolePermission},
		{"policy alone grants", []authz.Policy{forCleo}, "cleo", authz.Environment{}, true, 5, `policy "cleo-approves" (ALLOW)`},
		{"role name condition", []authz.Policy{managersOnly}, "mark", authz.Environment{}, true, 15, `policy "managers-only" (ALLOW)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			for _, p := range tt.policies {
				f.policy(t, p)
			}

			d, err := f.engine.Authorize(context.Background(), actor(tt.actor, "acme"), check(authz.ResourceTransactions, authz.ActionApprove), tt.env)
			require.NoError(t, err)

			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.risk, d.RiskScore)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestAuthorize_ClerkApprovesForeignTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	approve := authz.Permission{ID: "tx-approve", Resource: authz.ResourceTransactions, Action: authz.ActionApprove, Scope: authz.ScopeCompany, IsActive: true}
	require.NoError(t, f.rules.UpsertRole(ctx, authz.Role{
		ID: "acme-approver", Name: "Clerk", Type: authz.RoleTypeClerk, CompanyID: "acme", Priority: 600, IsActive: true,
		Permissions: []authz.Permission{approve},
	}))
	require.NoError(t, f.rules.UpsertUser(ctx, authz.User{ID: "cleo", CompanyID: "acme", RoleID: "acme-approver", IsActive: true}))
	f.policy(t, approvalPolicy("transactions-same-company", authz.EffectAllow, 100,
		authz.Condition{Operator: authz.OperatorSameCompany, ContextType: authz.ContextTypeResource}))

	foreign := authz.Check{
		Resource:   authz.ResourceTransactions,
		Action:     authz.ActionApprove,
		ResourceID: "tx-9",
		Target:     authz.ResourceSnapshot{ID: "tx-9", OwnerID: "gina", CompanyID: "globex"},
	}
	d, err := f.engine.Authorize(ctx, actor("cleo", "acme"), foreign, authz.Environment{})
	require.NoError(t, err)

	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "transactions-same-company")
	assert.GreaterOrEqual(t, d.RiskScore, 30)

	own := foreign
	own.Target.CompanyID = "acme"
	d, err = f.engine.Authorize(ctx, actor("cleo", "acme"), own, authz.Environment{})
	require.NoError(t, err)

	assert.True(t, d.Allowed)
	assert.Equal(t, 2, f.audit.Len())
}

func TestAuthorize_Trace(t *testing.T) {
	f := newFixture(t)
	f.override(t, authz.UserPermission{ID: "up-1", UserID: "mark", Resource: authz.ResourceTransactions, Action: authz.ActionApprove,
		Scope: authz.ScopeCompany, Effect: authz.EffectAllow, IsActive: true, ExpiresAt: expiresIn(time.Hour), IsTemporary: true})
	f.policy(t, approvalPolicy("allow-with-mfa", authz.EffectAllow, 100, requireMFA))

	d, err := f.engine.Authorize(context.Background(), actor("mark", "acme"), check(authz.ResourceTransactions, authz.ActionApprove),
		authz.Environment{Location: authz.LocationInfo{Suspicious: true}})
	require.NoError(t, err)

	require.Len(t, d.Trace, 4)
	assert.Equal(t, authz.TraceStep{Stage: authz.StageRole, Rule: "permission transactions:approve:COMPANY", Effect: authz.EffectAllow, Risk: 10}, d.Trace[0])
	assert.Equal(t, authz.StageOverride, d.Trace[1].Stage)
	assert.Equal(t, 20, d.Trace[1].Risk)
	assert.Equal(t, authz.TraceStep{Stage: authz.StagePolicy, Rule: "policy allow-with-mfa", Effect: authz.EffectDeny, Risk: 30}, d.Trace[2])
	assert.Equal(t, authz.TraceStep{Stage: authz.StageContext, Rule: "suspicious network", Effect: authz.EffectDeny, Risk: 20}, d.Trace[3])
	assert.False(t, d.Allowed)
	assert.Equal(t, 80, d.RiskScore)
}

func TestAuthorize_RiskCap(t *testing.T) {
	f := newFixture(t, authz.WithRiskCap(25))
	f.override(t, authz.UserPermission{ID: "up-1", UserID: "mark", Resource: authz.ResourceTransactions, Action: authz.ActionRead,
		Scope: authz.ScopeCompany, Effect: authz.EffectDeny, IsActive: true})

	d, err := f.engine.Authorize(context.Background(), actor("mark", "acme"), check(authz.ResourceTransactions, authz.ActionRead), authz.Environment{})
	require.NoError(t, err)

	assert.Equal(t, 25, d.RiskScore)
	assert.Equal(t, 25, f.lastEntry(t).RiskScore)
}

func TestAuthorize_MalformedPolicyFailsClosed(t *testing.T) {
	f := newFixture(t)
	f.policy(t, approvalPolicy("broken", authz.EffectAllow, 100, authz.Condition{
		Field: "status", Operator: authz.OperatorIn, Value: authz.String("pending"), ContextType: authz.ContextTypeResource,
	}))

	d, err := f.engine.Authorize(context.Background(), actor("mark", "acme"), check(authz.ResourceTransactions, authz.ActionApprove), authz.Environment{})

	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, "invalid_state", d.Failure)
	assert.Contains(t, d.Reason, "evaluation failed: ")

	e := f.lastEntry(t)
	assert.False(t, e.Success)
	assert.Equal(t, audit.SeverityWarning, e.Level)
	assert.Equal(t, "invalid_state", e.Context["failure"])
}

func TestAuthorize_UnknownUser(t *testing.T) {
	f := newFixture(t)

	d, err := f.engine.Authorize(context.Background(), actor("ghost", "acme"), check(authz.ResourceTransactions, authz.ActionRead), authz.Environment{})

	assert.ErrorIs(t, err, authz.ErrNotFound)
	assert.False(t, d.Allowed)
	assert.Equal(t, "not_found", d.Failure)
	require.Equal(t, 1, f.audit.Len())
	assert.Equal(t, "ghost", f.lastEntry(t).ActorID)
}

func TestAuthorize_InactiveUser(t *testing.T) {
	f := newFixture(t)

	d, err := f.engine.Authorize(context.Background(), actor("idle", "acme"), check(authz.ResourceDashboard, authz.ActionRead), authz.Environment{})
	require.NoError(t, err)

	assert.False(t, d.Allowed)
	assert.Equal(t, authz.ReasonInactiveUser, d.Reason)
	assert.Equal(t, authz.ReasonInactiveUser, f.lastEntry(t).Description)
}

func TestAuthorize_AuditEntry(t *testing.T) {
	f := newFixture(t)
	env := authz.Environment{Request: authz.RequestInfo{IPAddress: "203.0.113.10"}, Session: authz.SessionInfo{ID: "sess-1"}}

	d, err := f.engine.Authorize(context.Background(), actor("mark", "acme"),
		authz.Check{Resource: authz.ResourceTransactions, Action: authz.ActionRead, Scope: authz.ScopeCompany.Ptr(), ResourceID: "tx-1"}, env)
	require.NoError(t, err)

	e := f.lastEntry(t)
	assert.Equal(t, d.AuditID, e.ID)
	assert.Equal(t, audit.CategoryAccessAttempt, e.Category)
	assert.Equal(t, "mark", e.ActorID)
	assert.Equal(t, "transactions", e.Resource)
	assert.Equal(t, "read", e.Action)
	assert.Equal(t, "ALLOW", e.Effect)
	assert.Equal(t, "tx-1", e.ResourceID)
	assert.Equal(t, 10, e.RiskScore)
	assert.True(t, e.Success)
	assert.Equal(t, audit.SeverityInfo, e.Level)
	assert.Equal(t, "COMPANY", e.Context["scope"])
	assert.Equal(t, "203.0.113.10", e.Context["ip_address"])
	assert.Equal(t, "sess-1", e.Context["session_id"])
}

func TestAuthorize_AuditFailureKeepsDecision(t *testing.T) {
	f := newFixture(t)
	f.audit.FailWith(errors.New("audit db down"))

	d, err := f.engine.Authorize(context.Background(), actor("mark", "acme"), check(authz.ResourceTransactions, authz.ActionRead), authz.Environment{})
	require.NoError(t, err)

	assert.True(t, d.Allowed)
	assert.True(t, d.AuditFailed)
	assert.Empty(t, d.AuditID)
	assert.Equal(t, 1, f.ledger.Pending())
}

func TestAuthorize_CancelledCallerStillAudited(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.engine.Authorize(ctx, actor("mark", "acme"), check(authz.ResourceTransactions, authz.ActionRead), authz.Environment{})
	require.NoError(t, err)

	assert.Equal(t, 1, f.audit.Len())
}

func TestAuthorizeBatch(t *testing.T) {
	f := newFixture(t)
	checks := []authz.Check{
		check(authz.ResourceTransactions, authz.ActionRead),
		{Resource: authz.ResourceTransactions, Action: authz.ActionApprove, ResourceID: "tx-1"},
		check(authz.ResourceSettings, authz.ActionUpdate),
	}

	results, err := f.engine.AuthorizeBatch(context.Background(), actor("mark", "acme"), checks, authz.Environment{})
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.True(t, results["transactions:read"].Allowed)
	assert.True(t, results["transactions:approve:tx-1"].Allowed)
	assert.False(t, results["settings:update"].Allowed)
	assert.Equal(t, 3, f.audit.Len())
}

func TestAuthorizeBatch_DuplicateKeys(t *testing.T) {
	f := newFixture(t)
	own := authz.Check{Resource: authz.ResourceTransactions, Action: authz.ActionApprove, ResourceID: "tx-1", Target: authz.ResourceSnapshot{CompanyID: "acme"}}
	foreign := own
	foreign.Target.CompanyID = "globex"

	results, err := f.engine.AuthorizeBatch(context.Background(), actor("mark", "acme"), []authz.Check{own, foreign}, authz.Environment{})

	assert.ErrorIs(t, err, authz.ErrInvalidInput)
	assert.Nil(t, results)
	require.Equal(t, 1, f.audit.Len(), "only the rejection is audited")
	e := f.lastEntry(t)
	assert.False(t, e.Success)
	assert.Equal(t, "invalid_input", e.Context["failure"])
}

func TestAuthorizeBatch_ReturnsFirstError(t *testing.T) {
	f := newFixture(t)

	results, err := f.engine.AuthorizeBatch(context.Background(), actor("ghost", "acme"), []authz.Check{
		check(authz.ResourceTransactions, authz.ActionRead),
		check(authz.ResourceDashboard, authz.ActionRead),
	}, authz.Environment{})

	assert.ErrorIs(t, err, authz.ErrNotFound)
	assert.Len(t, results, 2)
}

type recorder struct {
	mu        sync.Mutex
	attempts  map[string][]bool
	decisions []authz.Decision
}

func (r *recorder) RecordDecision(actorID string, allowed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.attempts == nil {
		r.attempts = map[string][]bool{}
	}
	r.attempts[actorID] = append(r.attempts[actorID], allowed)
}

func (r *recorder) ObserveDecision(d authz.Decision) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions = append(r.decisions, d)
}

func TestAuthorize_NotifiesCollaborators(t *testing.T) {
	rec := &recorder{}
	f := newFixture(t, authz.WithAttemptRecorder(rec), authz.WithObserver(rec))

	_, err := f.engine.Authorize(context.Background(), actor("cleo", "acme"), check(authz.ResourceTransactions, authz.ActionRead), authz.Environment{})
	require.NoError(t, err)
	_, err = f.engine.Authorize(context.Background(), actor("cleo", "acme"), check(authz.ResourceDashboard, authz.ActionRead), authz.Environment{})
	require.NoError(t, err)

	assert.Equal(t, []bool{false, true}, rec.attempts["cleo"])
	require.Len(t, rec.decisions, 2)
	assert.Equal(t, "dashboard:read", rec.decisions[1].Check)
}
