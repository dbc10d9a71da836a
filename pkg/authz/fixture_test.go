package authz_test

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/fincore-authz/pkg/audit"
	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
	"github.com/doodlesbykumbi/fincore-authz/pkg/server/store/memory"
)

var fixtureNow = time.Date(2026, 6, 2, 10, 0, 0, 0, time.UTC)

// fixture is an engine over a small two company rule set:
//
//	root  super-admin (system)
//	olga  acme-owner
//	mark  acme-manager -> acme-clerk
//	cleo  acme-clerk
//	nora  acme, no role
//	idle  acme-clerk, inactive
//	gina  globex-manager
type fixture struct {
	engine *authz.Engine
	rules  *memory.Store
	audit  *audit.MemoryStore
	ledger *audit.Ledger
	clock  *authz.FixedClock
}

func newFixture(t *testing.T, opts ...authz.Option) *fixture {
	t.Helper()
	ctx := context.Background()
	rules := memory.New()

	p := func(id string, r authz.Resource, a authz.Action, s authz.Scope) authz.Permission {
		return authz.Permission{ID: id, Resource: r, Action: a, Scope: s, IsActive: true}
	}
	perms := []authz.Permission{
		p("tx-read", authz.ResourceTransactions, authz.ActionRead, authz.ScopeCompany),
		p("tx-approve", authz.ResourceTransactions, authz.ActionApprove, authz.ScopeCompany),
		p("tx-create", authz.ResourceTransactions, authz.ActionCreate, authz.ScopePersonal),
		p("dash-read", authz.ResourceDashboard, authz.ActionRead, authz.ScopeCompany),
		p("rep-export", authz.ResourceReports, authz.ActionExport, authz.ScopeCompany),
	}
	for _, perm := range perms {
		require.NoError(t, rules.UpsertPermission(ctx, perm))
	}
	byID := func(ids ...string) []authz.Permission {
		var out []authz.Permission
		for _, id := range ids {
			for _, perm := range perms {
				if perm.ID == id {
					out = append(out, perm)
				}
			}
		}
		return out
	}

	roles := []authz.Role{
		{ID: "super-admin", Name: "Super Admin", Type: authz.RoleTypeSuperAdmin, IsSystem: true, IsActive: true},
		{ID: "acme-owner", Name: "Acme Owner", Type: authz.RoleTypeCompanyOwner, CompanyID: "acme", IsActive: true},
		{ID: "acme-clerk", Name: "Acme Clerk", Type: authz.RoleTypeClerk, CompanyID: "acme", IsActive: true,
			Permissions: byID("tx-create", "dash-read")},
		{ID: "acme-manager", Name: "Acme Manager", Type: authz.RoleTypeManager, CompanyID: "acme", ParentID: "acme-clerk", IsActive: true,
			Permissions: byID("tx-read", "tx-approve")},
		{ID: "acme-legacy", Name: "Acme Legacy", Type: authz.RoleTypeViewer, CompanyID: "acme"},
		{ID: "globex-manager", Name: "Globex Manager", Type: authz.RoleTypeManager, CompanyID: "globex", IsActive: true},
	}
	for _, r := range roles {
		require.NoError(t, rules.UpsertRole(ctx, r))
	}

	users := []authz.User{
		{ID: "root", RoleID: "super-admin", IsActive: true},
		{ID: "olga", CompanyID: "acme", RoleID: "acme-owner", IsActive: true},
		{ID: "mark", CompanyID: "acme", RoleID: "acme-manager", IsActive: true},
		{ID: "cleo", CompanyID: "acme", RoleID: "acme-clerk", IsActive: true},
		{ID: "nora", CompanyID: "acme", IsActive: true},
		{ID: "idle", CompanyID: "acme", RoleID: "acme-clerk"},
		{ID: "gina", CompanyID: "globex", RoleID: "globex-manager", IsActive: true},
	}
	for _, u := range users {
		require.NoError(t, rules.UpsertUser(ctx, u))
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	clock := authz.NewFixedClock(fixtureNow)
	auditStore := audit.NewMemoryStore()
	ledger := audit.NewLedger(auditStore, audit.WithClock(clock.Now), audit.WithLogger(log))

	var seq atomic.Int32
	opts = append([]authz.Option{
		authz.WithClock(clock),
		authz.WithLogger(log),
		authz.WithIDGenerator(func() string { return fmt.Sprintf("id-%d", seq.Add(1)) }),
	}, opts...)

	return &fixture{
		engine: authz.NewEngine(rules, ledger, opts...),
		rules:  rules,
		audit:  auditStore,
		ledger: ledger,
		clock:  clock,
	}
}

func actor(id, company string) authz.Actor {
	return authz.Actor{ID: id, CompanyID: company}
}

func (f *fixture) entries(t *testing.T, filter audit.Filter) []audit.Entry {
	t.Helper()
	entries, err := f.audit.List(context.Background(), filter)
	require.NoError(t, err)
	return entries
}

// lastEntry returns the most recently recorded ledger entry.
func (f *fixture) lastEntry(t *testing.T) audit.Entry {
	t.Helper()
	entries := f.entries(t, audit.Filter{Limit: 1})
	require.Len(t, entries, 1)
	return entries[0]
}

func (f *fixture) override(t *testing.T, up authz.UserPermission) {
	t.Helper()
	if up.CreatedAt.IsZero() {
		up.CreatedAt = fixtureNow
	}
	require.NoError(t, f.rules.CreateUserPermission(context.Background(), up))
}

func (f *fixture) policy(t *testing.T, p authz.Policy) {
	t.Helper()
	if p.ID == "" {
		p.ID = "pol-" + p.Name
	}
	require.NoError(t, f.rules.UpsertPolicy(context.Background(), p))
}

func expiresIn(d time.Duration) *time.Time {
	t := fixtureNow.Add(d)
	return &t
}
