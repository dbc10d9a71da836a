package report

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/fincore-authz/pkg/audit"
)

var buildNow = time.Date(2026, 6, 2, 10, 0, 0, 0, time.UTC)

// ledgerSource answers analytics straight from the ledger.
type ledgerSource struct{ ledger *audit.Ledger }

func (s ledgerSource) GetSecurityAnalytics(ctx context.Context, id string, t audit.TargetType, days int) (audit.SecurityAnalytics, error) {
	return s.ledger.Analytics(ctx, id, t, days)
}

type failingSource struct{ err error }

func (s failingSource) GetSecurityAnalytics(context.Context, string, audit.TargetType, int) (audit.SecurityAnalytics, error) {
	return audit.SecurityAnalytics{}, s.err
}

func seedLedger(t *testing.T, opts ...audit.LedgerOption) (*audit.Ledger, *audit.MemoryStore) {
	t.Helper()
	store := audit.NewMemoryStore()
	opts = append([]audit.LedgerOption{audit.WithClock(func() time.Time { return buildNow })}, opts...)
	ledger := audit.NewLedger(store, opts...)
	ctx := context.Background()

	access := audit.Entry{
		Category:  audit.CategoryAccessAttempt,
		ActorID:   "carol",
		CompanyID: "acme",
		Resource:  "transactions",
		Action:    "approve",
		Success:   true,
		RiskScore: 15,
	}
	earlier := audit.NewAdminEntry(audit.CategoryPrivilegeEscalation, "carol", false)
	earlier.CompanyID = "acme"
	earlier.Description = "grant reports:read"
	earlier.CreatedAt = buildNow.Add(-time.Hour)
	latest := audit.NewAdminEntry(audit.CategoryPrivilegeEscalation, "carol", false)
	latest.CompanyID = "acme"
	latest.Description = "assign acme-admin"
	other := audit.NewAdminEntry(audit.CategoryPolicyCreated, "alice", true)
	other.CompanyID = "globex"

	for _, e := range []audit.Entry{access, earlier, latest, other} {
		_, err := ledger.Record(ctx, e)
		require.NoError(t, err)
	}
	return ledger, store
}

func testSealer(t *testing.T) *audit.Sealer {
	t.Helper()
	s, err := audit.NewSealer(bytes.Repeat([]byte{7}, audit.KeySize))
	require.NoError(t, err)
	return s
}

func TestBuild_User(t *testing.T) {
	ledger, _ := seedLedger(t, audit.WithSealer(testSealer(t)))

	r, err := Build(context.Background(), ledgerSource{ledger}, ledger, "carol", audit.TargetUser, 7, 0)
	require.NoError(t, err)

	require.NotNil(t, r.Analytics)
	assert.Equal(t, 3, r.Analytics.Total)
	assert.Equal(t, 3, r.Verified)
	assert.Equal(t, 0, r.Tampered)
	require.Len(t, r.HighRisk, 2)
	assert.Equal(t, "assign acme-admin", r.HighRisk[0].Description, "newest first")
}

func TestBuild_Limit(t *testing.T) {
	ledger, _ := seedLedger(t)

	r, err := Build(context.Background(), ledgerSource{ledger}, ledger, "carol", audit.TargetUser, 7, 1)
	require.NoError(t, err)

	require.Len(t, r.HighRisk, 1)
	assert.Equal(t, "assign acme-admin", r.HighRisk[0].Description)
}

func TestBuild_Company(t *testing.T) {
	ledger, _ := seedLedger(t)

	r, err := Build(context.Background(), ledgerSource{ledger}, ledger, "globex", audit.TargetCompany, 7, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, r.Analytics.Total)
	assert.Empty(t, r.HighRisk)
}

func TestBuild_DetectsTampering(t *testing.T) {
	ledger, store := seedLedger(t, audit.WithSealer(testSealer(t)))

	entries, err := ledger.ListByActor(context.Background(), "carol", 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	forged := entries[0]
	forged.ID = "forged"
	forged.Success = true
	require.NoError(t, store.Insert(context.Background(), forged))

	r, err := Build(context.Background(), ledgerSource{ledger}, ledger, "carol", audit.TargetUser, 7, 0)
	require.NoError(t, err)

	assert.Equal(t, 3, r.Verified)
	assert.Equal(t, 1, r.Tampered)
	assert.Contains(t, r.Markdown(), "| Seals broken | 1 |")
}

func TestBuild_WithoutSealer(t *testing.T) {
	ledger, _ := seedLedger(t)

	r, err := Build(context.Background(), ledgerSource{ledger}, ledger, "carol", audit.TargetUser, 7, 0)
	require.NoError(t, err)

	assert.Zero(t, r.Verified)
	assert.Zero(t, r.Tampered)
	assert.NotContains(t, r.Markdown(), "Seals verified")
}

func TestBuild_SourceError(t *testing.T) {
	ledger, _ := seedLedger(t)
	boom := errors.New("unknown user")

	_, err := Build(context.Background(), failingSource{boom}, ledger, "ghost", audit.TargetUser, 7, 0)

	assert.ErrorIs(t, err, boom)
}
