package endpoints

import (
	"context"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/doodlesbykumbi/fincore-authz/pkg/audit"
	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
	"github.com/doodlesbykumbi/fincore-authz/pkg/bundle"
	"github.com/doodlesbykumbi/fincore-authz/pkg/config"
	"github.com/doodlesbykumbi/fincore-authz/pkg/identity"
	"github.com/doodlesbykumbi/fincore-authz/pkg/metrics"
	"github.com/doodlesbykumbi/fincore-authz/pkg/server"
	"github.com/doodlesbykumbi/fincore-authz/pkg/server/store/memory"
)

// TestIdentitySecret signs the session tokens of test servers.
const TestIdentitySecret = "test-identity-secret"

// TestServer is a server wired to in-memory rule and audit stores and a
// fixed clock.
type TestServer struct {
	*server.Server
	Rules    *memory.Store
	Audit    *audit.MemoryStore
	Clock    *authz.FixedClock
	Registry *prometheus.Registry
}

// NewTestServer creates a server instance for testing. bundlePath, when
// set, is loaded into the rule store first.
func NewTestServer(bundlePath string, now time.Time, opts ...server.Option) (*TestServer, error) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	rules := memory.New()
	if bundlePath != "" {
		loader := bundle.NewLoader(rules).WithLogger(log).WithClock(func() time.Time { return now })
		if _, err := loader.LoadFile(context.Background(), bundlePath); err != nil {
			return nil, err
		}
	}

	clock := authz.NewFixedClock(now)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	auditStore := audit.NewMemoryStore()
	ledger := audit.NewLedger(auditStore,
		audit.WithClock(clock.Now),
		audit.WithLogger(log),
		audit.WithFailureHook(m.AuditWriteFailed),
	)
	m.TrackPending(ledger.Pending)
	engine := authz.NewEngine(rules, ledger,
		authz.WithClock(clock),
		authz.WithLogger(log),
		authz.WithObserver(m),
	)

	cfg := config.Default()
	cfg.IdentityJWTSecret = TestIdentitySecret
	opts = append([]server.Option{
		server.WithMetrics(m),
		server.WithLogger(log),
		server.WithAccessLog(io.Discard),
	}, opts...)
	s := server.NewServer(cfg, engine, rules, ledger, "127.0.0.1", "0", opts...)
	RegisterAll(s)

	return &TestServer{Server: s, Rules: rules, Audit: auditStore, Clock: clock, Registry: reg}, nil
}

// Token signs a session token for a stored user, valid for an hour of
// wall clock time.
func (t *TestServer) Token(userID string) (string, error) {
	u, err := t.Rules.GetUser(context.Background(), userID)
	if err != nil {
		return "", err
	}
	now := time.Now()
	claims := identity.Claims{
		Email:     u.Email,
		CompanyID: u.CompanyID,
		RoleID:    u.RoleID,
		SessionID: "sess-" + u.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(TestIdentitySecret))
}
