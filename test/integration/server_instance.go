package integration

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/doodlesbykumbi/fincore-authz/pkg/audit"
	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
	"github.com/doodlesbykumbi/fincore-authz/pkg/bundle"
	"github.com/doodlesbykumbi/fincore-authz/pkg/config"
	"github.com/doodlesbykumbi/fincore-authz/pkg/server"
	"github.com/doodlesbykumbi/fincore-authz/pkg/server/endpoints"
	"github.com/doodlesbykumbi/fincore-authz/pkg/server/store"
)

// identitySecret signs the session tokens of scenario servers.
const identitySecret = "integration-identity-secret"

// scenarioNow is a Tuesday inside business hours.
var scenarioNow = time.Date(2026, 6, 2, 10, 0, 0, 0, time.UTC)

// ServerInstance is an in-process authorization server for one scenario.
type ServerInstance struct {
	Server    *server.Server
	ServerURL string
	Rules     store.Store
	Audit     audit.Store
	Ledger    *audit.Ledger
	Clock     *authz.FixedClock
	http      *httptest.Server
}

// StartServer wires a server over fresh stores and serves it on a local
// port.
func StartServer(ctx context.Context, tc *TestContext) (*ServerInstance, error) {
	rules, auditStore, err := tc.Stores(ctx)
	if err != nil {
		return nil, err
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	clock := authz.NewFixedClock(scenarioNow)
	ledger := audit.NewLedger(auditStore, audit.WithClock(clock.Now), audit.WithLogger(log))
	engine := authz.NewEngine(rules, ledger, authz.WithClock(clock), authz.WithLogger(log))

	cfg := config.Default()
	cfg.IdentityJWTSecret = identitySecret
	s := server.NewServer(cfg, engine, rules, ledger, "127.0.0.1", "0",
		server.WithLogger(log),
		server.WithAccessLog(io.Discard),
	)
	endpoints.RegisterAll(s)

	ts := httptest.NewServer(s.Handler())
	instance := &ServerInstance{
		Server:    s,
		ServerURL: ts.URL,
		Rules:     rules,
		Audit:     auditStore,
		Ledger:    ledger,
		Clock:     clock,
		http:      ts,
	}
	if err := waitForServer(tc, instance.ServerURL, 5*time.Second); err != nil {
		instance.Stop()
		return nil, fmt.Errorf("server failed to become ready: %w", err)
	}
	return instance, nil
}

// LoadBundle loads a YAML rule bundle into the instance's rule store.
func (si *ServerInstance) LoadBundle(ctx context.Context, doc string) (*bundle.Result, error) {
	loader := bundle.NewLoader(si.Rules).WithClock(si.Clock.Now)
	return loader.LoadFromReader(ctx, strings.NewReader(doc))
}

// Stop shuts down the server instance
func (si *ServerInstance) Stop() {
	if si.http != nil {
		si.http.Close()
	}
}

// waitForServer polls the status endpoint until it responds or times out
func waitForServer(tc *TestContext, serverURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := tc.HTTPClient.Get(serverURL + "/")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == 200 {
				return nil
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("server did not become ready within %v", timeout)
}
