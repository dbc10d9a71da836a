package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/fincore-authz/pkg/audit"
	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
	"github.com/doodlesbykumbi/fincore-authz/pkg/bundle"
	"github.com/doodlesbykumbi/fincore-authz/pkg/config"
	"github.com/doodlesbykumbi/fincore-authz/pkg/reputation"
	"github.com/doodlesbykumbi/fincore-authz/pkg/server/store/memory"
)

// checkOptions is one offline question.
type checkOptions struct {
	Bundle        string
	UserID        string
	Resource      string
	Action        string
	Scope         string
	ResourceID    string
	OwnerID       string
	TargetCompany string
	IP            string
	Country       string
	MFA           bool
	At            time.Time
}

// checkOutput is what check prints.
type checkOutput struct {
	Decision authz.Decision `json:"decision"`
	Audit    []audit.Entry  `json:"audit"`
	Error    string         `json:"error,omitempty"`
}

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Decide a check offline against a rule bundle",
	Long: `Decide a single check against a rule bundle without a database.

The bundle is loaded into memory, the check is decided and the decision is
printed together with the audit entry it produced. Useful to test a bundle
before loading it.

Example:
  authzctl check --bundle rules.yml --user carol --resource transactions --action approve --target-company acme
  authzctl check --bundle rules.yml --user victor --resource reports --action export --scope COMPANY --at 2026-06-02T23:00:00Z`,
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := checkOptionsFromFlags(cmd)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		out, err := runCheck(context.Background(), config.Get(), opts)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Check failed:", err)
			os.Exit(1)
		}
		if err := printJSON(os.Stdout, out); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if exitCode, _ := cmd.Flags().GetBool("exit-code"); exitCode && !out.Decision.Allowed {
			os.Exit(2)
		}
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)

	f := checkCmd.Flags()
	f.String("bundle", "", "rule bundle to decide against")
	f.String("user", "", "acting user id")
	f.String("resource", "", "resource, e.g. transactions")
	f.String("action", "", "action, e.g. approve")
	f.String("scope", "", "optional scope (GLOBAL, COMPANY, PERSONAL, ASSIGNED)")
	f.String("resource-id", "", "optional resource instance id")
	f.String("owner", "", "owner of the targeted resource")
	f.String("target-company", "", "company of the targeted resource")
	f.String("ip", "", "client address")
	f.String("country", "", "client country")
	f.Bool("mfa", false, "the session passed multi-factor authentication")
	f.String("at", "", "decision time (RFC3339, default now)")
	f.Bool("exit-code", false, "exit with status 2 when the check is denied")
	_ = checkCmd.MarkFlagRequired("bundle")
	_ = checkCmd.MarkFlagRequired("user")
	_ = checkCmd.MarkFlagRequired("resource")
	_ = checkCmd.MarkFlagRequired("action")
}

func checkOptionsFromFlags(cmd *cobra.Command) (checkOptions, error) {
	f := cmd.Flags()
	var opts checkOptions
	opts.Bundle, _ = f.GetString("bundle")
	opts.UserID, _ = f.GetString("user")
	opts.Resource, _ = f.GetString("resource")
	opts.Action, _ = f.GetString("action")
	opts.Scope, _ = f.GetString("scope")
	opts.ResourceID, _ = f.GetString("resource-id")
	opts.OwnerID, _ = f.GetString("owner")
	opts.TargetCompany, _ = f.GetString("target-company")
	opts.IP, _ = f.GetString("ip")
	opts.Country, _ = f.GetString("country")
	opts.MFA, _ = f.GetBool("mfa")

	opts.At = time.Now().UTC()
	if at, _ := f.GetString("at"); at != "" {
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return opts, fmt.Errorf("invalid --at: %w", err)
		}
		opts.At = t
	}
	return opts, nil
}

func (o checkOptions) check() (authz.Check, error) {
	resource, err := authz.ResourceString(o.Resource)
	if err != nil {
		return authz.Check{}, fmt.Errorf("unknown resource %q", o.Resource)
	}
	action, err := authz.ActionString(o.Action)
	if err != nil {
		return authz.Check{}, fmt.Errorf("unknown action %q", o.Action)
	}
	c := authz.Check{
		Resource:   resource,
		Action:     action,
		ResourceID: o.ResourceID,
		Target:     authz.ResourceSnapshot{ID: o.ResourceID, OwnerID: o.OwnerID, CompanyID: o.TargetCompany},
	}
	if o.Scope != "" {
		scope, err := authz.ScopeString(strings.ToUpper(o.Scope))
		if err != nil {
			return authz.Check{}, fmt.Errorf("unknown scope %q", o.Scope)
		}
		c.Scope = scope.Ptr()
	}
	return c, nil
}

// runCheck loads the bundle into a fresh memory store and decides the
// check at opts.At.
func runCheck(ctx context.Context, cfg *config.Config, opts checkOptions) (checkOutput, error) {
	check, err := opts.check()
	if err != nil {
		return checkOutput{}, err
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	clock := authz.NewFixedClock(opts.At)

	rules := memory.New()
	loader := bundle.NewLoader(rules).WithLogger(log).WithClock(clock.Now)
	if _, err := loader.LoadFile(ctx, opts.Bundle); err != nil {
		return checkOutput{}, err
	}

	auditStore := audit.NewMemoryStore()
	ledger := audit.NewLedger(auditStore, audit.WithClock(clock.Now), audit.WithLogger(log))

	engineOpts, err := engineOptions(cfg, log)
	if err != nil {
		return checkOutput{}, err
	}
	engineOpts = append(engineOpts,
		authz.WithClock(clock),
		authz.WithNetworkInspector(reputation.NewStaticList(cfg.SuspiciousNetworks)),
	)
	engine := authz.NewEngine(rules, ledger, engineOpts...)

	env := authz.Environment{
		Request:  authz.RequestInfo{IPAddress: opts.IP, Method: "CLI", Path: "check"},
		Session:  authz.SessionInfo{MFAVerified: opts.MFA},
		Location: authz.LocationInfo{Country: strings.ToUpper(opts.Country)},
	}
	d, decideErr := engine.Authorize(ctx, authz.Actor{ID: opts.UserID}, check, env)

	entries, err := ledger.List(ctx, audit.Filter{})
	if err != nil {
		return checkOutput{}, err
	}
	out := checkOutput{Decision: d, Audit: entries}
	if decideErr != nil {
		out.Error = decideErr.Error()
	}
	return out, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
