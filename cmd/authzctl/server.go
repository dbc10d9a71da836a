package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/fincore-authz/pkg/attempts"
	"github.com/doodlesbykumbi/fincore-authz/pkg/audit"
	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
	"github.com/doodlesbykumbi/fincore-authz/pkg/config"
	"github.com/doodlesbykumbi/fincore-authz/pkg/db"
	"github.com/doodlesbykumbi/fincore-authz/pkg/logging"
	"github.com/doodlesbykumbi/fincore-authz/pkg/metrics"
	"github.com/doodlesbykumbi/fincore-authz/pkg/reputation"
	"github.com/doodlesbykumbi/fincore-authz/pkg/server"
	"github.com/doodlesbykumbi/fincore-authz/pkg/server/endpoints"
	gormstore "github.com/doodlesbykumbi/fincore-authz/pkg/server/store/gorm"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = 5 * time.Minute
)

func defaultBindAddress() string {
	if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
		return addr
	}
	return "0.0.0.0"
}

func defaultPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8000"
}

func defaultPortInt() int {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			return p
		}
	}
	return 8000
}

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the authorization server",
	Long: `Run the authorization server.

The server requires DATABASE_URL and AUTHZ_IDENTITY_JWT_SECRET. The audit
ledger is written to AUDIT_DATABASE_URL, or to DATABASE_URL when unset.

By default, database migrations are run on startup. Use --no-migrate to skip.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServer(cmd); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringP("port", "p", defaultPort(), "server listen port")
	serverCmd.Flags().StringP("bind-address", "b", defaultBindAddress(), "server bind address")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
	serverCmd.Flags().Bool("syslog", false, "also write audit entries as RFC5424 lines to stdout")
	serverCmd.Flags().String("reputation-url", os.Getenv("REPUTATION_URL"), "IP reputation service queried for suspicious networks")
}

// loadConfig reads and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openLedger connects the SQL audit store and builds the ledger around it.
func openLedger(cfg *config.Config, log logrus.FieldLogger, opts ...audit.LedgerOption) (*audit.Ledger, *audit.SQLStore, error) {
	auditStore, err := audit.OpenSQLStore(db.AuditURL())
	if err != nil {
		return nil, nil, fmt.Errorf("unable to connect to audit database: %w", err)
	}
	opts = append([]audit.LedgerOption{audit.WithLogger(log)}, opts...)
	if cfg.AuditIntegrityKey != "" {
		sealer, err := audit.NewSealerFromHex(cfg.AuditIntegrityKey)
		if err != nil {
			_ = auditStore.Close()
			return nil, nil, err
		}
		opts = append(opts, audit.WithSealer(sealer))
	}
	return audit.NewLedger(auditStore, opts...), auditStore, nil
}

// engineOptions maps the configuration onto engine options.
func engineOptions(cfg *config.Config, log logrus.FieldLogger) ([]authz.Option, error) {
	hours, err := cfg.BusinessHours()
	if err != nil {
		return nil, err
	}
	return []authz.Option{
		authz.WithLogger(log),
		authz.WithBusinessHours(hours),
		authz.WithRiskCap(cfg.RiskCap),
		authz.WithLookupTimeout(cfg.IPLookupTimeout()),
	}, nil
}

// networkInspector combines the configured ranges with the optional remote
// service behind a cache.
func networkInspector(cfg *config.Config, reputationURL string) authz.NetworkInspector {
	chain := reputation.Chain{reputation.NewStaticList(cfg.SuspiciousNetworks)}
	if reputationURL != "" {
		chain = append(chain, reputation.NewLookup(reputationURL, cfg.IPLookupTimeout()))
	}
	return reputation.NewCached(chain, cfg.IPCacheTTL())
}

func runServer(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.IdentityJWTSecret == "" {
		return errors.New("AUTHZ_IDENTITY_JWT_SECRET (identity_jwt_secret) is required")
	}
	if err := logging.FromEnv("json"); err != nil {
		return err
	}
	log := logging.Logger()

	if noMigrate, _ := cmd.Flags().GetBool("no-migrate"); !noMigrate {
		log.Info("running database migrations")
		if err := runMigrations(); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	database, err := db.Connect(db.Config{Log: log})
	if err != nil {
		return fmt.Errorf("unable to connect to DB: %w", err)
	}
	rules := gormstore.New(database)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	ledgerOpts := []audit.LedgerOption{audit.WithFailureHook(m.AuditWriteFailed)}
	if withSyslog, _ := cmd.Flags().GetBool("syslog"); withSyslog {
		ledgerOpts = append(ledgerOpts, audit.WithSyslog(audit.NewLogger(os.Stdout)))
	}
	ledger, auditStore, err := openLedger(cfg, log, ledgerOpts...)
	if err != nil {
		return err
	}
	defer func() { _ = auditStore.Close() }()
	m.TrackPending(ledger.Pending)

	reputationURL, _ := cmd.Flags().GetString("reputation-url")
	tracker := attempts.New(cfg.AttemptLimitPerMinute, cfg.AttemptBurst)
	opts, err := engineOptions(cfg, log)
	if err != nil {
		return err
	}
	opts = append(opts,
		authz.WithNetworkInspector(networkInspector(cfg, reputationURL)),
		authz.WithAttemptRecorder(tracker),
		authz.WithObserver(m),
	)
	engine := authz.NewEngine(rules, ledger, opts...)

	host, _ := cmd.Flags().GetString("bind-address")
	port, _ := cmd.Flags().GetString("port")
	s := server.NewServer(cfg, engine, rules, ledger, host, port,
		server.WithMetrics(m),
		server.WithAttempts(tracker),
		server.WithLogger(log),
	)
	endpoints.RegisterAll(s)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() { _ = ledger.Run(ctx, cfg.AuditRetryInterval()) }()
	go sweepAttempts(ctx, tracker, log)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown incomplete")
	}
	if n, err := ledger.Flush(shutdownCtx); err != nil {
		log.WithError(err).WithField("pending", ledger.Pending()).Error("audit entries lost on shutdown")
	} else if n > 0 {
		log.WithField("written", n).Info("audit retry queue flushed")
	}
	return nil
}

// sweepAttempts drops idle actors from the attempt tracker.
func sweepAttempts(ctx context.Context, tracker *attempts.Tracker, log logrus.FieldLogger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := tracker.Sweep(2 * sweepInterval); n > 0 {
				log.WithField("actors", n).Debug("attempt tracker swept")
			}
		}
	}
}
