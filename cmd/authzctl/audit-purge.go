package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/fincore-authz/pkg/logging"
)

// auditPurgeCmd represents the audit purge command
var auditPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete ledger entries older than the retention period",
	Long: `Delete ledger entries older than the retention period.

The retention defaults to audit_retention_days from the configuration.

Example:
  authzctl audit purge
  authzctl audit purge --older-than-days 90`,
	Run: func(cmd *cobra.Command, args []string) {
		days, _ := cmd.Flags().GetInt("older-than-days")

		n, err := purgeAudit(cmd.Context(), days)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Purge failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Purged %d audit entries\n", n)
	},
}

func init() {
	auditCmd.AddCommand(auditPurgeCmd)
	auditPurgeCmd.Flags().Int("older-than-days", 0, "retention in days (default: audit_retention_days)")
}

func purgeAudit(ctx context.Context, days int) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return 0, err
	}
	retention := cfg.AuditRetention()
	if days > 0 {
		retention = time.Duration(days) * 24 * time.Hour
	}

	ledger, store, err := openLedger(cfg, logging.Logger())
	if err != nil {
		return 0, err
	}
	defer func() { _ = store.Close() }()

	return ledger.Purge(ctx, retention)
}
