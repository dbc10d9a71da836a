package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/fincore-authz/pkg/audit"
	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
	"github.com/doodlesbykumbi/fincore-authz/pkg/db"
	"github.com/doodlesbykumbi/fincore-authz/pkg/logging"
	"github.com/doodlesbykumbi/fincore-authz/pkg/report"
	gormstore "github.com/doodlesbykumbi/fincore-authz/pkg/server/store/gorm"
)

// auditReportCmd represents the audit report command
var auditReportCmd = &cobra.Command{
	Use:   "report <user|company> <id>",
	Short: "Render security analytics for a user or company",
	Long: `Render security analytics for a user or company as Markdown or HTML.

The report covers totals, denials, average risk, per category counts, a
daily timeline and the most recent high risk entries. When an integrity key
is configured every entry's seal is verified as well.

Example:
  authzctl audit report user carol --days 7
  authzctl audit report company acme --format html > acme.html`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		days, _ := cmd.Flags().GetInt("days")
		limit, _ := cmd.Flags().GetInt("limit")
		format, _ := cmd.Flags().GetString("format")

		if err := auditReport(cmd.Context(), args[0], args[1], days, limit, format); err != nil {
			fmt.Fprintf(os.Stderr, "Report failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	auditCmd.AddCommand(auditReportCmd)
	auditReportCmd.Flags().Int("days", 30, "window in days")
	auditReportCmd.Flags().Int("limit", report.DefaultHighRiskLimit, "maximum high risk entries listed")
	auditReportCmd.Flags().StringP("format", "f", "markdown", "output format (markdown or html)")
}

func auditReport(ctx context.Context, kind, id string, days, limit int, format string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if format != "markdown" && format != "html" {
		return fmt.Errorf("unknown format %q", format)
	}
	targetType, err := audit.ParseTargetType(kind)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.Logger()

	database, err := db.Connect(db.Config{Log: log})
	if err != nil {
		return err
	}
	ledger, store, err := openLedger(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	engineOpts, err := engineOptions(cfg, log)
	if err != nil {
		return err
	}
	engine := authz.NewEngine(gormstore.New(database), ledger, engineOpts...)

	r, err := report.Build(ctx, engine, ledger, id, targetType, days, limit)
	if err != nil {
		return err
	}
	if format == "html" {
		html, err := r.HTML()
		if err != nil {
			return err
		}
		fmt.Print(html)
		return nil
	}
	fmt.Print(r.Markdown())
	return nil
}
