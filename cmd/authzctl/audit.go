package main

import (
	"github.com/spf13/cobra"
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Maintain and report on the audit ledger",
	Run:   requireSubcommand,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}
