package main

import (
	"github.com/spf13/cobra"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the database",
	Long:  `Manage the rule and audit database schemas.`,
	Run:   requireSubcommand,
}

func init() {
	rootCmd.AddCommand(dbCmd)
}
