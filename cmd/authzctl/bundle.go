package main

import (
	"github.com/spf13/cobra"
)

// bundleCmd represents the bundle command
var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Manage rule bundles",
	Long:  `Load permissions, roles, users, policies and overrides from YAML bundles.`,
	Run:   requireSubcommand,
}

func init() {
	rootCmd.AddCommand(bundleCmd)
}
