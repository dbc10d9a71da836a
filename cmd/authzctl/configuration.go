package main

import (
	"github.com/spf13/cobra"
)

// configurationCmd represents the configuration command
var configurationCmd = &cobra.Command{
	Use:   "configuration",
	Short: "Inspect the service configuration",
	Run:   requireSubcommand,
}

func init() {
	rootCmd.AddCommand(configurationCmd)
}
