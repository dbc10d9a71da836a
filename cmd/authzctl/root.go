package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/fincore-authz/pkg/logging"
)

var rootCmd = &cobra.Command{
	Use:   "authzctl",
	Short: "Run and operate the fincore authorization service",
	Long: `authzctl runs the fincore authorization server and the operational
tasks around it: schema migrations, rule bundle loading, offline checks and
audit ledger maintenance.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.FromEnv("text")
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// requireSubcommand is the Run of grouping commands.
func requireSubcommand(cmd *cobra.Command, _ []string) {
	names := make([]string, 0, len(cmd.Commands()))
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	fmt.Printf("error: Command '%s' requires a subcommand %v\n\n", cmd.Name(), names)
	_ = cmd.Help()
	os.Exit(1)
}

func main() {
	Execute()
}
