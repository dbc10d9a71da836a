package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/fincore-authz/pkg/bundle"
	"github.com/doodlesbykumbi/fincore-authz/pkg/db"
	"github.com/doodlesbykumbi/fincore-authz/pkg/logging"
	gormstore "github.com/doodlesbykumbi/fincore-authz/pkg/server/store/gorm"
)

// bundleLoadCmd represents the bundle load command
var bundleLoadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Load a rule bundle",
	Long: `Load a YAML rule bundle into the rule store.

The whole bundle is applied in one transaction. Records are matched by
name, so loading the same bundle twice changes nothing.

Example:
  authzctl bundle load rules.yml
  authzctl bundle load --dry-run rules.yml`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		result, err := loadBundleFile(cmd.Context(), args[0], dryRun)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load bundle: %v\n", err)
			os.Exit(1)
		}

		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
	},
}

func init() {
	bundleCmd.AddCommand(bundleLoadCmd)
	bundleLoadCmd.Flags().Bool("dry-run", false, "validate the bundle and roll back instead of committing")
}

func loadBundleFile(ctx context.Context, filename string, dryRun bool) (*bundle.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logging.Logger()
	database, err := db.Connect(db.Config{Log: log})
	if err != nil {
		return nil, err
	}

	loader := bundle.NewLoader(gormstore.New(database)).WithLogger(log).WithDryRun(dryRun)
	return loader.LoadFile(ctx, filename)
}
